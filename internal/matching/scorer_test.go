package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
)

func candidatesFor(t *testing.T, users ...User) map[string]*Candidate {
	t.Helper()
	list := normalizeUsers(users)
	out := make(map[string]*Candidate, len(list))
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out
}

func TestLexicalScore(t *testing.T) {
	c := candidatesFor(t,
		User{ID: "T", Teaches: []string{"python"}, Rating: 4, Timezone: "GMT+0"},
		User{ID: "L", Learns: []string{"python"}, Timezone: "GMT+0"},
	)
	weight, ok := NewLexicalStrategy(DefaultPolicy()).Score(c["T"], c["L"])
	require.True(t, ok)
	assert.Equal(t, 19.0, weight)

	_, ok = NewLexicalStrategy(DefaultPolicy()).Score(c["L"], c["T"])
	assert.False(t, ok)
}

func TestLexicalScoreIsCaseSensitive(t *testing.T) {
	c := candidatesFor(t,
		User{ID: "T", Teaches: []string{"Python"}},
		User{ID: "L", Learns: []string{"python"}},
	)
	_, ok := NewLexicalStrategy(DefaultPolicy()).Score(c["T"], c["L"])
	assert.False(t, ok)
}

func TestLexicalScoreMonotonicInOverlap(t *testing.T) {
	strategy := NewLexicalStrategy(DefaultPolicy())
	learner := User{ID: "L", Learns: []string{"go", "sql", "k8s"}, Timezone: "GMT+1"}
	prev := 0.0
	for n := 1; n <= 3; n++ {
		c := candidatesFor(t, User{ID: "T", Teaches: learner.Learns[:n], Rating: 2, Timezone: "GMT+3"}, learner)
		weight, ok := strategy.Score(c["T"], c["L"])
		require.True(t, ok)
		assert.Greater(t, weight, prev)
		prev = weight
	}
}

func TestSemanticScoreWithLexicalProvider(t *testing.T) {
	c := candidatesFor(t,
		User{ID: "T", Teaches: []string{"guitar", "python"}, Rating: 1, Timezone: "GMT+2"},
		User{ID: "L", Learns: []string{"python"}, Timezone: "GMT+0"},
		User{ID: "X", Learns: []string{"cooking"}},
	)
	list := []Candidate{*c["L"], *c["T"], *c["X"]}
	strategy := NewSemanticStrategy(DefaultPolicy(), embedding.NewLexicalProvider())
	require.NoError(t, strategy.Prepare(context.Background(), list))

	weight, ok := strategy.Score(&list[1], &list[0])
	require.True(t, ok)
	assert.InDelta(t, 100+1+3, weight, 1e-9)

	_, ok = strategy.Score(&list[1], &list[2])
	assert.False(t, ok)
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.Join(embedding.ErrProviderUnavailable, errors.New("connection refused"))
}

func TestSemanticPrepareSurfacesProviderFailure(t *testing.T) {
	list := normalizeUsers([]User{{ID: "T", Teaches: []string{"go"}}})
	err := NewSemanticStrategy(DefaultPolicy(), failingProvider{}).Prepare(context.Background(), list)
	require.Error(t, err)
	assert.True(t, errors.Is(err, embedding.ErrProviderUnavailable))
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("", DefaultPolicy(), nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyLexical, s.Name())

	s, err = NewStrategy(StrategySemantic, DefaultPolicy(), embedding.NewLexicalProvider())
	require.NoError(t, err)
	assert.Equal(t, StrategySemantic, s.Name())

	_, err = NewStrategy(StrategySemantic, DefaultPolicy(), nil)
	assert.True(t, errors.Is(err, embedding.ErrProviderUnavailable))

	_, err = NewStrategy("fuzzy", DefaultPolicy(), nil)
	assert.Error(t, err)
}

func TestNormalizeUsers(t *testing.T) {
	list := normalizeUsers([]User{
		{ID: " b ", Teaches: []string{" go ", "", "go", "sql"}, Rating: -3},
		{ID: "", Teaches: []string{"x"}},
		{ID: "a", Learns: []string{"  "}},
		{ID: "b", Teaches: []string{"ignored"}},
	})
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Empty(t, list[0].Learns)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, []string{"go", "sql"}, list[1].Teaches)
	assert.Equal(t, 0.0, list[1].Rating)
}
