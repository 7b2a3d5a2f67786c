package evaluation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/matching"
)

func TestPrecisionAtK(t *testing.T) {
	ranked := []matching.Pair{{UserA: "A", UserB: "B"}, {UserA: "C", UserB: "D"}, {UserA: "E", UserB: "F"}}
	good := GoodPairs([]Label{
		{Pair: [2]string{"B", "A"}, Score: 3},
		{Pair: [2]string{"E", "F"}, Score: 2},
		{Pair: [2]string{"C", "D"}, Score: 1},
	}, DefaultMinScore)

	assert.InDelta(t, 2.0/3.0, PrecisionAtK(ranked, good, 3), 1e-9)
	assert.InDelta(t, 1.0, PrecisionAtK(ranked, good, 1), 1e-9)
	assert.InDelta(t, 2.0/5.0, PrecisionAtK(ranked, good, 5), 1e-9)
	assert.Equal(t, 0.0, PrecisionAtK(ranked, good, 0))
	assert.Equal(t, 0.0, PrecisionAtK(ranked, good, -2))
	assert.Equal(t, 0.0, PrecisionAtK(nil, good, 3))
}

func TestGoodPairsThreshold(t *testing.T) {
	good := GoodPairs([]Label{{Pair: [2]string{"x", "y"}, Score: 1.5}}, 1.5)
	assert.True(t, good.Contains("y", "x"))
	assert.Empty(t, GoodPairs([]Label{{Pair: [2]string{"x", "y"}, Score: 1}}, 2))
}

func TestDecodeUsersIsLenient(t *testing.T) {
	payload := `[
		{"id": "u1", "teaches": ["python", 7, "", " go "], "learns": null, "rating": 4.5, "timezone": "GMT+2"},
		{"id": "u2", "learns": ["python"], "rating": "3"},
		{"id": 42, "teaches": ["sql"], "rating": null, "timezone": 3},
		{"id": "u4", "timezone": {"offset": 5}},
		{"teaches": ["orphan"]}
	]`
	users, err := DecodeUsers(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, users, 4)

	assert.Equal(t, []string{"python", "go"}, users[0].Teaches)
	assert.Empty(t, users[0].Learns)
	assert.Equal(t, 4.5, users[0].Rating)
	assert.Equal(t, "GMT+2", users[0].Timezone)

	assert.Equal(t, 3.0, users[1].Rating)
	assert.Equal(t, matching.DefaultTimezone, users[1].Timezone)

	assert.Equal(t, "42", users[2].ID)
	assert.Equal(t, 0.0, users[2].Rating)
	assert.Equal(t, matching.DefaultTimezone, users[2].Timezone)
	assert.Equal(t, matching.DefaultTimezone, users[3].Timezone)
}

func TestDecodeLabels(t *testing.T) {
	payload := `[{"pair": ["a", "b"], "score": 3}, {"pair": ["c"], "score": 3}, {"pair": ["d", "e"]}]`
	labels, err := DecodeLabels(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, []Label{{Pair: [2]string{"a", "b"}, Score: 3}, {Pair: [2]string{"d", "e"}, Score: 0}}, labels)

	_, err = DecodeLabels(strings.NewReader(`{"pair": 1}`))
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	labelsPath := filepath.Join(dir, "ground_truth.json")
	require.NoError(t, os.WriteFile(usersPath, []byte(`[{"id":"a","teaches":["go"]}]`), 0o600))
	require.NoError(t, os.WriteFile(labelsPath, []byte(`[{"pair":["a","b"],"score":2}]`), 0o600))

	users, err := LoadUsers(usersPath)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	labels, err := LoadLabels(labelsPath)
	require.NoError(t, err)
	assert.Len(t, labels, 1)

	_, err = LoadUsers(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }

func (brokenProvider) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.Join(embedding.ErrProviderUnavailable, errors.New("model missing"))
}

func TestEvaluatorRunsAndSkips(t *testing.T) {
	users := []matching.User{
		{ID: "T", Teaches: []string{"python"}, Rating: 4},
		{ID: "L", Learns: []string{"python"}},
	}
	good := GoodPairs([]Label{{Pair: [2]string{"T", "L"}, Score: 3}}, DefaultMinScore)
	evaluator := NewEvaluator(matching.NewEngine(nil), good, 1, nil)

	report, err := evaluator.Evaluate(context.Background(), users, matching.NewLexicalStrategy(matching.DefaultPolicy()))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Hits)
	assert.Equal(t, 1.0, report.Precision)
	assert.False(t, report.Skipped)

	report, err = evaluator.Evaluate(context.Background(), users, matching.NewSemanticStrategy(matching.DefaultPolicy(), brokenProvider{}))
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, matching.StrategySemantic, report.Strategy)
}
