package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/models"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
)

type searchMetricsStub struct {
	modes []string
	errs  []error
}

func (m *searchMetricsStub) ObserveSearch(mode string, err error) {
	m.modes = append(m.modes, mode)
	m.errs = append(m.errs, err)
}

func searchProfiles() []models.UserProfile {
	return []models.UserProfile{
		profile("u3", []string{"Go", "SQL"}, []string{"Spanish"}, 0),
		profile("u1", []string{"Go"}, []string{"Guitar"}, 0),
		profile("u2", []string{"Cooking"}, []string{"Go"}, 0),
		profile("u4", nil, []string{"Go", " Go "}, 0),
	}
}

func TestSearchServiceLearnModeMatchesTeachers(t *testing.T) {
	metrics := &searchMetricsStub{}
	svc := NewSearchService(&profileListerStub{profiles: searchProfiles()}, embedding.NewLexicalProvider(), metrics, nil, nil, SearchServiceConfig{})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "  Go ", Mode: dto.SearchModeLearn})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "u1", results[0].UserID)
	assert.Equal(t, "u3", results[1].UserID)
	assert.Equal(t, 100.0, results[0].Score)
	assert.Equal(t, "Go", results[1].MatchedSkill)
	assert.Equal(t, "User u1", results[0].Name)

	require.Len(t, metrics.modes, 1)
	assert.Equal(t, dto.SearchModeLearn, metrics.modes[0])
	assert.NoError(t, metrics.errs[0])
}

func TestSearchServiceTeachModeMatchesLearners(t *testing.T) {
	svc := NewSearchService(&profileListerStub{profiles: searchProfiles()}, embedding.NewLexicalProvider(), nil, nil, nil, SearchServiceConfig{})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "Go", Mode: dto.SearchModeTeach})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "u2", results[0].UserID)
	assert.Equal(t, "u4", results[1].UserID)
}

func TestSearchServiceHashingScoresSimilarPhrases(t *testing.T) {
	profiles := []models.UserProfile{
		profile("near", []string{"python programming"}, nil, 0),
		profile("far", []string{"watercolor painting"}, nil, 0),
	}
	svc := NewSearchService(&profileListerStub{profiles: profiles}, embedding.NewHashingProvider(0), nil, nil, nil, SearchServiceConfig{Threshold: floatPtr(0.3)})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "python programming", Mode: dto.SearchModeLearn})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "near", results[0].UserID)
	assert.InDelta(t, 100.0, results[0].Score, 0.01)
	for _, r := range results {
		assert.LessOrEqual(t, r.Score, 100.0)
	}
}

func TestSearchServiceLimit(t *testing.T) {
	var profiles []models.UserProfile
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		profiles = append(profiles, profile(id, []string{"Go"}, nil, 0))
	}
	svc := NewSearchService(&profileListerStub{profiles: profiles}, embedding.NewLexicalProvider(), nil, nil, nil, SearchServiceConfig{Limit: 3})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "Go", Mode: dto.SearchModeLearn})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].UserID, results[1].UserID, results[2].UserID})
}

func TestSearchServiceValidation(t *testing.T) {
	metrics := &searchMetricsStub{}
	svc := NewSearchService(&profileListerStub{profiles: searchProfiles()}, embedding.NewLexicalProvider(), metrics, nil, nil, SearchServiceConfig{MaxQueryLength: 10})

	cases := []dto.SearchRequest{
		{Query: "   ", Mode: dto.SearchModeLearn},
		{Query: "Go", Mode: "mentor"},
		{Query: "Go", Mode: ""},
		{Query: strings.Repeat("x", 11), Mode: dto.SearchModeTeach},
	}
	for _, req := range cases {
		_, err := svc.Search(context.Background(), req)
		requireAppCode(t, err, appErrors.ErrValidation.Code)
	}
	require.Len(t, metrics.errs, len(cases))
	assert.Error(t, metrics.errs[0])
}

func TestSearchServiceProviderFailure(t *testing.T) {
	svc := NewSearchService(&profileListerStub{profiles: searchProfiles()}, downProvider{}, nil, nil, nil, SearchServiceConfig{})

	_, err := svc.Search(context.Background(), dto.SearchRequest{Query: "Go", Mode: dto.SearchModeLearn})
	requireAppCode(t, err, appErrors.ErrEmbeddingUnavailable.Code)
	assert.True(t, errors.Is(err, embedding.ErrProviderUnavailable))
}

func TestSearchServiceWithoutProvider(t *testing.T) {
	svc := NewSearchService(&profileListerStub{}, nil, nil, nil, nil, SearchServiceConfig{})

	_, err := svc.Search(context.Background(), dto.SearchRequest{Query: "Go", Mode: dto.SearchModeLearn})
	requireAppCode(t, err, appErrors.ErrEmbeddingUnavailable.Code)
}

func TestSearchServiceEmptyDirectory(t *testing.T) {
	svc := NewSearchService(&profileListerStub{}, embedding.NewLexicalProvider(), nil, nil, nil, SearchServiceConfig{})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "Go", Mode: dto.SearchModeLearn})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func floatPtr(v float64) *float64 { return &v }

func TestSearchServiceZeroThresholdKeepsEveryCandidate(t *testing.T) {
	svc := NewSearchService(&profileListerStub{profiles: searchProfiles()}, embedding.NewLexicalProvider(), nil, nil, nil, SearchServiceConfig{Threshold: floatPtr(0)})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "Go", Mode: dto.SearchModeLearn})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"u1", "u3", "u2"}, []string{results[0].UserID, results[1].UserID, results[2].UserID})
	assert.Equal(t, 0.0, results[2].Score)
}

func TestSearchServiceScoreIsUnrounded(t *testing.T) {
	provider := embedding.NewHashingProvider(0)
	profiles := []models.UserProfile{profile("u1", []string{"python scripting"}, nil, 0)}
	svc := NewSearchService(&profileListerStub{profiles: profiles}, provider, nil, nil, nil, SearchServiceConfig{Threshold: floatPtr(-1)})

	results, err := svc.Search(context.Background(), dto.SearchRequest{Query: "python programming", Mode: dto.SearchModeLearn})
	require.NoError(t, err)
	require.Len(t, results, 1)

	vectors, err := provider.Embed(context.Background(), []string{"python programming", "python scripting"})
	require.NoError(t, err)
	assert.Equal(t, embedding.Similarity(vectors[0], vectors[1])*100, results[0].Score)
}
