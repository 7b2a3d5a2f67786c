package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/models"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
)

type searchMetrics interface {
	ObserveSearch(mode string, err error)
}

// DefaultSearchThreshold is the similarity floor used when none is configured.
const DefaultSearchThreshold = 0.45

// SearchServiceConfig tunes skill search. A nil Threshold means
// DefaultSearchThreshold; zero is a valid floor.
type SearchServiceConfig struct {
	Threshold      *float64
	Limit          int
	MaxQueryLength int
}

// SearchService ranks members against a single free-text skill. Unlike matching
// runs it only looks at one side of each profile.
type SearchService struct {
	profiles  profileLister
	provider  embedding.Provider
	metrics   searchMetrics
	validator *validator.Validate
	logger    *zap.Logger
	threshold float64
	cfg       SearchServiceConfig
}

// NewSearchService constructs the search service.
func NewSearchService(profiles profileLister, provider embedding.Provider, metrics searchMetrics, validate *validator.Validate, logger *zap.Logger, cfg SearchServiceConfig) *SearchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = 200
	}
	threshold := DefaultSearchThreshold
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	return &SearchService{
		profiles:  profiles,
		provider:  provider,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		threshold: threshold,
		cfg:       cfg,
	}
}

// Search returns up to Limit members whose taught (mode learn) or desired (mode
// teach) skills resemble the query, best first.
func (s *SearchService) Search(ctx context.Context, req dto.SearchRequest) (results []dto.SearchResult, err error) {
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSearch(req.Mode, err)
		}
	}()

	req.Query = strings.TrimSpace(req.Query)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search payload")
	}
	if utf8.RuneCountInString(req.Query) > s.cfg.MaxQueryLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "query is too long")
	}
	if s.provider == nil {
		return nil, appErrors.Clone(appErrors.ErrEmbeddingUnavailable, "no embedding provider configured")
	}

	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, translateError(err, "failed to load profiles")
	}

	cache := embedding.NewRunCache(s.provider)
	query, err := cache.Vectors(ctx, []string{req.Query})
	if err != nil {
		s.logger.Warn("search query embedding failed", zap.Error(err))
		return nil, translateError(err, "failed to embed query")
	}

	results = make([]dto.SearchResult, 0)
	for _, p := range profiles {
		skills := targetSkills(p, req.Mode)
		if len(skills) == 0 {
			continue
		}
		vectors, err := cache.Vectors(ctx, skills)
		if err != nil {
			return nil, translateError(err, "failed to embed skills")
		}
		best, skill := -1.0, ""
		for i, v := range vectors {
			if sim := embedding.Similarity(query[0], v); sim > best {
				best, skill = sim, skills[i]
			}
		}
		if best < s.threshold {
			continue
		}
		results = append(results, dto.SearchResult{
			UserID:       p.ID,
			Name:         p.Name,
			Score:        best * 100,
			MatchedSkill: skill,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UserID < results[j].UserID
	})
	if len(results) > s.cfg.Limit {
		results = results[:s.cfg.Limit]
	}
	return results, nil
}

func targetSkills(p models.UserProfile, mode string) []string {
	source := p.Teaches
	if mode == dto.SearchModeTeach {
		source = p.Learns
	}
	seen := make(map[string]struct{}, len(source))
	out := make([]string, 0, len(source))
	for _, raw := range source {
		skill := strings.TrimSpace(raw)
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	return out
}
