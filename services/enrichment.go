package services

import (
	"time"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// Enrichment is the per-product output of the external keyword/category
// service. Empty fields mean "no change".
type Enrichment struct {
	CategoryL1 string
	CategoryL2 string
	CategoryL3 string
	Keyword    string
}

// Enricher is the boundary to the external keyword/category enrichment
// service (in production an LLM-backed API). Implementations may be slow and
// flaky; the enrichment service wraps calls with rate limiting and retry.
type Enricher interface {
	Enrich(title, brand, category string) (Enrichment, error)
}

// EnrichmentService applies enricher results onto the master product list.
type EnrichmentService struct {
	logger         *utils.Logger
	maxConcurrency int
	rateLimitMs    int
	maxRetries     int
}

// NewEnrichmentService creates an EnrichmentService with the given
// concurrency, rate-limit and retry settings.
func NewEnrichmentService(logger *utils.Logger, maxConcurrency, rateLimitMs, maxRetries int) *EnrichmentService {
	return &EnrichmentService{
		logger:         logger,
		maxConcurrency: maxConcurrency,
		rateLimitMs:    rateLimitMs,
		maxRetries:     maxRetries,
	}
}

// Apply calls the enricher once per product and writes the returned category
// and keyword strings onto the corresponding fields. The results are plain
// string overwrites — no validation of their content happens here. Products
// whose enrichment fails after retries are carried through unchanged. The
// input slice is not mutated.
func (s *EnrichmentService) Apply(products []*models.MasterProduct, enricher Enricher) []*models.MasterProduct {
	out := make([]*models.MasterProduct, 0, len(products))
	for _, p := range products {
		out = append(out, p.Clone())
	}

	pool := utils.NewWorkerPool(s.maxConcurrency, s.rateLimitMs)
	retry := &utils.RetryConfig{
		MaxAttempts: s.maxRetries,
		BaseDelay:   500 * time.Millisecond,
		Logger:      s.logger,
	}

	for _, p := range out {
		p := p
		pool.Submit(func() {
			var result Enrichment
			err := retry.Do("enrich "+p.Key, func() error {
				var callErr error
				result, callErr = enricher.Enrich(p.Title, p.Brand, p.CategoryL1)
				return callErr
			})
			if err != nil {
				s.logger.Warn("[enrichment] %q left unenriched: %v", p.Title, err)
				return
			}
			if result.CategoryL1 != "" {
				p.CategoryL1 = result.CategoryL1
			}
			if result.CategoryL2 != "" {
				p.CategoryL2 = result.CategoryL2
			}
			if result.CategoryL3 != "" {
				p.CategoryL3 = result.CategoryL3
			}
			if result.Keyword != "" {
				p.Keyword = result.Keyword
			}
		})
	}
	pool.Wait()

	s.logger.Info("[enrichment] Applied enrichment to %d products", len(out))
	return out
}
