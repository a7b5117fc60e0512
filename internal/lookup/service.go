// Package lookup is the query layer of the scanning pipeline. It owns the
// result cache, the retry policy, and the session state the UI observes.
// It is the sole boundary that translates fetch errors into the IsError
// flag; nothing below it leaks raw errors to callers.
package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/campuswell/nutriscan/internal/cache"
	"github.com/campuswell/nutriscan/internal/ingredients"
	"github.com/campuswell/nutriscan/internal/nutrition"
	"github.com/campuswell/nutriscan/internal/off"
	"github.com/campuswell/nutriscan/internal/types"
)

const (
	// DefaultFreshness is how long a cached result is served without a
	// background revalidation.
	DefaultFreshness = 30 * time.Minute

	// DefaultRetention keeps stale results around so back-navigation is
	// instant instead of refetching.
	DefaultRetention = time.Hour
)

// Recorder persists a trace of completed lookups. Satisfied by
// history.Store; may be nil when history is disabled.
type Recorder interface {
	Record(ctx context.Context, result *types.LookupResult) error
}

// State is the observable session state for the UI collaborator.
// Exactly one of the flags is meaningful at a time: loading, error,
// not-found, or a populated ScannedFood.
type State struct {
	ScannedFood *types.LookupResult `json:"scanned_food"`
	RawProduct  *types.Product      `json:"raw_product,omitempty"`
	IsLoading   bool                `json:"is_loading"`
	IsError     bool                `json:"is_error"`
	IsNotFound  bool                `json:"is_not_found"`
}

// Service runs barcode lookups through the pipeline: cache check, rate
// limited fetch, normalization, classification, scoring, tiering.
type Service struct {
	fetcher    off.Fetcher
	classifier ingredients.Classifier
	store      cache.Store
	recorder   Recorder
	log        *slog.Logger

	freshness time.Duration
	retention time.Duration

	mu     sync.Mutex
	active string
	seq    uint64
	state  State

	now func() time.Time
}

// Options tune the cache windows. Zero values take the defaults.
type Options struct {
	Freshness time.Duration
	Retention time.Duration
}

// NewService wires the pipeline. recorder may be nil.
func NewService(fetcher off.Fetcher, classifier ingredients.Classifier, store cache.Store, recorder Recorder, opts Options, logger *slog.Logger) *Service {
	freshness := opts.Freshness
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Service{
		fetcher:    fetcher,
		classifier: classifier,
		store:      store,
		recorder:   recorder,
		log:        logger,
		freshness:  freshness,
		retention:  retention,
		now:        time.Now,
	}
}

// LookupBarcode runs one user-initiated lookup and returns the resulting
// session state. A call supersedes any in-flight lookup: the superseded
// fetch may still complete and populate the cache, but it no longer touches
// session state. Stale-but-retained cache entries are served immediately
// and revalidated in the background; the caller never blocks on
// revalidation.
func (s *Service) LookupBarcode(ctx context.Context, barcode string) State {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.active = barcode
	s.state = State{IsLoading: true}
	s.mu.Unlock()

	start := s.now()

	if cached := s.fromCache(ctx, barcode); cached != nil {
		st := State{ScannedFood: cached}
		s.setState(seq, st)

		if !cached.Fresh(s.now(), s.freshness) {
			s.log.Debug("Serving stale result, revalidating in background", "barcode", barcode)
			go s.refresh(context.WithoutCancel(ctx), barcode, seq)
		} else {
			s.log.Info("Lookup served from cache", "barcode", barcode, "duration", time.Since(start))
		}
		return st
	}

	result, raw, notFound, err := s.performLookup(ctx, barcode)
	switch {
	case err != nil:
		s.log.Error("Lookup failed", "barcode", barcode, "error", err, "duration", time.Since(start))
		st := State{IsError: true}
		s.setState(seq, st)
		return st
	case notFound:
		s.log.Info("Lookup found no product", "barcode", barcode, "duration", time.Since(start))
		st := State{IsNotFound: true}
		s.setState(seq, st)
		return st
	default:
		s.log.Info("Lookup completed", "barcode", barcode, "score", result.HealthScore, "tier", result.Tier.Tier, "duration", time.Since(start))
		st := State{ScannedFood: result, RawProduct: raw}
		s.setState(seq, st)
		return st
	}
}

// Reset clears the active key and session state.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = ""
	s.state = State{}
}

// State returns a snapshot of the current session state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Invalidate drops the cached result for one barcode.
func (s *Service) Invalidate(ctx context.Context, barcode string) error {
	return s.store.Delete(ctx, barcode)
}

// performLookup fetches, scores, caches, and records one barcode. The
// returned error is already retried once when the failure was transport
// level; a valid not-found is never retried.
func (s *Service) performLookup(ctx context.Context, barcode string) (*types.LookupResult, *types.Product, bool, error) {
	product, err := s.fetcher.Lookup(ctx, barcode)
	if err != nil && off.IsRetryable(err) {
		s.log.Warn("Transport failure, retrying once", "barcode", barcode, "error", err)
		product, err = s.fetcher.Lookup(ctx, barcode)
	}
	if err != nil {
		return nil, nil, false, err
	}
	if product == nil {
		return nil, nil, true, nil
	}

	result := s.buildResult(barcode, product)
	s.toCache(ctx, result)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, result); err != nil {
			s.log.Warn("Failed to record scan history", "barcode", barcode, "error", err)
		}
	}

	return result, product, false, nil
}

// buildResult runs the synchronous pipeline stages over a raw record.
func (s *Service) buildResult(barcode string, product *types.Product) *types.LookupResult {
	flags := s.classifier.Classify(product.IngredientsText)
	modifier := s.classifier.ScoreModifier(flags)
	score := nutrition.Score(product, modifier)

	return &types.LookupResult{
		Barcode:        barcode,
		Status:         types.StatusFound,
		Name:           product.ProductName,
		Brand:          product.Brands,
		ImageURL:       product.ImageURL,
		NutritionGrade: product.NutritionGrades,
		ServingSize:    product.ServingSize,
		Allergens:      product.Allergens,
		AdditivesTags:  product.AdditivesTags,
		Nutrition:      nutrition.Normalize(product),
		Ingredients:    flags,
		HealthScore:    score,
		Tier:           nutrition.ClassifyTier(flags, score),
		FetchedAt:      s.now(),
	}
}

// refresh revalidates a stale entry in the background. If the session has
// moved on to another barcode it only repopulates the cache.
func (s *Service) refresh(ctx context.Context, barcode string, seq uint64) {
	result, _, notFound, err := s.performLookup(ctx, barcode)
	if err != nil || notFound {
		// The stale entry stays served; revalidation is silent.
		if err != nil {
			s.log.Warn("Background revalidation failed", "barcode", barcode, "error", err)
		}
		return
	}

	s.setState(seq, State{ScannedFood: result})
}

func (s *Service) setState(seq uint64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		return // superseded by a newer lookup
	}
	s.state = st
}

func (s *Service) fromCache(ctx context.Context, barcode string) *types.LookupResult {
	data, err := s.store.Get(ctx, barcode)
	if err != nil {
		return nil
	}

	var result types.LookupResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.log.Warn("Dropping undecodable cache entry", "barcode", barcode, "error", err)
		_ = s.store.Delete(ctx, barcode)
		return nil
	}
	return &result
}

func (s *Service) toCache(ctx context.Context, result *types.LookupResult) {
	data, err := json.Marshal(result)
	if err != nil {
		s.log.Warn("Failed to encode result for cache", "barcode", result.Barcode, "error", err)
		return
	}
	if err := s.store.Set(ctx, result.Barcode, data, s.retention); err != nil {
		s.log.Warn("Failed to cache result", "barcode", result.Barcode, "error", err)
	}
}
