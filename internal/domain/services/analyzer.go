package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

// RecordStore persists completed analyses
type RecordStore interface {
	Save(ctx context.Context, rec models.AnalysisRecord) error
}

// RecordLister lists persisted analyses, newest first
type RecordLister interface {
	Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
}

// VerdictCounter tallies persisted analyses per verdict
type VerdictCounter interface {
	CountByVerdict(ctx context.Context) (map[models.Verdict]int64, error)
}

// EventPublisher fans completed analyses out to subscribers
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, rec models.AnalysisRecord) error
}

// MediaArchiver keeps a copy of uploaded media next to its verdict
type MediaArchiver interface {
	Archive(ctx context.Context, rec models.AnalysisRecord, data []byte, contentType string) error
}

// AnalyzerConfig contains configuration for the analyzer
type AnalyzerConfig struct {
	PersistTimeout time.Duration
	BatchLimit     int
	MaxBatchSize   int
}

// DefaultAnalyzerConfig returns the defaults used when no config is given
func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		PersistTimeout: 5 * time.Second,
		BatchLimit:     8,
		MaxBatchSize:   100,
	}
}

// Analyzer runs extract, score and recommend for one input and hands the
// finished result to the store and publisher. Side effects run after the
// result is built and their failures never reach the caller.
type Analyzer struct {
	extractor *FeatureExtractor
	scorer    *Scorer
	selector  *RecommendationSelector

	store     RecordStore
	publisher EventPublisher
	archiver  MediaArchiver

	cfg    *AnalyzerConfig
	logger *logger.Logger
	now    func() time.Time

	wg sync.WaitGroup
}

// AnalyzerOption customizes an Analyzer
type AnalyzerOption func(*Analyzer)

// WithRecordStore sets the store completed analyses are saved to
func WithRecordStore(store RecordStore) AnalyzerOption {
	return func(a *Analyzer) { a.store = store }
}

// WithEventPublisher sets the publisher completed analyses are sent to
func WithEventPublisher(p EventPublisher) AnalyzerOption {
	return func(a *Analyzer) { a.publisher = p }
}

// WithMediaArchiver sets the archive uploaded media is copied to
func WithMediaArchiver(m MediaArchiver) AnalyzerOption {
	return func(a *Analyzer) { a.archiver = m }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(rules DetectionRules, cfg *AnalyzerConfig, log *logger.Logger, opts ...AnalyzerOption) *Analyzer {
	c := *DefaultAnalyzerConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 1
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = DefaultAnalyzerConfig().PersistTimeout
	}

	a := &Analyzer{
		extractor: NewFeatureExtractor(rules, log),
		scorer:    NewScorer(rules),
		selector:  NewRecommendationSelector(),
		cfg:       &c,
		logger:    log.WithComponent("analyzer"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores one input. Only ErrInvalidInput and ErrUnsupportedContent
// are returned; everything past validation degrades to a verdict.
func (a *Analyzer) Analyze(ctx context.Context, in models.AnalysisInput, meta models.AnalysisMeta) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	result := a.evaluate(in)
	rec := models.AnalysisRecord{
		Result:  *result,
		Subject: in.Subject(),
		Meta:    meta,
	}

	a.logger.Info().
		Str("content_type", in.Type.String()).
		Str("verdict", string(result.Verdict)).
		Int("score", result.Score).
		Str("analysis_id", result.ID.String()).
		Msg("analysis completed")

	a.persist(rec)

	return result, nil
}

// AnalyzeMedia analyzes an uploaded file and archives its bytes when an
// archiver is configured
func (a *Analyzer) AnalyzeMedia(ctx context.Context, in models.AnalysisInput, meta models.AnalysisMeta, data []byte, contentType string) (*models.AnalysisResult, error) {
	result, err := a.Analyze(ctx, in, meta)
	if err != nil {
		return nil, err
	}

	if a.archiver != nil && len(data) > 0 {
		rec := models.AnalysisRecord{Result: *result, Subject: in.Subject(), Meta: meta}
		a.background("archive", in.Type, func(ctx context.Context) error {
			return a.archiver.Archive(ctx, rec, data, contentType)
		})
	}

	return result, nil
}

// BatchItem is one analysis outcome of a batch. Err is set instead of
// Result when that input failed validation.
type BatchItem struct {
	Result *models.AnalysisResult
	Err    error
}

// AnalyzeBatch analyzes inputs concurrently. The output is in input order.
// An invalid input fails its own slot, not the batch.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []models.AnalysisInput, meta models.AnalysisMeta) ([]BatchItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", ErrInvalidInput)
	}
	if a.cfg.MaxBatchSize > 0 && len(inputs) > a.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit of %d", ErrInvalidInput, len(inputs), a.cfg.MaxBatchSize)
	}

	out := make([]BatchItem, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.BatchLimit)

	for i, in := range inputs {
		g.Go(func() error {
			result, err := a.Analyze(gctx, in, meta)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			out[i] = BatchItem{Result: result, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug().Int("items", len(inputs)).Msg("batch analysis completed")
	return out, nil
}

// ArchivesMedia reports whether uploaded bytes are kept after analysis
func (a *Analyzer) ArchivesMedia() bool {
	return a.archiver != nil
}

// Wait blocks until every pending save, publish and archive has finished
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

// ValidateInput checks the fields the analyzers need
func ValidateInput(in models.AnalysisInput) error {
	switch in.Type {
	case models.ContentTypeLink:
		if in.URL == "" {
			return fmt.Errorf("%w: url is required", ErrInvalidInput)
		}
	case models.ContentTypeEmail:
		if in.EmailText == "" {
			return fmt.Errorf("%w: email content is required", ErrInvalidInput)
		}
	case models.ContentTypeVoice, models.ContentTypeVideo:
		if in.FileName == "" {
			return fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		if in.SizeBytes < 0 {
			return fmt.Errorf("%w: file size must not be negative", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: content type %q", ErrUnsupportedContent, in.Type)
	}
	return nil
}

// evaluate is the pure part of an analysis; only ID and Timestamp vary
// between calls with the same input
func (a *Analyzer) evaluate(in models.AnalysisInput) *models.AnalysisResult {
	signals := a.extractor.Extract(in)
	verdict, score := a.scorer.Score(in.Type, signals)

	result := &models.AnalysisResult{
		ID:              uuid.New(),
		ContentType:     in.Type,
		Verdict:         verdict,
		Score:           score,
		Details:         a.selector.Details(in.Type, verdict, signals, score),
		Recommendations: a.selector.Recommend(in.Type, verdict, score),
		Signals:         signals.Clone(),
		Timestamp:       a.now().UTC(),
	}

	switch in.Type {
	case models.ContentTypeEmail:
		b := a.selector.EmailBreakdown(verdict, signals, score)
		result.Breakdown = &b
	case models.ContentTypeVideo:
		markers := 0
		if verdict == models.VerdictDeepfake {
			markers = FakeManipulationMarkers
		}
		result.ManipulationMarkers = &markers
	}

	return result
}

// persist saves and publishes rec without blocking the caller
func (a *Analyzer) persist(rec models.AnalysisRecord) {
	if a.store != nil {
		a.background("save", rec.Result.ContentType, func(ctx context.Context) error {
			return a.store.Save(ctx, rec)
		})
	}
	if a.publisher != nil {
		a.background("publish", rec.Result.ContentType, func(ctx context.Context) error {
			return a.publisher.PublishAnalysis(ctx, rec)
		})
	}
}

// background runs fn on a goroutine with its own deadline. The request
// context is not used so a client disconnect does not cancel the write.
func (a *Analyzer) background(op string, ct models.ContentType, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.PersistTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			a.logger.WithContentType(ct.String()).Error().Err(err).Str("op", op).Msg("analysis side effect failed")
		}
	}()
}
