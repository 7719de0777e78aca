// Package analyzer wires the analysis pipeline: clean the raw input,
// compute metrics, classify, predict, and optionally persist the result.
// Everything is constructed explicitly and passed by reference; there are
// no package-level singletons.
package analyzer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bitprof/internal/classify"
	"bitprof/internal/metrics"
	"bitprof/internal/predict"
	"bitprof/internal/sequence"
	"bitprof/internal/store"
)

// Result is one completed analysis. Immutable after creation; the store
// persists a separate projection and never mutates it.
type Result struct {
	ID             string
	Sequence       sequence.Sequence
	Metrics        metrics.Metrics
	Classification classify.Classification
	Prediction     string
	Confidence     float64
	CreatedAt      time.Time

	// Degraded is set when the pipeline recovered from an internal fault
	// and only the sequence length and a truncated sample are reliable.
	Degraded bool
}

// Summary renders a one-line description of the result.
func (r *Result) Summary() string {
	if r.Degraded {
		return fmt.Sprintf("degraded analysis of %d symbols (%s)",
			r.Sequence.Len(), r.Sequence.Sample(16))
	}
	return fmt.Sprintf("%s pattern over %d symbols, entropy %.3f, complexity %.3f",
		r.Classification.PatternType(), r.Sequence.Len(),
		r.Metrics.Entropy, r.Classification.ComplexityLevel)
}

// Analyzer runs the pipeline. Construct one per process with New.
type Analyzer struct {
	store         *store.RecordStore
	predictor     *predict.Predictor
	log           *zap.Logger
	predictLength int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPredictor overrides the predictor, e.g. with a seeded source.
func WithPredictor(p *predict.Predictor) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.predictor = p
		}
	}
}

// WithPredictLength sets the prediction horizon.
func WithPredictLength(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.predictLength = n
		}
	}
}

// New creates an Analyzer. The store may be nil when persistence is not
// wanted; AnalyzeAndSave then degrades to Analyze.
func New(st *store.RecordStore, log *zap.Logger, opts ...Option) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analyzer{
		store:         st,
		predictor:     predict.New(),
		log:           log,
		predictLength: predict.DefaultLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline over raw input. Empty cleaned input is the
// one hard failure: sequence.ErrEmptySequence is returned to the caller.
// Any other internal fault is downgraded to a Degraded result instead of a
// crash.
func (a *Analyzer) Analyze(raw string) (result *Result, err error) {
	seq, err := sequence.New(raw)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("analysis pipeline fault, returning degraded result",
				zap.Any("fault", r), zap.Int("length", seq.Len()))
			result = &Result{
				ID:        uuid.NewString(),
				Sequence:  seq,
				CreatedAt: time.Now(),
				Degraded:  true,
			}
			err = nil
		}
	}()

	m := metrics.Compute(seq.Clean())
	c := classify.Classify(seq.Clean(), m)

	result = &Result{
		ID:             uuid.NewString(),
		Sequence:       seq,
		Metrics:        m,
		Classification: c,
		Prediction:     a.predictor.Predict(seq.Clean(), c, a.predictLength),
		Confidence:     classify.Confidence(m, c),
		CreatedAt:      time.Now(),
	}

	a.log.Debug("analysis complete",
		zap.String("analysis_id", result.ID),
		zap.Int("length", seq.Len()),
		zap.String("pattern_type", c.PatternType()),
		zap.Float64("entropy", m.Entropy))
	return result, nil
}

// AnalyzeAndSave analyzes raw input and persists the result. Persistence
// failures propagate; the analysis result is still returned alongside.
func (a *Analyzer) AnalyzeAndSave(raw string) (*Result, store.ModelRecord, error) {
	result, err := a.Analyze(raw)
	if err != nil {
		return nil, store.ModelRecord{}, err
	}
	if a.store == nil || result.Degraded {
		return result, store.ModelRecord{}, nil
	}

	rec, err := a.store.Save(store.Analysis{
		Clean:           result.Sequence.Clean(),
		PatternType:     result.Classification.PatternType(),
		Entropy:         result.Metrics.Entropy,
		ComplexityLevel: result.Classification.ComplexityLevel,
		Burstiness:      result.Metrics.Burstiness,
	})
	if err != nil {
		return result, store.ModelRecord{}, fmt.Errorf("persist analysis: %w", err)
	}
	return result, rec, nil
}
