package plate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CarlosSantos19/parqueadero-app/internal/platform/metrics"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

// batchParallelism bounds concurrent OCR calls in a batch.
const batchParallelism = 4

// RawRecognition is the opaque OCR engine output: recognized text plus a
// confidence score on a 0-100 scale.
type RawRecognition struct {
	Text       string
	Confidence float64
}

// Recognizer is the port to the external OCR engine.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (RawRecognition, error)
}

// Service runs recognition through the OCR port and normalizes the output.
type Service struct {
	recognizer Recognizer
	normalizer *Normalizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(recognizer Recognizer, normalizer *Normalizer, opts ...Option) *Service {
	if recognizer == nil {
		panic("plate.NewService: recognizer is required")
	}
	if normalizer == nil {
		normalizer = NewNormalizer(DefaultConfig())
	}
	s := &Service{
		recognizer: recognizer,
		normalizer: normalizer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecognizePlate runs one image through OCR and normalization. Only
// recognizer failures surface as errors; an image without a readable plate
// is a Result with Success=false.
func (s *Service) RecognizePlate(ctx context.Context, image []byte) (Result, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRecognitionLatency(time.Since(start).Seconds())
		}
	}()

	if len(image) == 0 {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "image is required")
	}

	raw, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "plate recognition unavailable")
	}

	result := s.normalizer.Normalize(raw.Text, raw.Confidence)
	s.recordOutcome(result)
	return result, nil
}

// BatchItem is the outcome for a single image in a batch.
type BatchItem struct {
	Index  int     `json:"index"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// RecognizeBatch processes each image independently: one unreadable or
// failing image never aborts the rest. Items come back in input order.
func (s *Service) RecognizeBatch(ctx context.Context, images [][]byte) []BatchItem {
	items := make([]BatchItem, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for i, image := range images {
		i, image := i, image
		g.Go(func() error {
			items[i] = BatchItem{Index: i}
			result, err := s.RecognizePlate(gctx, image)
			if err != nil {
				// Isolate the failure on its own item.
				items[i].Error = err.Error()
				if s.logger != nil {
					s.logger.WarnContext(gctx, "batch image recognition failed",
						"index", i,
						"error", err,
					)
				}
				return nil
			}
			items[i].Result = &result
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func (s *Service) recordOutcome(result Result) {
	if s.metrics == nil {
		return
	}
	switch {
	case result.PatternMatch:
		s.metrics.IncrementRecognitionResult("pattern")
	case result.Success:
		s.metrics.IncrementRecognitionResult("fallback")
	default:
		s.metrics.IncrementRecognitionResult("none")
	}
}
