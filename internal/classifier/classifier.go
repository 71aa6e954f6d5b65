package classifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"pixly/internal/logging"
	"pixly/internal/services"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultMinTextLength    = 5
	DefaultMinOCRConfidence = 30.0
	DefaultMinInterval      = 4 * time.Second
	DefaultMaxAttempts      = 2
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = time.Minute
)

// Completer is a categorization backend.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}

// Options configures a Classifier.
type Options struct {
	// Completer is nil when AI categorization is disabled.
	Completer        Completer
	MinInterval      time.Duration
	MinTextLength    int
	MinOCRConfidence float64
	// MaxAttempts bounds backend calls per screenshot. Only ErrTransient
	// failures are retried, and each retry waits for the limiter again.
	MaxAttempts      int
	Logger           *slog.Logger
}

// Classifier assigns a category and description to OCR text, using the AI
// backend when the text is good enough and keyword matching otherwise.
type Classifier struct {
	completer        Completer
	minTextLength    int
	minOCRConfidence float64
	maxAttempts      int
	logger           *slog.Logger

	// callMu serializes backend calls; limiter spaces their starts.
	callMu  sync.Mutex
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// New constructs a classifier.
func New(opts Options) *Classifier {
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = DefaultMinTextLength
	}
	if opts.MinOCRConfidence <= 0 {
		opts.MinOCRConfidence = DefaultMinOCRConfidence
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	logger := logging.NewComponentLogger(opts.Logger, "classifier")

	c := &Classifier{
		completer:        opts.Completer,
		minTextLength:    opts.MinTextLength,
		minOCRConfidence: opts.MinOCRConfidence,
		maxAttempts:      opts.MaxAttempts,
		logger:           logger,
		limiter:          rate.NewLimiter(limit, 1),
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("categorization circuit breaker changed state",
				logging.String(logging.FieldEventType, "circuit_breaker_state_change"),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldErrorHint, "check AI provider status and API key"),
				logging.String(logging.FieldImpact, "screenshots are categorized by keywords while the breaker is open"),
			)
		},
	})
	return c
}

// AIEnabled reports whether a backend is configured.
func (c *Classifier) AIEnabled() bool {
	return c.completer != nil
}

// Classify always returns a result. Backend failures of any kind fall back
// to keyword matching.
func (c *Classifier) Classify(ctx context.Context, text string, ocrConfidence float64) Result {
	trimmed := strings.TrimSpace(text)
	if c.completer == nil || ocrConfidence < c.minOCRConfidence || utf8.RuneCountInString(trimmed) < c.minTextLength {
		return Fallback(trimmed)
	}

	logger := logging.WithContext(ctx, c.logger)
	result, err := c.classifyAI(ctx, trimmed)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "AI categorization failed; using keyword fallback",
			logging.String(logging.FieldEventType, "classifier_fallback"),
			logging.String("backend", c.completer.Name()),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "category comes from keyword matching"),
			logging.Error(err),
		)
		return Fallback(trimmed)
	}
	logger.Debug("AI categorization complete",
		logging.String(logging.FieldEventType, "classifier_ai"),
		logging.String("category", string(result.Category)),
		logging.Float64("confidence", result.Confidence),
	)
	return result
}

func (c *Classifier) classifyAI(ctx context.Context, text string) (Result, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	prompt := userPrompt(text)
	for attempt := 1; ; attempt++ {
		// An open breaker would reject the call anyway; skip the limiter wait.
		if c.breaker.State() == gobreaker.StateOpen {
			return Result{}, gobreaker.ErrOpenState
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
		content, err := c.breaker.Execute(func() (string, error) {
			return c.completer.Complete(ctx, systemPrompt, prompt)
		})
		if err != nil {
			if attempt < c.maxAttempts && errors.Is(err, services.ErrTransient) {
				continue
			}
			return Result{}, err
		}
		result, err := parseResponse(content)
		if err != nil {
			return Result{}, services.Wrap(services.ErrValidation, "classify", "decode response", "", err)
		}
		return result, nil
	}
}
