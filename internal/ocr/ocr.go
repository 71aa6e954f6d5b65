package ocr

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"pixly/internal/imageinfo"
	"pixly/internal/logging"
)

// Maximum dimensions passed to the OCR engine.
const (
	MaxWidth  = 1920
	MaxHeight = 1080
)

// DefaultMinConfidence is the confidence at which preprocessing stops.
const DefaultMinConfidence = 60.0

// Step names recorded in Result.Steps.
const (
	StepResize    = "resize"
	StepGrayscale = "grayscale"
	StepContrast  = "contrast"
	StepSharpen   = "sharpen"
	StepThreshold = "threshold"
)

// Engine recognizes text in an image and reports a 0-100 confidence.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, float64, error)
}

// Result is the outcome of one extraction.
type Result struct {
	Text       string
	Confidence float64
	Steps      []string
	Elapsed    time.Duration
}

type strategy struct {
	name  string
	apply func(image.Image) image.Image
}

// Strategies run cumulatively in this order.
var strategies = []strategy{
	{name: StepGrayscale, apply: func(img image.Image) image.Image { return imaging.Grayscale(img) }},
	{name: StepContrast, apply: func(img image.Image) image.Image { return imaging.AdjustContrast(img, 100) }},
	{name: StepSharpen, apply: func(img image.Image) image.Image { return imaging.Sharpen(img, 1.0) }},
	{name: StepThreshold, apply: threshold},
}

// Extractor runs the engine with progressively stronger preprocessing until
// the confidence threshold is reached.
type Extractor struct {
	engine        Engine
	minConfidence float64
	logger        *slog.Logger
	now           func() time.Time
}

// New constructs an extractor. A non-positive minConfidence selects the default.
func New(engine Engine, minConfidence float64, logger *slog.Logger) *Extractor {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Extractor{
		engine:        engine,
		minConfidence: minConfidence,
		logger:        logging.NewComponentLogger(logger, "ocr"),
		now:           time.Now,
	}
}

// Extract decodes path and runs ExtractImage. Decode failures yield an empty
// result rather than an error.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	start := e.now()
	img, err := imageinfo.Open(path)
	if err != nil {
		logging.WithContext(ctx, e.logger).Debug("image decode failed; skipping text extraction",
			logging.String(logging.FieldEventType, "ocr_decode_failed"),
			logging.Error(err),
		)
		return Result{Elapsed: e.now().Sub(start)}
	}
	result := e.ExtractImage(ctx, img)
	result.Elapsed = e.now().Sub(start)
	return result
}

// ExtractImage runs the adaptive extraction over an already decoded image.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) Result {
	start := e.now()
	logger := logging.WithContext(ctx, e.logger)
	if img == nil || e.engine == nil {
		return Result{Elapsed: e.now().Sub(start)}
	}

	var steps []string
	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth || bounds.Dy() > MaxHeight {
		img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
		steps = append(steps, StepResize)
	}

	best := Result{Confidence: -1}
	attempt := func(current image.Image, applied []string) bool {
		text, conf, err := e.engine.Recognize(ctx, current)
		if err != nil {
			logger.Debug("ocr attempt failed",
				logging.String(logging.FieldEventType, "ocr_attempt_failed"),
				logging.Int("steps", len(applied)),
				logging.Error(err),
			)
			return false
		}
		conf = clamp(conf)
		logger.Debug("ocr attempt",
			logging.String(logging.FieldEventType, "ocr_attempt"),
			logging.Int("steps", len(applied)),
			logging.Float64("confidence", conf),
		)
		if conf > best.Confidence {
			best = Result{Text: text, Confidence: conf, Steps: append([]string(nil), applied...)}
		}
		return conf >= e.minConfidence
	}

	if !attempt(img, steps) {
		current := img
		for _, s := range strategies {
			if ctx.Err() != nil {
				break
			}
			current = s.apply(current)
			steps = append(steps, s.name)
			if attempt(current, steps) {
				break
			}
		}
	}

	if best.Confidence < 0 {
		return Result{Elapsed: e.now().Sub(start)}
	}
	best.Elapsed = e.now().Sub(start)
	return best
}

func threshold(img image.Image) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		var v uint8
		if lum >= 128 {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func clamp(conf float64) float64 {
	switch {
	case conf < 0:
		return 0
	case conf > 100:
		return 100
	default:
		return conf
	}
}
