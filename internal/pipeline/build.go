package pipeline

import (
	"context"
	"log/slog"

	"pixly/internal/classifier"
	"pixly/internal/config"
	"pixly/internal/dedup"
	"pixly/internal/ocr"
	"pixly/internal/organizer"
	"pixly/internal/services/tesseract"
	"pixly/internal/store"
)

// NewFromConfig wires the production collaborators for cfg: tesseract OCR,
// the configured classifier backend, the organizer, the store and duplicate
// detection.
func NewFromConfig(ctx context.Context, cfg *config.Config, st *store.Store, metrics *Metrics, logger *slog.Logger) (*Processor, error) {
	engine, err := tesseract.New(cfg.OCR.TesseractPath, cfg.OCR.Language, cfg.OCRTimeout())
	if err != nil {
		return nil, err
	}
	cls, err := classifier.NewFromConfig(ctx, cfg, classifier.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	deps := Dependencies{
		Extractor:  ocr.New(engine, cfg.OCR.MinConfidence, logger),
		Classifier: cls,
		Placer:     organizer.New(cfg.Paths.ScreenshotsDir, logger),
		Store:      st,
		Dedup:      dedup.NewDetector(st, cfg.Pipeline.DuplicateThreshold, logger),
	}
	return NewProcessor(deps, metrics, logger), nil
}
