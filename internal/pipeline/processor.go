package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pixly/internal/classifier"
	"pixly/internal/dedup"
	"pixly/internal/imageinfo"
	"pixly/internal/logging"
	"pixly/internal/ocr"
	"pixly/internal/organizer"
	"pixly/internal/services"
	"pixly/internal/store"
)

// TextExtractor produces OCR text for an image file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) ocr.Result
}

// ContentClassifier categorizes OCR text.
type ContentClassifier interface {
	Classify(ctx context.Context, text string, ocrConfidence float64) classifier.Result
}

// FilePlacer moves a file to its final location.
type FilePlacer interface {
	Place(ctx context.Context, source, category, description string, ts time.Time) (organizer.Placement, error)
}

// RecordStore persists processed screenshots.
type RecordStore interface {
	Insert(ctx context.Context, rec *store.Record) (int64, error)
	HasPath(ctx context.Context, path string) (bool, error)
}

// DuplicateChecker flags near-duplicate screenshots.
type DuplicateChecker interface {
	Check(ctx context.Context, recordID int64, path string) (dedup.Verdict, error)
}

// Dependencies are the collaborators a Processor sequences.
type Dependencies struct {
	Extractor  TextExtractor
	Classifier ContentClassifier
	Placer     FilePlacer
	Store      RecordStore
	Dedup      DuplicateChecker
}

// Outcome reports what happened to one screenshot.
type Outcome struct {
	Path           string
	RequestID      string
	State          State
	FailedStage    string
	RecordID       int64
	Placement      organizer.Placement
	Extraction     ocr.Result
	Classification classifier.Result
	Duplicate      bool
	DuplicateOf    int64
	Elapsed        time.Duration
	Err            error
}

// Processor runs a single screenshot through the pipeline stages.
type Processor struct {
	deps    Dependencies
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewProcessor constructs a processor. metrics may be nil.
func NewProcessor(deps Dependencies, metrics *Metrics, logger *slog.Logger) *Processor {
	return &Processor{
		deps:    deps,
		metrics: metrics,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		now:     time.Now,
	}
}

type job struct {
	outcome Outcome
	info    imageinfo.Info
	ts      time.Time
}

// Process runs path through every stage until it is done or a stage fails.
// Failures are reported in Outcome.Err; the pipeline never panics on a bad file.
func (p *Processor) Process(ctx context.Context, path string) Outcome {
	start := p.now()
	requestID := uuid.NewString()
	ctx = services.WithRequestID(services.WithPath(ctx, path), requestID)
	logger := logging.WithContext(ctx, p.logger)

	p.metrics.startFile()
	j := &job{outcome: Outcome{Path: path, RequestID: requestID}}

	state, err := p.receive(ctx, j)
	if err != nil {
		j.outcome.FailedStage = StageReceive
	}
	for err == nil && !state.Terminal() {
		if state == StatePlaced {
			// The file has moved; finish recording it even if shutdown starts.
			ctx = context.WithoutCancel(ctx)
		}
		stage := stageFor(state)
		stageStart := p.now()
		var next State
		next, err = p.step(services.WithStage(ctx, stage), j, state)
		if stage != "" {
			p.metrics.observeStage(stage, p.now().Sub(stageStart))
		}
		if err != nil {
			j.outcome.FailedStage = stage
			break
		}
		state = next
	}
	if err != nil {
		state = StateErrored
		j.outcome.Err = err
	}
	j.outcome.State = state
	j.outcome.Elapsed = p.now().Sub(start)
	p.metrics.finishFile(state)

	switch {
	case err == nil:
		logger.Info("screenshot processed",
			logging.String(logging.FieldEventType, "screenshot_processed"),
			logging.Int64(logging.FieldRecordID, j.outcome.RecordID),
			logging.String("destination", j.outcome.Placement.Path),
			logging.String("category", string(j.outcome.Classification.Category)),
			logging.String("classification_source", string(j.outcome.Classification.Source)),
			logging.Bool("duplicate", j.outcome.Duplicate),
			logging.Duration("elapsed", j.outcome.Elapsed),
		)
	case errors.Is(err, context.Canceled):
		logger.Info("screenshot processing interrupted by shutdown; file left in place",
			logging.String(logging.FieldEventType, "screenshot_interrupted"),
			logging.String(logging.FieldStage, j.outcome.FailedStage),
		)
	default:
		logging.ErrorWithContext(logger, "screenshot processing failed", "screenshot_failed",
			logging.String(logging.FieldStage, j.outcome.FailedStage),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.Error(err),
		)
	}
	return j.outcome
}

func (p *Processor) step(ctx context.Context, j *job, state State) (State, error) {
	switch state {
	case StateReceived:
		return p.extract(ctx, j)
	case StateExtracted:
		return p.classify(ctx, j)
	case StateClassified:
		return p.place(ctx, j)
	case StatePlaced:
		return p.persist(ctx, j)
	case StatePersisted:
		return p.deduplicate(ctx, j)
	case StateDeduplicated:
		return StateDone, nil
	default:
		return StateErrored, fmt.Errorf("no transition from state %q", state)
	}
}

func (p *Processor) receive(ctx context.Context, j *job) (State, error) {
	path := j.outcome.Path
	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StateErrored, services.Wrap(services.ErrNotFound, StageReceive, "stat", path, err)
		}
		return StateErrored, services.Wrap(services.ErrValidation, StageReceive, "stat", path, err)
	}
	if !stat.Mode().IsRegular() {
		return StateErrored, services.Wrap(services.ErrValidation, StageReceive, "stat", "not a regular file", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return StateErrored, services.Wrap(services.ErrValidation, StageReceive, "open", "file unreadable", err)
	}
	_ = f.Close()

	j.ts = p.now()
	j.info = imageinfo.Info{Path: path, Size: stat.Size(), ModTime: stat.ModTime()}
	if info, err := imageinfo.Probe(path); err == nil {
		j.info = info
	} else {
		logging.WithContext(ctx, p.logger).Debug("image header unreadable; continuing with file metadata",
			logging.String(logging.FieldEventType, "probe_failed"),
			logging.Error(err),
		)
	}
	return StateReceived, nil
}

func (p *Processor) extract(ctx context.Context, j *job) (State, error) {
	j.outcome.Extraction = p.deps.Extractor.Extract(ctx, j.outcome.Path)
	logging.WithContext(ctx, p.logger).Debug("text extracted",
		logging.String(logging.FieldEventType, "ocr_complete"),
		logging.Float64("confidence", j.outcome.Extraction.Confidence),
		logging.Int("characters", len(j.outcome.Extraction.Text)),
		logging.Any("steps", j.outcome.Extraction.Steps),
	)
	return StateExtracted, nil
}

func (p *Processor) classify(ctx context.Context, j *job) (State, error) {
	result := p.deps.Classifier.Classify(ctx, j.outcome.Extraction.Text, j.outcome.Extraction.Confidence)
	j.outcome.Classification = result
	p.metrics.classified(string(result.Source))
	return StateClassified, nil
}

func (p *Processor) place(ctx context.Context, j *job) (State, error) {
	if err := ctx.Err(); err != nil {
		return StateErrored, err
	}
	c := j.outcome.Classification
	placement, err := p.deps.Placer.Place(ctx, j.outcome.Path, string(c.Category), c.Description, j.ts)
	if err != nil {
		return StateErrored, err
	}
	j.outcome.Placement = placement
	return StatePlaced, nil
}

func (p *Processor) persist(ctx context.Context, j *job) (State, error) {
	c := j.outcome.Classification
	ex := j.outcome.Extraction
	rec := &store.Record{
		FilePath:             j.outcome.Placement.Path,
		OriginalPath:         j.outcome.Path,
		OriginalName:         filepath.Base(j.outcome.Path),
		NewName:              j.outcome.Placement.Name,
		Category:             string(c.Category),
		Description:          c.Description,
		OCRText:              ex.Text,
		OCRConfidence:        ex.Confidence,
		AIConfidence:         c.Confidence,
		ClassificationSource: string(c.Source),
		Tags:                 c.Tags,
		PreprocessingSteps:   ex.Steps,
		FileSize:             j.info.Size,
		Width:                j.info.Width,
		Height:               j.info.Height,
		CreatedAt:            j.info.ModTime,
		CapturedAt:           j.info.CapturedAt,
		ProcessedAt:          j.ts,
	}
	id, err := p.deps.Store.Insert(ctx, rec)
	if err != nil {
		return StateErrored, services.Wrap(services.ErrExternalTool, StagePersist, "insert record",
			fmt.Sprintf("file already moved to %s", j.outcome.Placement.Path), err)
	}
	j.outcome.RecordID = id
	return StatePersisted, nil
}

func (p *Processor) deduplicate(ctx context.Context, j *job) (State, error) {
	if p.deps.Dedup == nil {
		return StateDeduplicated, nil
	}
	ctx = services.WithRecordID(ctx, j.outcome.RecordID)
	verdict, err := p.deps.Dedup.Check(ctx, j.outcome.RecordID, j.outcome.Placement.Path)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "duplicate check failed", "dedup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "screenshot saved without duplicate detection"),
		)
		return StateDeduplicated, nil
	}
	j.outcome.Duplicate = verdict.Duplicate
	j.outcome.DuplicateOf = verdict.DuplicateOf
	return StateDeduplicated, nil
}
