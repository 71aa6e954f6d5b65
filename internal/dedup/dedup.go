package dedup

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/bits"
	"strconv"
	"strings"
	"sync"

	"github.com/corona10/goimagehash"

	"pixly/internal/imageinfo"
	"pixly/internal/logging"
	"pixly/internal/services"
	"pixly/internal/store"
)

// DefaultThreshold is the largest Hamming distance still treated as a duplicate.
const DefaultThreshold = 5

// Fingerprint is a 64-bit perceptual hash.
type Fingerprint uint64

// String renders the fingerprint as 16 lowercase hex characters.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseFingerprint reverses Fingerprint.String.
func ParseFingerprint(value string) (Fingerprint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(value), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fingerprint %q: %w", value, err)
	}
	return Fingerprint(v), nil
}

// Compute returns the DCT perceptual hash of img.
func Compute(img image.Image) (Fingerprint, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "dedup", "perception hash", "", err)
	}
	return Fingerprint(hash.GetHash()), nil
}

// FingerprintFile decodes path and computes its fingerprint.
func FingerprintFile(ctx context.Context, path string) (Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	img, err := imageinfo.Open(path)
	if err != nil {
		return 0, err
	}
	return Compute(img)
}

// Distance is the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}

// IsDuplicate reports the first stored fingerprint within DefaultThreshold
// of fp, returning its screenshot id.
func IsDuplicate(fp Fingerprint, existing []store.Fingerprint) (bool, int64) {
	return match(fp, existing, DefaultThreshold, 0)
}

func match(fp Fingerprint, existing []store.Fingerprint, threshold int, self int64) (bool, int64) {
	for _, candidate := range existing {
		if candidate.ScreenshotID == self {
			continue
		}
		other, err := ParseFingerprint(candidate.Hash)
		if err != nil {
			continue
		}
		if Distance(fp, other) <= threshold {
			return true, candidate.ScreenshotID
		}
	}
	return false, 0
}

// Store is the persistence the detector needs.
type Store interface {
	Fingerprints(ctx context.Context) ([]store.Fingerprint, error)
	InsertFingerprint(ctx context.Context, fp store.Fingerprint) error
	MarkDuplicate(ctx context.Context, id, original int64) error
}

// Verdict is the outcome of Check.
type Verdict struct {
	Fingerprint Fingerprint
	Duplicate   bool
	DuplicateOf int64
}

// Detector flags near-duplicate screenshots. It only updates records; files
// are never touched.
type Detector struct {
	store     Store
	threshold int
	logger    *slog.Logger

	// mu makes load, compare and insert atomic across workers so two
	// near-identical files processed together still see each other.
	mu sync.Mutex
}

// NewDetector constructs a detector. A non-positive threshold selects DefaultThreshold.
func NewDetector(st Store, threshold int, logger *slog.Logger) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{store: st, threshold: threshold, logger: logging.NewComponentLogger(logger, "dedup")}
}

// Check fingerprints the file for recordID, marks the record when it matches
// an earlier one, and stores the new fingerprint.
func (d *Detector) Check(ctx context.Context, recordID int64, path string) (Verdict, error) {
	fp, err := FingerprintFile(ctx, path)
	if err != nil {
		return Verdict{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	existing, err := d.store.Fingerprints(ctx)
	if err != nil {
		return Verdict{}, services.Wrap(services.ErrTransient, "dedup", "load fingerprints", "", err)
	}

	verdict := Verdict{Fingerprint: fp}
	verdict.Duplicate, verdict.DuplicateOf = match(fp, existing, d.threshold, recordID)

	record := store.Fingerprint{ScreenshotID: recordID, Hash: fp.String()}
	if verdict.Duplicate {
		if err := d.store.MarkDuplicate(ctx, recordID, verdict.DuplicateOf); err != nil {
			return verdict, services.Wrap(services.ErrTransient, "dedup", "mark duplicate", "", err)
		}
		original := verdict.DuplicateOf
		record.DuplicateOf = &original
		logging.WithContext(ctx, d.logger).Info("duplicate screenshot detected",
			logging.String(logging.FieldEventType, "duplicate_detected"),
			logging.Int64("duplicate_of", original),
			logging.String("fingerprint", fp.String()),
		)
	}
	if err := d.store.InsertFingerprint(ctx, record); err != nil {
		return verdict, services.Wrap(services.ErrTransient, "dedup", "store fingerprint", "", err)
	}
	return verdict, nil
}
