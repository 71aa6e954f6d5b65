package organizer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pixly/internal/fileutil"
	"pixly/internal/imageinfo"
	"pixly/internal/logging"
	"pixly/internal/services"
	"pixly/internal/textutil"
)

const (
	// MaxNameDescription bounds the description part of generated filenames.
	MaxNameDescription = 40
	// MaxCounterSuffix is the highest numeric suffix tried before hashing.
	MaxCounterSuffix = 101

	filenameDateLayout = "2006_Jan_2"
	defaultExtension   = "png"
	moveAttempts       = 3
)

// Placement is where a screenshot ended up.
type Placement struct {
	Path string
	Name string
}

// Placer moves screenshots into <root>/<year>/<month>/<category>/ under a
// unique, descriptive filename. It never overwrites an existing file.
type Placer struct {
	root   string
	logger *slog.Logger

	mu       sync.Mutex
	dirLocks map[string]*sync.Mutex
}

// New constructs a placer rooted at the screenshots directory.
func New(root string, logger *slog.Logger) *Placer {
	return &Placer{
		root:     root,
		logger:   logging.NewComponentLogger(logger, "organizer"),
		dirLocks: make(map[string]*sync.Mutex),
	}
}

// Root returns the screenshots directory.
func (p *Placer) Root() string {
	return p.root
}

// FileName builds Screenshot_<YYYY>_<Mon>_<D>_<description>.<ext>.
func FileName(ts time.Time, description, ext string) string {
	desc := textutil.Truncate(textutil.SanitizeDescription(description), MaxNameDescription)
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = defaultExtension
	}
	return fmt.Sprintf("Screenshot_%s_%s.%s", ts.Format(filenameDateLayout), desc, ext)
}

// Directory returns <root>/<YYYY>/<Month>/<category>.
func Directory(root string, ts time.Time, category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		category = "Other"
	}
	return filepath.Join(root, ts.Format("2006"), ts.Format("January"), category)
}

// Place moves source into its categorized directory and returns the final
// location. On failure the source is left where it was.
func (p *Placer) Place(ctx context.Context, source, category, description string, ts time.Time) (Placement, error) {
	if _, err := os.Stat(source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Placement{}, services.Wrap(services.ErrNotFound, "place", "stat source", source, err)
		}
		return Placement{}, services.Wrap(services.ErrExternalTool, "place", "stat source", source, err)
	}

	dir := Directory(p.root, ts, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Placement{}, services.Wrap(services.ErrExternalTool, "place", "create directory", dir, err)
	}
	base := FileName(ts, description, imageinfo.Extension(source))

	lock := p.dirLock(dir)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < moveAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Placement{}, services.Wrap(services.ErrTransient, "place", "move", "cancelled", err)
		}
		target, err := ResolveName(dir, base, source)
		if err != nil {
			return Placement{}, err
		}
		err = fileutil.MoveNoClobber(source, target)
		if err == nil {
			logging.WithContext(ctx, p.logger).Debug("screenshot placed",
				logging.String(logging.FieldEventType, "screenshot_placed"),
				logging.String("destination", target),
			)
			return Placement{Path: target, Name: filepath.Base(target)}, nil
		}
		if !errors.Is(err, fileutil.ErrDestinationExists) {
			return Placement{}, services.Wrap(services.ErrExternalTool, "place", "move", target, err)
		}
		lastErr = err
	}
	return Placement{}, services.Wrap(services.ErrExternalTool, "place", "resolve collision", base, lastErr)
}

// ResolveName returns a path in dir for base that does not exist yet. It
// tries base, then base_2 through base_101, then a six-character hash suffix
// derived from the proposed path, the source path and the source content.
func ResolveName(dir, base, source string) (string, error) {
	candidate := filepath.Join(dir, base)
	free, err := available(candidate)
	if err != nil || free {
		return candidate, err
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 2; n <= MaxCounterSuffix; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		free, err = available(candidate)
		if err != nil || free {
			return candidate, err
		}
	}

	candidate = filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, hashSuffix(filepath.Join(dir, base), source), ext))
	free, err = available(candidate)
	if err != nil {
		return "", err
	}
	if !free {
		return "", services.Wrap(services.ErrExternalTool, "place", "resolve collision", "all candidate names taken", fileutil.ErrDestinationExists)
	}
	return candidate, nil
}

// hashSuffix mixes the file bytes into the suffix so a source name that
// recurs (image.png from a browser) still yields a fresh candidate.
func hashSuffix(target, source string) string {
	h := md5.New()
	io.WriteString(h, target)
	io.WriteString(h, source)
	if f, err := os.Open(source); err == nil {
		_, _ = io.Copy(h, f)
		f.Close()
	}
	return hex.EncodeToString(h.Sum(nil))[:6]
}

func available(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	default:
		return false, services.Wrap(services.ErrExternalTool, "place", "check destination", path, err)
	}
}

func (p *Placer) dirLock(dir string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.dirLocks[dir]
	if !ok {
		lock = &sync.Mutex{}
		p.dirLocks[dir] = lock
	}
	return lock
}
