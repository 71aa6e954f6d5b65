package imageinfo

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"pixly/internal/services"
)

// Info describes a screenshot file on disk.
type Info struct {
	Path       string
	Format     string
	Width      int
	Height     int
	Size       int64
	ModTime    time.Time
	CapturedAt *time.Time
}

var supportedExtensions = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
}

// IsCandidate reports whether name looks like a screenshot Pixly should
// process: a .png/.jpg/.jpeg extension (any case) and not a hidden or
// temporary file.
func IsCandidate(name string) bool {
	base := filepath.Base(name)
	if base == "" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// Extension returns the lower-cased extension without the leading dot.
func Extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Probe reads image headers and, for JPEG files, the EXIF capture time.
func Probe(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, services.Wrap(services.ErrNotFound, "probe", "stat", path, err)
		}
		return Info{}, services.Wrap(services.ErrTransient, "probe", "stat", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrTransient, "probe", "open", path, err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return Info{}, services.Wrap(services.ErrValidation, "probe", "decode header", path, err)
	}

	info := Info{
		Path:    path,
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
	}
	if format == "jpeg" {
		if _, err := file.Seek(0, 0); err == nil {
			if x, err := exif.Decode(file); err == nil {
				if ts, err := x.DateTime(); err == nil && !ts.IsZero() {
					info.CapturedAt = &ts
				}
			}
		}
	}
	return info, nil
}

// Open decodes the full image, applying EXIF orientation when present.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "decode", "open image", path, err)
		}
		return nil, services.Wrap(services.ErrValidation, "decode", "open image", path, err)
	}
	return img, nil
}

// SavePNG writes img to path in PNG format.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save png %s: %w", path, err)
	}
	return nil
}
