package testsupport

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// PatternImage draws a deterministic 8x8 grid of gray blocks. Different
// seeds produce visually distinct images.
func PatternImage(w, h, seed int) image.Image {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)*31+7))
	var levels [8][8]uint8
	for by := range levels {
		for bx := range levels[by] {
			levels[by][bx] = uint8(20 + rng.IntN(216))
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		by := y * 8 / h
		for x := 0; x < w; x++ {
			v := levels[by][x*8/w]
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// WritePNG writes a patterned PNG of the given size to path.
func WritePNG(t testing.TB, path string, w, h, seed int) {
	t.Helper()
	writeImage(t, path, func(f *os.File) error { return png.Encode(f, PatternImage(w, h, seed)) })
}

// WriteJPEG writes a patterned JPEG of the given size and quality to path.
func WriteJPEG(t testing.TB, path string, w, h, seed, quality int) {
	t.Helper()
	writeImage(t, path, func(f *os.File) error {
		return jpeg.Encode(f, PatternImage(w, h, seed), &jpeg.Options{Quality: quality})
	})
}

func writeImage(t testing.TB, path string, encode func(*os.File) error) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}
