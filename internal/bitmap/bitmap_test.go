package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"rtw-settlements/internal/regions"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

// fixture: 3x2，第一行 黑/红/白，第二行 海色/绿/蓝
func fixture() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{0, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{200, 10, 10, 255})
	img.Set(2, 0, color.NRGBA{255, 255, 255, 255})
	img.Set(0, 1, color.NRGBA{41, 140, 200, 255})
	img.Set(1, 1, color.NRGBA{10, 200, 10, 255})
	img.Set(2, 1, color.NRGBA{10, 20, 30, 255})
	return img
}

func checkFixture(t *testing.T, g Grid) {
	t.Helper()
	if g.Width() != 3 || g.Height() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", g.Width(), g.Height())
	}
	cases := []struct {
		x, y int
		want regions.Color
	}{
		{0, 0, regions.Color{R: 0, G: 0, B: 0}},
		{1, 0, regions.Color{R: 200, G: 10, B: 10}},
		{2, 0, regions.Color{R: 255, G: 255, B: 255}},
		{0, 1, regions.Color{R: 41, G: 140, B: 200}},
		{2, 1, regions.Color{R: 10, G: 20, B: 30}},
	}
	for _, c := range cases {
		if got := g.At(c.x, c.y); got != c.want {
			t.Errorf("At(%d,%d)=%v want %v", c.x, c.y, got, c.want)
		}
	}
}

func writeFile(t *testing.T, name string, enc func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := enc(&buf); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen_Formats(t *testing.T) {
	src := fixture()
	paths := map[string]string{
		"tga": writeFile(t, "map_regions.tga", func(b *bytes.Buffer) error { return tga.Encode(b, src) }),
		"png": writeFile(t, "map_regions.png", func(b *bytes.Buffer) error { return png.Encode(b, src) }),
		"bmp": writeFile(t, "map_regions.BMP", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }),
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			img, err := Open(path)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer img.Close()
			checkFixture(t, img)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.tga")); err == nil {
		t.Errorf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Errorf("expected decode error")
	}
	if _, err := Decode(bytes.NewReader(nil), "gif"); err == nil {
		t.Errorf("expected unsupported format error")
	}
}

func TestFromImage_ConvertsOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(6, 5, color.RGBA{1, 2, 3, 255})
	img := FromImage(src)
	if img.Width() != 2 || img.Height() != 1 {
		t.Fatalf("unexpected size %dx%d", img.Width(), img.Height())
	}
	if got := img.At(1, 0); got != (regions.Color{R: 1, G: 2, B: 3}) {
		t.Errorf("unexpected pixel %v", got)
	}
}

func TestFromImage_SubImageNRGBA(t *testing.T) {
	sub := fixture().SubImage(image.Rect(1, 1, 3, 2)).(*image.NRGBA)
	img := FromImage(sub)
	if got := img.At(1, 0); got != (regions.Color{R: 10, G: 20, B: 30}) {
		t.Errorf("unexpected pixel %v", got)
	}
}

func TestClose_ReleasesPixels(t *testing.T) {
	img := FromImage(fixture())
	if img.Closed() {
		t.Fatalf("fresh image reported closed")
	}
	_ = img.Close()
	_ = img.Close()
	if !img.Closed() {
		t.Fatalf("expected closed")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on At after Close")
		}
	}()
	img.At(0, 0)
}
