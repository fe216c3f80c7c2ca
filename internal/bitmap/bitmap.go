// 包 bitmap：区域位图的只读像素视图与解码（TGA / PNG / BMP）
package bitmap

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/regions"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

// Grid：扫描所需的最小像素视图，原点在左上角，y 向下递增
type Grid interface {
	Width() int
	Height() int
	At(x, y int) regions.Color
}

// Image：解码后的位图，持有像素缓冲直到 Close
type Image struct {
	pix  *image.NRGBA
	w, h int
}

// FromImage 把任意 image.Image 转为以 (0,0) 为原点的 NRGBA 视图
// 约束：*image.NRGBA 直接复用，不复制；其他类型逐像素转换
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok {
		return &Image{pix: n, w: b.Dx(), h: b.Dy()}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return &Image{pix: dst, w: b.Dx(), h: b.Dy()}
}

// Decode 按格式名（tga / png / bmp）解码；空格式名交给 image.Decode 识别
func Decode(r io.Reader, format string) (*Image, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(format) {
	case "tga":
		img, err = tga.Decode(r)
	case "png":
		img, err = png.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "":
		img, _, err = image.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported bitmap format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s bitmap: %w", format, err)
	}
	return FromImage(img), nil
}

// Open：按扩展名选择解码器读取位图文件
// 约束：调用方负责 Close；扫描中止时也应通过 defer 释放
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "tga" && format != "png" && format != "bmp" {
		format = ""
	}
	m, err := Decode(bufio.NewReader(f), format)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	logger.L().Debug("bitmap_open", "path", path, "width", m.w, "height", m.h)
	return m, nil
}

func (m *Image) Width() int  { return m.w }
func (m *Image) Height() int { return m.h }

// At 返回像素颜色（忽略 alpha）；关闭后调用会 panic
func (m *Image) At(x, y int) regions.Color {
	if m.pix == nil {
		panic("bitmap: At called after Close")
	}
	i := m.pix.PixOffset(m.pix.Rect.Min.X+x, m.pix.Rect.Min.Y+y)
	p := m.pix.Pix[i : i+3 : i+3]
	return regions.Color{R: int(p[0]), G: int(p[1]), B: int(p[2])}
}

// Close 释放像素缓冲，可重复调用
func (m *Image) Close() error {
	m.pix = nil
	return nil
}

// Closed 报告像素缓冲是否已释放
func (m *Image) Closed() bool { return m.pix == nil }
