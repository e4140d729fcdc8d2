package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// ErrNotImage 输入内容无法解码为图片
var ErrNotImage = errors.New("payload is not a decodable image")

// Options 预处理参数
type Options struct {
	MaxDimension int // 最长边像素上限
	Quality      int // JPEG 质量
}

// Image 预处理后的图片
type Image struct {
	Data     []byte // JPEG 或原始字节
	MIMEType string
	Width    int
	Height   int
	// GPS 照片 EXIF 中的坐标，没有则为 nil
	GPS *model.Location
}

// DataURI 以 data URI 形式返回图片
func (img *Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// DecodeDataURI 解析 data:image/...;base64,xxx 形式的内容，普通 base64 也可接受
func DecodeDataURI(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.Contains(s[:comma], ";base64") {
			return nil, fmt.Errorf("%w: unsupported data uri", ErrNotImage)
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return data, nil
}

// Check 只解析图片头部，确认是支持的图片格式
func Check(raw []byte) error {
	if len(raw) == 0 {
		return ErrNotImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return nil
}

// Prepare 校验图片并在需要时缩放
// 尺寸未超限的 JPEG 原样保留，其他情况重新编码为 JPEG
func Prepare(raw []byte, opts Options) (*Image, error) {
	if len(raw) == 0 {
		return nil, ErrNotImage
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	out := &Image{GPS: GPSLocation(raw)}
	b := src.Bounds()

	if format == "jpeg" && !oversized(b, opts.MaxDimension) {
		out.Data = raw
		out.MIMEType = "image/jpeg"
		out.Width, out.Height = b.Dx(), b.Dy()
		return out, nil
	}

	dst := src
	if oversized(b, opts.MaxDimension) {
		dst = scale(src, opts.MaxDimension)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	out.Data = buf.Bytes()
	out.MIMEType = "image/jpeg"
	out.Width, out.Height = dst.Bounds().Dx(), dst.Bounds().Dy()
	return out, nil
}

// GPSLocation 读取 EXIF GPS 坐标
// 损坏的 EXIF 可能让解析器 panic，此时当作没有坐标
func GPSLocation(raw []byte) (loc *model.Location) {
	defer func() {
		if r := recover(); r != nil {
			loc = nil
		}
	}()
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	lat, lng, err := x.LatLong()
	if err != nil {
		return nil
	}
	return &model.Location{Latitude: lat, Longitude: lng}
}

func oversized(b image.Rectangle, limit int) bool {
	return limit > 0 && (b.Dx() > limit || b.Dy() > limit)
}

// scale 按比例缩放到最长边为 limit
func scale(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
