// Package imaging prepares employee photos for upload.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	MaxDimension = 256
	MaxUpload    = 5 << 20
)

var (
	ErrTooLarge        = errors.New("image must be 5 MB or smaller")
	ErrUnsupportedType = errors.New("image must be png, jpeg, gif or webp")
	ErrUndecodable     = errors.New("unable to decode image")
)

// Thumbnail decodes raw, fits it within MaxDimension on its longest side
// and re-encodes it as JPEG on a white background.
func Thumbnail(raw []byte) ([]byte, error) {
	if len(raw) > MaxUpload {
		return nil, ErrTooLarge
	}
	mime := http.DetectContentType(raw)
	var img image.Image
	var err error
	switch mime {
	case "image/png", "image/jpeg", "image/gif":
		img, _, err = image.Decode(bytes.NewReader(raw))
	case "image/webp":
		img, err = webp.Decode(bytes.NewReader(raw))
	default:
		return nil, ErrUnsupportedType
	}
	if err != nil {
		return nil, ErrUndecodable
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrUndecodable
	}
	w, h := fit(width, height, MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, stddraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DataURL is the base64 payload the upstream upload-image endpoint takes.
func DataURL(raw []byte) (string, error) {
	thumb, err := Thumbnail(raw)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(thumb), nil
}

func fit(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}
	if width >= height {
		return limit, max(1, height*limit/width)
	}
	return max(1, width*limit/height), limit
}
