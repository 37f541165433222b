// Package engine is the pixel side of BorderForge: decode, normalize, resize,
// canvas and JPEG encode, built on imaging.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/tiff" // registers TIFF for image.DecodeConfig
)

const (
	DefaultMaxPixels = 250_000_000

	SRGBProfileName = "sRGB IEC61966-2.1"
)

var supportedTypes = []string{"image/jpeg", "image/png", "image/tiff"}

type Engine struct {
	// MaxPixels rejects images whose decoded size would exceed this many
	// pixels. Zero means DefaultMaxPixels.
	MaxPixels int
}

func New() *Engine {
	return &Engine{MaxPixels: DefaultMaxPixels}
}

// JPEGQuality maps the 0..12 quality scale onto encoder quality 10..100.
func JPEGQuality(q int) int {
	q = max(0, min(12, q))
	return 10 + q*90/12
}

// Open decodes path by sniffed content type, applying EXIF orientation.
func (e *Engine) Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyIO("open", path, err, false)
	}

	mt := mimetype.Detect(data)
	if !supportedType(mt) {
		return nil, newError(KindProcessingFailed, "open", path, fmt.Errorf("unsupported content type %s", mt.String()))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindProcessingFailed, "decode", path, err)
	}
	limit := e.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width*cfg.Height > limit {
		return nil, newError(KindProcessingFailed, "decode", path, fmt.Errorf("image is %dx%d, above the %d pixel limit", cfg.Width, cfg.Height, limit))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, newError(KindProcessingFailed, "decode", path, err)
	}

	doc := &Document{
		path:       path,
		img:        img,
		background: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
	switch {
	case mt.Is("image/jpeg"):
		doc.icc = jpegICC(data)
	case mt.Is("image/png"):
		icc, srgb := pngICC(data)
		doc.icc = icc
		if srgb {
			doc.profileName = SRGBProfileName
		}
	}
	if len(doc.icc) > 0 {
		doc.profileName = iccDescription(doc.icc)
	}
	return doc, nil
}

func supportedType(mt *mimetype.MIME) bool {
	for _, t := range supportedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

var errClosed = errors.New("document is closed")
