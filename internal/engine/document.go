package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
)

// Document is one opened image being prepared for export. It is not safe for
// concurrent use.
type Document struct {
	path        string
	img         image.Image
	icc         []byte
	profileName string
	converted   bool
	background  color.NRGBA
	ppi         int
}

func (d *Document) live(op string) error {
	if d.img == nil {
		return newError(KindFatal, op, d.path, errClosed)
	}
	return nil
}

// NormalizeColor converts the pixels to 8-bit RGB. Only "RGB" is supported.
func (d *Document) NormalizeColor(mode string) error {
	if err := d.live("normalize"); err != nil {
		return err
	}
	if mode != "RGB" {
		return newError(KindProcessingFailed, "normalize", d.path, fmt.Errorf("unsupported color mode %q", mode))
	}
	d.img = imaging.Clone(d.img)
	return nil
}

// ConvertColorProfile relabels the document with target. Decoded pixel values
// are already device RGB, so no transform is applied and any embedded
// profile is dropped.
func (d *Document) ConvertColorProfile(target string) error {
	if err := d.live("convert profile"); err != nil {
		return err
	}
	d.profileName = target
	d.converted = true
	d.icc = nil
	return nil
}

func (d *Document) ProfileName() string {
	return d.profileName
}

// Flatten composites any transparency onto opaque white.
func (d *Document) Flatten() error {
	if err := d.live("flatten"); err != nil {
		return err
	}
	if o, ok := d.img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return nil
	}
	b := d.img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	d.img = imaging.Overlay(bg, d.img, image.Pt(0, 0), 1.0)
	return nil
}

func (d *Document) Size() (int, int) {
	if d.img == nil {
		return 0, 0
	}
	b := d.img.Bounds()
	return b.Dx(), b.Dy()
}

func (d *Document) Resize(w, h int) error {
	if err := d.live("resize"); err != nil {
		return err
	}
	if w < 1 || h < 1 {
		return newError(KindProcessingFailed, "resize", d.path, fmt.Errorf("invalid target size %dx%d", w, h))
	}
	d.img = imaging.Resize(d.img, w, h, imaging.Lanczos)
	return nil
}

// ExpandCanvas centers the image on a w x h canvas filled with the
// background color.
func (d *Document) ExpandCanvas(w, h int) error {
	if err := d.live("expand canvas"); err != nil {
		return err
	}
	if w < 1 || h < 1 {
		return newError(KindProcessingFailed, "expand canvas", d.path, fmt.Errorf("invalid canvas size %dx%d", w, h))
	}
	bg := imaging.New(w, h, d.background)
	d.img = imaging.PasteCenter(bg, d.img)
	return nil
}

// FillBackground sets the color used for canvas expansion.
func (d *Document) FillBackground(c color.Color) error {
	if err := d.live("fill background"); err != nil {
		return err
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	d.background = n
	return nil
}

// SetResolution records pixels per inch without resampling.
func (d *Document) SetResolution(ppi int) error {
	if err := d.live("set resolution"); err != nil {
		return err
	}
	if ppi < 1 {
		return newError(KindProcessingFailed, "set resolution", d.path, fmt.Errorf("ppi must be >= 1, got %d", ppi))
	}
	d.ppi = ppi
	return nil
}

func (d *Document) AverageColor() (color.NRGBA, error) {
	if err := d.live("average color"); err != nil {
		return color.NRGBA{}, err
	}
	px, ok := d.img.(*image.NRGBA)
	if !ok {
		px = imaging.Clone(d.img)
	}
	b := px.Bounds()
	n := uint64(b.Dx()) * uint64(b.Dy())
	if n == 0 {
		return color.NRGBA{}, newError(KindProcessingFailed, "average color", d.path, errors.New("empty image"))
	}
	var r, g, bl uint64
	for y := 0; y < b.Dy(); y++ {
		row := px.Pix[y*px.Stride : y*px.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			r += uint64(row[x])
			g += uint64(row[x+1])
			bl += uint64(row[x+2])
		}
	}
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 0xff}, nil
}

// Save encodes the document as JPEG at quality (0..12) and writes it to path,
// returning the bytes written. A failed write leaves no file behind.
func (d *Document) Save(path string, quality int, embedProfile bool) (int64, error) {
	if err := d.live("save"); err != nil {
		return 0, err
	}
	if quality < 0 || quality > 12 {
		return 0, newError(KindProcessingFailed, "save", path, fmt.Errorf("quality %d outside 0..12", quality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, d.img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality(quality))); err != nil {
		return 0, newError(KindProcessingFailed, "encode", path, err)
	}
	var profile []byte
	if embedProfile && !d.converted {
		profile = d.icc
	}
	data := withJFIFHeader(buf.Bytes(), d.ppi, profile)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = os.Remove(path)
		return 0, classifyIO("save", path, err, true)
	}
	return int64(len(data)), nil
}

// Close releases the pixel buffer. Unsaved changes are always discarded.
func (d *Document) Close() {
	d.img = nil
	d.icc = nil
}
