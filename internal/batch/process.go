package batch

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"borderforge/internal/encoder"
	"borderforge/internal/engine"
	"borderforge/internal/model"
	"borderforge/internal/naming"
)

var (
	borderWhite = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	borderBlack = color.NRGBA{A: 0xff}
)

// autoBlackMaxLuma is the highest mean luminance that still gets a black border.
const autoBlackMaxLuma = 105

// ProcessFile runs the full pipeline for one input and writes outPath.
// The document is always closed, discarding in-memory edits.
func ProcessFile(eng Engine, task model.FileTask, outPath string, opts model.BatchOptions) (encoder.Result, error) {
	doc, err := eng.Open(task.Path)
	if err != nil {
		return encoder.Result{}, err
	}
	defer doc.Close()

	if err := doc.NormalizeColor("RGB"); err != nil {
		return encoder.Result{}, err
	}
	if err := convertProfile(doc, opts.SRGBMode); err != nil {
		return encoder.Result{}, err
	}
	if err := doc.Flatten(); err != nil {
		return encoder.Result{}, err
	}

	if opts.IgnoreBorder {
		if err := capLongSide(doc, opts.LongSide); err != nil {
			return encoder.Result{}, err
		}
		if err := applyPPI(doc, opts); err != nil {
			return encoder.Result{}, err
		}
		return encoder.Encode(doc, outPath, encoder.OptionsFrom(opts))
	}

	border, err := chooseBorder(doc, task.Name, opts)
	if err != nil {
		return encoder.Result{}, err
	}
	if err := doc.FillBackground(border); err != nil {
		return encoder.Result{}, err
	}

	w, h := doc.Size()
	if opts.IgnoreRatio {
		if err := capLongSide(doc, opts.LongSide); err != nil {
			return encoder.Result{}, err
		}
		if err := applyPPI(doc, opts); err != nil {
			return encoder.Result{}, err
		}
		w, h = doc.Size()
		if err := doc.ExpandCanvas(w+2*opts.Padding, h+2*opts.Padding); err != nil {
			return encoder.Result{}, err
		}
	} else {
		g := ratioGeometry(w, h, opts)
		if g.resize {
			if err := doc.Resize(g.contentW, g.contentH); err != nil {
				return encoder.Result{}, err
			}
		}
		if err := applyPPI(doc, opts); err != nil {
			return encoder.Result{}, err
		}
		if err := doc.ExpandCanvas(g.canvasW, g.canvasH); err != nil {
			return encoder.Result{}, err
		}
	}

	return encoder.Encode(doc, outPath, encoder.OptionsFrom(opts))
}

func convertProfile(doc Document, mode string) error {
	switch mode {
	case model.SRGBForce:
		return doc.ConvertColorProfile(engine.SRGBProfileName)
	case model.SRGBAuto:
		if strings.Contains(strings.ToLower(doc.ProfileName()), "srgb") {
			return nil
		}
		return doc.ConvertColorProfile(engine.SRGBProfileName)
	}
	return nil
}

func applyPPI(doc Document, opts model.BatchOptions) error {
	if !opts.SetPPI || opts.PPI < 1 {
		return nil
	}
	return doc.SetResolution(opts.PPI)
}

// capLongSide downscales so the longer edge is at most longSide. Smaller
// images are left alone.
func capLongSide(doc Document, longSide int) error {
	w, h := doc.Size()
	limit := max(1, longSide)
	long := max(w, h)
	if long <= limit {
		return nil
	}
	s := float64(limit) / float64(long)
	return doc.Resize(scaled(w, s), scaled(h, s))
}

type geometry struct {
	canvasW, canvasH   int
	contentW, contentH int
	resize             bool
}

// ratioGeometry fits a w x h image inside the padded box of a canvas whose
// height is LongSide and whose width follows the ratio.
func ratioGeometry(w, h int, opts model.BatchOptions) geometry {
	g := geometry{
		canvasH: opts.LongSide,
		canvasW: int(math.Round(float64(opts.LongSide) * float64(opts.RatioW) / float64(opts.RatioH))),
	}
	innerW := max(1, g.canvasW-2*opts.Padding)
	innerH := max(1, g.canvasH-2*opts.Padding)
	s := math.Min(float64(innerW)/float64(w), float64(innerH)/float64(h))
	g.contentW, g.contentH = w, h
	if s != 1 {
		g.resize = true
		g.contentW, g.contentH = scaled(w, s), scaled(h, s)
	}
	return g
}

func scaled(n int, s float64) int {
	return max(1, int(math.Round(float64(n)*s)))
}

// chooseBorder resolves the border color for one file. Average and
// luminance probes fall back to white when sampling fails.
func chooseBorder(doc Document, name string, opts model.BatchOptions) (color.NRGBA, error) {
	switch opts.BorderMode {
	case model.BorderBlack:
		return borderBlack, nil
	case model.BorderCustom:
		c, err := model.ParseHexColor(opts.BorderHex)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("border hex: %w", err)
		}
		return c, nil
	case model.BorderAverage:
		return averageBorder(doc), nil
	case model.BorderAuto:
		return autoBorder(doc), nil
	case model.BorderAutoFilename:
		switch naming.DetectDirective(name) {
		case naming.DirectiveWhite:
			return borderWhite, nil
		case naming.DirectiveBlack:
			return borderBlack, nil
		case naming.DirectiveAverage:
			return averageBorder(doc), nil
		default:
			return autoBorder(doc), nil
		}
	}
	return borderWhite, nil
}

func averageBorder(doc Document) color.NRGBA {
	c, err := doc.AverageColor()
	if err != nil {
		return borderWhite
	}
	return c
}

func autoBorder(doc Document) color.NRGBA {
	c, err := doc.AverageColor()
	if err != nil {
		return borderWhite
	}
	if Luminance(c) <= autoBlackMaxLuma {
		return borderBlack
	}
	return borderWhite
}

// Luminance is the Rec. 709 weighted brightness of c on a 0..255 scale.
func Luminance(c color.NRGBA) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}
