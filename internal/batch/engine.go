package batch

import (
	"image/color"

	"borderforge/internal/engine"
)

// Document is an opened image as the pipeline sees it. Every method may fail
// with an *engine.Error whose Kind drives the retry policy.
type Document interface {
	NormalizeColor(mode string) error
	ConvertColorProfile(target string) error
	ProfileName() string
	Flatten() error
	Size() (int, int)
	Resize(w, h int) error
	ExpandCanvas(w, h int) error
	FillBackground(c color.Color) error
	SetResolution(ppi int) error
	AverageColor() (color.NRGBA, error)
	Save(path string, quality int, embedProfile bool) (int64, error)
	Close()
}

type Engine interface {
	Open(path string) (Document, error)
}

type imageEngine struct {
	eng *engine.Engine
}

// NewImageEngine adapts the imaging-backed engine to the pipeline.
func NewImageEngine(e *engine.Engine) Engine {
	return imageEngine{eng: e}
}

func (ie imageEngine) Open(path string) (Document, error) {
	doc, err := ie.eng.Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
