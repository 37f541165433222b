// Package encoder searches the 0..12 quality scale for a JPEG whose size lands
// inside a byte window.
//
// The search assumes output size never shrinks as quality rises. That is not
// checked; a non-monotonic encoder can make the scan stop early.
package encoder

import (
	"math"

	"borderforge/internal/model"
)

// Saver writes the current document to path and reports the bytes written.
type Saver interface {
	Save(path string, quality int, embedProfile bool) (int64, error)
}

type Options struct {
	StartQuality int
	MinBytes     int64
	MaxBytes     int64
	IgnoreLimits bool
	EmbedProfile bool
}

// OptionsFrom derives encoder settings from batch options; KB means 1024 bytes.
func OptionsFrom(o model.BatchOptions) Options {
	return Options{
		StartQuality: o.Quality,
		MinBytes:     int64(o.MinKB) * 1024,
		MaxBytes:     int64(o.MaxKB) * 1024,
		IgnoreLimits: !o.SizeLimitsActive(),
		EmbedProfile: o.EmbedProfile,
	}
}

type Result struct {
	FinalSize    int64
	FinalQuality int
	InWindow     bool
	Trials       []model.EncodingTrial
}

const worstScore = math.MaxInt64

type window struct {
	min, max int64
}

func (w window) contains(size int64) bool {
	if size <= 0 {
		return false
	}
	if w.min > 0 && size < w.min {
		return false
	}
	if w.max > 0 && size > w.max {
		return false
	}
	return true
}

// score is 0 inside the window, else the distance to the violated bound.
// Empty output scores worst.
func (w window) score(size int64) int64 {
	switch {
	case size <= 0:
		return worstScore
	case w.contains(size):
		return 0
	case w.min > 0 && size < w.min:
		return w.min - size
	case w.max > 0 && size > w.max:
		return size - w.max
	}
	return worstScore
}

type search struct {
	doc    Saver
	target string
	embed  bool
	win    window
	res    Result
	best   model.EncodingTrial
}

func (s *search) try(q int) (model.EncodingTrial, error) {
	n, err := s.doc.Save(s.target, q, s.embed)
	if err != nil {
		return model.EncodingTrial{}, err
	}
	trial := model.EncodingTrial{Quality: q, Bytes: n, Score: s.win.score(n)}
	s.res.Trials = append(s.res.Trials, trial)
	s.res.FinalSize, s.res.FinalQuality = n, q
	if len(s.res.Trials) == 1 || trial.Score < s.best.Score {
		s.best = trial
	}
	return trial, nil
}

// Encode saves doc to target, stepping quality one unit at a time until the
// size is inside [MinBytes, MaxBytes] or the relevant side of the scale is
// exhausted. The file left on disk is always the best trial seen.
// Errors from Save are returned unchanged.
func Encode(doc Saver, target string, opts Options) (Result, error) {
	start := max(model.MinQuality, min(model.MaxQuality, opts.StartQuality))
	s := &search{
		doc:    doc,
		target: target,
		embed:  opts.EmbedProfile,
		win:    window{min: max(opts.MinBytes, 0), max: max(opts.MaxBytes, 0)},
	}

	if opts.IgnoreLimits || (s.win.min == 0 && s.win.max == 0) {
		if _, err := s.try(start); err != nil {
			return s.res, err
		}
		s.res.InWindow = true
		return s.res, nil
	}

	first, err := s.try(start)
	if err != nil {
		return s.res, err
	}
	if first.Score == 0 {
		s.res.InWindow = true
		return s.res, nil
	}

	switch {
	case s.win.max > 0 && first.Bytes > s.win.max:
		for q := start - 1; q >= model.MinQuality; q-- {
			t, err := s.try(q)
			if err != nil {
				return s.res, err
			}
			if t.Score == 0 {
				s.res.InWindow = true
				return s.res, nil
			}
			if s.win.min > 0 && t.Bytes > 0 && t.Bytes < s.win.min {
				break
			}
		}
	case s.win.min > 0 && first.Bytes > 0 && first.Bytes < s.win.min:
		for q := start + 1; q <= model.MaxQuality; q++ {
			t, err := s.try(q)
			if err != nil {
				return s.res, err
			}
			if t.Score == 0 {
				s.res.InWindow = true
				return s.res, nil
			}
			if s.win.max > 0 && t.Bytes > s.win.max {
				break
			}
		}
	default:
		for q := model.MinQuality; q <= model.MaxQuality; q++ {
			t, err := s.try(q)
			if err != nil {
				return s.res, err
			}
			if t.Score == 0 {
				s.res.InWindow = true
				return s.res, nil
			}
		}
	}

	if s.res.FinalQuality != s.best.Quality {
		n, err := doc.Save(target, s.best.Quality, s.embed)
		if err != nil {
			return s.res, err
		}
		s.res.FinalSize, s.res.FinalQuality = n, s.best.Quality
	}
	return s.res, nil
}
