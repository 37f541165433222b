package model

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"
)

const (
	BorderWhite        = "WHITE"
	BorderBlack        = "BLACK"
	BorderAverage      = "AVERAGE"
	BorderAuto         = "AUTO"
	BorderAutoFilename = "AUTO_FILENAME"
	BorderCustom       = "CUSTOM"
)

const (
	SRGBOff   = "OFF"
	SRGBAuto  = "AUTO"
	SRGBForce = "FORCE"
)

const (
	MinQuality = 0
	MaxQuality = 12

	MinLongSide = 200
)

var BorderModes = []string{BorderWhite, BorderBlack, BorderAverage, BorderAuto, BorderAutoFilename, BorderCustom}

var SRGBModes = []string{SRGBOff, SRGBAuto, SRGBForce}

// BatchOptions is the validated, immutable configuration of one batch run.
type BatchOptions struct {
	RatioW      int
	RatioH      int
	IgnoreRatio bool
	LongSide    int
	Padding     int

	IgnoreBorder bool
	BorderMode   string
	BorderHex    string

	Quality              int
	MinKB                int
	MaxKB                int
	IgnoreFileSizeLimits bool
	Suffix               string

	SRGBMode     string
	EmbedProfile bool
	SetPPI       bool
	PPI          int

	SkipExisting         bool
	SilentMode           bool
	ChunkSize            int
	ChunkCooldown        time.Duration
	ScratchMaxRetries    int
	ScratchRetryCooldown time.Duration
}

func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		RatioW:               4,
		RatioH:               5,
		LongSide:             1350,
		Padding:              40,
		BorderMode:           BorderWhite,
		BorderHex:            "FFFFFF",
		Quality:              10,
		MinKB:                0,
		MaxKB:                900,
		Suffix:               "WB",
		SRGBMode:             SRGBOff,
		SetPPI:               true,
		PPI:                  72,
		SkipExisting:         true,
		SilentMode:           true,
		ChunkSize:            100,
		ScratchMaxRetries:    2,
		ScratchRetryCooldown: 5 * time.Second,
	}
}

// ValidationError reports an out-of-range option detected before a run starts.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (o BatchOptions) Validate() error {
	if !o.IgnoreRatio && (o.RatioW <= 0 || o.RatioH <= 0) {
		return invalid("ratio", "must be positive integers (got %d:%d)", o.RatioW, o.RatioH)
	}
	if o.LongSide < MinLongSide {
		return invalid("long side", "must be >= %d", MinLongSide)
	}
	if o.Padding < 0 {
		return invalid("padding", "must be >= 0")
	}
	if o.Quality < MinQuality || o.Quality > MaxQuality {
		return invalid("jpeg quality", "must be %d-%d", MinQuality, MaxQuality)
	}
	if o.MinKB < 0 {
		return invalid("min file size KB", "must be >= 0")
	}
	if o.MaxKB < 0 {
		return invalid("max file size KB", "must be >= 0")
	}
	if !o.IgnoreFileSizeLimits && o.MinKB > 0 && o.MaxKB > 0 && o.MinKB > o.MaxKB {
		return invalid("min file size KB", "must be <= max file size KB")
	}
	if !IsBorderMode(o.BorderMode) {
		return invalid("border mode", "must be one of %s", strings.Join(BorderModes, ", "))
	}
	if o.BorderMode == BorderCustom {
		if _, err := ParseHexColor(o.BorderHex); err != nil {
			return invalid("border hex", "%v", err)
		}
	}
	if !IsSRGBMode(o.SRGBMode) {
		return invalid("srgb mode", "must be one of %s", strings.Join(SRGBModes, ", "))
	}
	if o.SetPPI && o.PPI < 1 {
		return invalid("ppi", "must be >= 1")
	}
	if o.ChunkSize < 1 {
		return invalid("chunk size", "must be >= 1")
	}
	if o.ChunkCooldown < 0 {
		return invalid("cooldown", "must be >= 0")
	}
	if o.ScratchMaxRetries < 0 {
		return invalid("scratch retries", "must be >= 0")
	}
	if o.ScratchRetryCooldown < 0 {
		return invalid("scratch retry cooldown", "must be >= 0")
	}
	return nil
}

// SizeLimitsActive reports whether the encoder must search for a byte window.
func (o BatchOptions) SizeLimitsActive() bool {
	return !o.IgnoreFileSizeLimits && (o.MinKB > 0 || o.MaxKB > 0)
}

func IsBorderMode(mode string) bool {
	for _, m := range BorderModes {
		if m == mode {
			return true
		}
	}
	return false
}

func IsSRGBMode(mode string) bool {
	for _, m := range SRGBModes {
		if m == mode {
			return true
		}
	}
	return false
}

// NormalizeHex uppercases a 6-digit hex color, dropping a leading '#'.
func NormalizeHex(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.TrimPrefix(s, "#")
}

func ParseHexColor(raw string) (color.NRGBA, error) {
	s := NormalizeHex(raw)
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("expected 6 hex digits, got %q", raw)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", raw)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
