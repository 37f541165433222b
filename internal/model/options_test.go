package model

import (
	"errors"
	"image/color"
	"testing"
)

func TestDefaultBatchOptionsAreValid(t *testing.T) {
	if err := DefaultBatchOptions().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BatchOptions)
		field  string
	}{
		{"min above max", func(o *BatchOptions) { o.MinKB, o.MaxKB = 500, 400 }, "min file size KB"},
		{"quality too high", func(o *BatchOptions) { o.Quality = 13 }, "jpeg quality"},
		{"long side too small", func(o *BatchOptions) { o.LongSide = 199 }, "long side"},
		{"zero ratio", func(o *BatchOptions) { o.RatioH = 0 }, "ratio"},
		{"bad custom hex", func(o *BatchOptions) { o.BorderMode, o.BorderHex = BorderCustom, "12345" }, "border hex"},
		{"zero chunk", func(o *BatchOptions) { o.ChunkSize = 0 }, "chunk size"},
		{"unknown border", func(o *BatchOptions) { o.BorderMode = "PINK" }, "border mode"},
		{"ppi", func(o *BatchOptions) { o.SetPPI, o.PPI = true, 0 }, "ppi"},
	}

	for _, tc := range cases {
		opts := DefaultBatchOptions()
		tc.mutate(&opts)
		err := opts.Validate()
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if vErr.Field != tc.field {
			t.Fatalf("%s: field mismatch: got %q want %q", tc.name, vErr.Field, tc.field)
		}
	}
}

func TestValidateAllowsMinAboveMaxWhenLimitsIgnored(t *testing.T) {
	opts := DefaultBatchOptions()
	opts.MinKB, opts.MaxKB = 500, 400
	opts.IgnoreFileSizeLimits = true
	if err := opts.Validate(); err != nil {
		t.Fatalf("ignored limits must not be validated against each other: %v", err)
	}
	if opts.SizeLimitsActive() {
		t.Fatalf("size limits should be inactive when ignored")
	}
}

func TestValidateIgnoresRatioInIgnoreRatioMode(t *testing.T) {
	opts := DefaultBatchOptions()
	opts.IgnoreRatio = true
	opts.RatioW = 0
	if err := opts.Validate(); err != nil {
		t.Fatalf("ratio should not be validated in ignore-ratio mode: %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#1a2B3c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := color.NRGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}
	if c != want {
		t.Fatalf("color mismatch: got %#v want %#v", c, want)
	}
	if _, err := ParseHexColor("GGGGGG"); err == nil {
		t.Fatalf("expected error for non-hex digits")
	}
}
