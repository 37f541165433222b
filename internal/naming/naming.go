// Package naming derives output file paths and manages the auto-numbered
// output folders that live beside the inputs.
package naming

import (
	"path/filepath"
	"strings"
)

const DefaultFolderBase = "With Borders"

// Directive is a border instruction encoded as a filename prefix.
type Directive string

const (
	DirectiveNone    Directive = ""
	DirectiveWhite   Directive = "WHITE"
	DirectiveBlack   Directive = "BLACK"
	DirectiveAverage Directive = "AVERAGE"
	DirectiveLum     Directive = "LUM"
)

var directivePrefixes = []struct {
	prefix    string
	directive Directive
}{
	{"-White-", DirectiveWhite},
	{"-Black-", DirectiveBlack},
	{"-Average-", DirectiveAverage},
	{"-Lum-", DirectiveLum},
}

// DetectDirective reports the directive a file name starts with. Matching is
// case-sensitive.
func DetectDirective(name string) Directive {
	base := filepath.Base(name)
	for _, p := range directivePrefixes {
		if strings.HasPrefix(base, p.prefix) {
			return p.directive
		}
	}
	return DirectiveNone
}

// StripDirective removes the first matching directive prefix.
func StripDirective(stem string) string {
	for _, p := range directivePrefixes {
		if rest, ok := strings.CutPrefix(stem, p.prefix); ok {
			return rest
		}
	}
	return stem
}

// OutputPathFor maps an input file to its JPEG output inside outputDir.
func OutputPathFor(outputDir, inputFile, suffix string) string {
	base := filepath.Base(inputFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, StripDirective(stem)+suffix+".jpg")
}
