// Package scan lists the input images of one folder in a stable order.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"borderforge/internal/model"
)

var ErrEmptyInput = errors.New("no supported images found (jpg, jpeg, png, tif, tiff)")

var supportedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
}

func IsSupported(name string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(name))]
}

// Enumerate returns the supported files directly inside dir, sorted by
// case-insensitive name. Resume depends on this order being reproducible.
func Enumerate(dir string) ([]model.FileTask, error) {
	root, err := filepath.Abs(strings.TrimSpace(dir))
	if err != nil {
		return nil, fmt.Errorf("resolve input folder %s: %w", dir, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}

	fold := cases.Lower(language.Und)
	type candidate struct {
		name string
		key  string
	}
	found := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if !IsSupported(e.Name()) {
			continue
		}
		if !e.Type().IsRegular() {
			// symlinked images count; directories and devices never do
			if e.Type()&os.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(filepath.Join(root, e.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		found = append(found, candidate{name: e.Name(), key: fold.String(e.Name())})
	}
	if len(found) == 0 {
		return nil, ErrEmptyInput
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].key != found[j].key {
			return found[i].key < found[j].key
		}
		return found[i].name < found[j].name
	})

	tasks := make([]model.FileTask, 0, len(found))
	for i, c := range found {
		tasks = append(tasks, model.NewFileTask(i, filepath.Join(root, c.name)))
	}
	return tasks, nil
}
