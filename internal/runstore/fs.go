package runstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Record is a flat key=value document. Keys keeps first-insertion order so
// rewrites stay stable and diffable.
type Record struct {
	Keys   []string
	Values map[string]string
}

func NewRecord() *Record {
	return &Record{Values: make(map[string]string)}
}

func (r *Record) Set(key, value string) {
	if _, ok := r.Values[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = value
}

func (r *Record) Get(key string) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

func (r *Record) Len() int {
	return len(r.Keys)
}

func Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

func WriteBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".bf-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}

// ParseRecord reads key=value lines. Blank lines, '#' comments and lines
// without '=' are ignored; keys and values are trimmed; the last duplicate wins.
func ParseRecord(data []byte) *Record {
	rec := NewRecord()
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		k := strings.TrimSpace(line[:eq])
		v := strings.TrimSpace(line[eq+1:])
		if k == "" {
			continue
		}
		rec.Set(k, v)
	}
	return rec
}

func FormatRecord(header []string, rec *Record) []byte {
	var buf bytes.Buffer
	for _, h := range header {
		buf.WriteString("# ")
		buf.WriteString(h)
		buf.WriteByte('\n')
	}
	if len(header) > 0 {
		buf.WriteByte('\n')
	}
	for _, k := range rec.Keys {
		// values are single-line by construction
		v := strings.NewReplacer("\r", " ", "\n", " ").Replace(rec.Values[k])
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return ParseRecord(data), nil
}

func WriteRecord(path string, header []string, rec *Record) error {
	return WriteBytes(path, FormatRecord(header, rec))
}
