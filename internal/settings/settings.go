package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"borderforge/internal/model"
	"borderforge/internal/runstore"
)

var settingsHeader = []string{"BorderForge settings", "Written after every accepted configuration."}

// Settings is everything the configure flow remembers between launches.
type Settings struct {
	Options         model.BatchOptions
	RememberFolders bool
	InputPath       string
	UseCustomOut    bool
	CustomOutPath   string
	RatioPreset     string
}

func Default() Settings {
	return Settings{
		Options:         model.DefaultBatchOptions(),
		RememberFolders: true,
		RatioPreset:     "4:5",
	}
}

type field struct {
	key string
	get func(Settings) string
	set func(*Settings, string) error
}

var fields = []field{
	boolField("rememberFolders", func(s *Settings) *bool { return &s.RememberFolders }),
	{
		key: "inputPath",
		get: func(s Settings) string { return s.InputPath },
		set: func(s *Settings, v string) error { s.InputPath = strings.TrimSpace(v); return nil },
	},
	boolField("useCustomOut", func(s *Settings) *bool { return &s.UseCustomOut }),
	{
		key: "customOutPath",
		get: func(s Settings) string { return s.CustomOutPath },
		set: func(s *Settings, v string) error { s.CustomOutPath = strings.TrimSpace(v); return nil },
	},
	{
		key: "ratioPreset",
		get: func(s Settings) string { return s.RatioPreset },
		set: func(s *Settings, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == RatioCustom {
				s.RatioPreset = RatioCustom
				return nil
			}
			w, h, err := ParseRatio(v)
			if err != nil {
				return err
			}
			s.RatioPreset = RatioPresetFor(w, h)
			if s.RatioPreset != RatioCustom {
				s.Options.RatioW, s.Options.RatioH = w, h
			}
			return nil
		},
	},
	intField("ratioW", 1, 1<<20, func(s *Settings) *int { return &s.Options.RatioW }),
	intField("ratioH", 1, 1<<20, func(s *Settings) *int { return &s.Options.RatioH }),
	intField("longSide", model.MinLongSide, 1<<20, func(s *Settings) *int { return &s.Options.LongSide }),
	intField("padding", 0, 1<<20, func(s *Settings) *int { return &s.Options.Padding }),
	boolField("ignoreRatio", func(s *Settings) *bool { return &s.Options.IgnoreRatio }),
	boolField("ignoreBorder", func(s *Settings) *bool { return &s.Options.IgnoreBorder }),
	boolField("ignoreFileSizeLimits", func(s *Settings) *bool { return &s.Options.IgnoreFileSizeLimits }),
	{
		key: "borderMode",
		get: func(s Settings) string { return s.Options.BorderMode },
		set: func(s *Settings, v string) error {
			mode := strings.ToUpper(strings.TrimSpace(v))
			if !model.IsBorderMode(mode) {
				return fmt.Errorf("unknown border mode %q (use %s)", v, strings.Join(model.BorderModes, ", "))
			}
			s.Options.BorderMode = mode
			return nil
		},
	},
	{
		key: "borderHex",
		get: func(s Settings) string { return s.Options.BorderHex },
		set: func(s *Settings, v string) error {
			if _, err := model.ParseHexColor(v); err != nil {
				return err
			}
			s.Options.BorderHex = model.NormalizeHex(v)
			return nil
		},
	},
	intField("jpegQuality", model.MinQuality, model.MaxQuality, func(s *Settings) *int { return &s.Options.Quality }),
	intField("minKB", 0, 1<<30, func(s *Settings) *int { return &s.Options.MinKB }),
	intField("maxKB", 0, 1<<30, func(s *Settings) *int { return &s.Options.MaxKB }),
	{
		key: "suffix",
		get: func(s Settings) string { return s.Options.Suffix },
		set: func(s *Settings, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return fmt.Errorf("suffix must not be empty")
			}
			if strings.ContainsAny(v, `/\`) {
				return fmt.Errorf("suffix must not contain path separators")
			}
			s.Options.Suffix = v
			return nil
		},
	},
	{
		key: "srgbMode",
		get: func(s Settings) string { return s.Options.SRGBMode },
		set: func(s *Settings, v string) error {
			mode := strings.ToUpper(strings.TrimSpace(v))
			if !model.IsSRGBMode(mode) {
				return fmt.Errorf("unknown srgb mode %q (use %s)", v, strings.Join(model.SRGBModes, ", "))
			}
			s.Options.SRGBMode = mode
			return nil
		},
	},
	boolField("embedProfile", func(s *Settings) *bool { return &s.Options.EmbedProfile }),
	boolField("setPPI", func(s *Settings) *bool { return &s.Options.SetPPI }),
	intField("ppi", 1, 1<<16, func(s *Settings) *int { return &s.Options.PPI }),
	boolField("skipExisting", func(s *Settings) *bool { return &s.Options.SkipExisting }),
	boolField("silentMode", func(s *Settings) *bool { return &s.Options.SilentMode }),
	intField("chunkSize", 1, 1<<20, func(s *Settings) *int { return &s.Options.ChunkSize }),
	millisField("cooldownMs", func(s *Settings) *time.Duration { return &s.Options.ChunkCooldown }),
	intField("scratchMaxRetries", 0, 1000, func(s *Settings) *int { return &s.Options.ScratchMaxRetries }),
	millisField("scratchRetryCooldownMs", func(s *Settings) *time.Duration { return &s.Options.ScratchRetryCooldown }),
}

func intField(key string, minV, maxV int, ptr func(*Settings) *int) field {
	return field{
		key: key,
		get: func(s Settings) string { return strconv.Itoa(*ptr(&s)) },
		set: func(s *Settings, v string) error {
			n, err := parseIntRange(v, minV, maxV)
			if err != nil {
				return err
			}
			*ptr(s) = n
			return nil
		},
	}
}

func boolField(key string, ptr func(*Settings) *bool) field {
	return field{
		key: key,
		get: func(s Settings) string { return strconv.FormatBool(*ptr(&s)) },
		set: func(s *Settings, v string) error {
			b, err := ParseBool(v)
			if err != nil {
				return err
			}
			*ptr(s) = b
			return nil
		},
	}
}

func millisField(key string, ptr func(*Settings) *time.Duration) field {
	return field{
		key: key,
		get: func(s Settings) string { return strconv.FormatInt(ptr(&s).Milliseconds(), 10) },
		set: func(s *Settings, v string) error {
			n, err := parseIntRange(v, 0, 24*60*60*1000)
			if err != nil {
				return err
			}
			*ptr(s) = time.Duration(n) * time.Millisecond
			return nil
		},
	}
}

func parseIntRange(raw string, minV, maxV int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q", raw)
	}
	if n < minV || n > maxV {
		return 0, fmt.Errorf("must be between %d and %d", minV, maxV)
	}
	return n, nil
}

// ParseBool accepts true/false, 1/0 and yes/no in any case.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("expected true/false, got %q", raw)
	}
}

// Keys lists the persisted keys in file order.
func Keys() []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.key)
	}
	return out
}

func findField(key string) (field, bool) {
	for _, f := range fields {
		if strings.EqualFold(f.key, strings.TrimSpace(key)) {
			return f, true
		}
	}
	return field{}, false
}

// ToRecord renders s in persisted key order.
func ToRecord(s Settings) *runstore.Record {
	rec := runstore.NewRecord()
	for _, f := range fields {
		rec.Set(f.key, f.get(s))
	}
	return rec
}

// FromRecord rebuilds Settings from a persisted record. Missing keys and
// values that fail to parse or fall out of range keep their defaults.
func FromRecord(rec *runstore.Record) Settings {
	s := Default()
	ratioPresetSeen := false
	for _, f := range fields {
		v, ok := rec.Get(f.key)
		if !ok {
			continue
		}
		if err := f.set(&s, v); err != nil {
			continue
		}
		if f.key == "ratioPreset" {
			ratioPresetSeen = true
		}
	}
	if !ratioPresetSeen || s.RatioPreset != RatioCustom {
		s.RatioPreset = RatioPresetFor(s.Options.RatioW, s.Options.RatioH)
	}
	return s
}

// Load reads the settings record. A missing file yields defaults and
// found=false.
func Load(path string) (Settings, bool, error) {
	rec, err := runstore.ReadRecord(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}
		return Default(), false, err
	}
	return FromRecord(rec), true, nil
}

// Save validates s and rewrites the record atomically.
func Save(path string, s Settings) error {
	if err := s.Options.Validate(); err != nil {
		return err
	}
	if err := runstore.WriteRecord(path, settingsHeader, ToRecord(s)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Set assigns one key from user input and re-validates the whole option set.
func Set(s *Settings, key, value string) error {
	return SetAll(s, [][2]string{{key, value}})
}

// SetAll assigns several keys in order and validates once at the end, so
// related fields (minKB and maxKB, borderMode and borderHex) can change
// together. s is left untouched on any error.
func SetAll(s *Settings, pairs [][2]string) error {
	next := *s
	for _, pair := range pairs {
		f, ok := findField(pair[0])
		if !ok {
			return fmt.Errorf("unknown setting %q (known: %s)", pair[0], strings.Join(Keys(), ", "))
		}
		if err := f.set(&next, pair[1]); err != nil {
			return &model.ValidationError{Field: f.key, Message: err.Error()}
		}
		if f.key == "ratioW" || f.key == "ratioH" {
			next.RatioPreset = RatioPresetFor(next.Options.RatioW, next.Options.RatioH)
		}
	}
	if err := next.Options.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Get returns the persisted text of one key.
func Get(s Settings, key string) (string, bool) {
	f, ok := findField(key)
	if !ok {
		return "", false
	}
	return f.get(s), true
}
