package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"borderforge/internal/model"
	"borderforge/internal/runstore"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	s, found, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
	if s.Options.LongSide != 1350 || s.Options.MaxKB != 900 || !s.RememberFolders {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	in := Default()
	in.InputPath = "/photos/trip"
	in.UseCustomOut = true
	in.CustomOutPath = "/photos/out"
	in.Options.BorderMode = model.BorderCustom
	in.Options.BorderHex = "10A0FF"
	in.Options.ChunkCooldown = 1500 * time.Millisecond
	in.Options.SRGBMode = model.SRGBAuto

	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, found, err := Load(path)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestFromRecordFallsBackOnInvalidValues(t *testing.T) {
	rec := runstore.ParseRecord([]byte(
		"longSide=120\n" +
			"padding=-4\n" +
			"jpegQuality=99\n" +
			"chunkSize=abc\n" +
			"silentMode=YES\n" +
			"skipExisting=0\n" +
			"borderMode=purple\n" +
			"ratioW=16\nratioH=9\n"))
	s := FromRecord(rec)
	def := model.DefaultBatchOptions()
	if s.Options.LongSide != def.LongSide || s.Options.Padding != def.Padding {
		t.Fatalf("geometry should fall back: %+v", s.Options)
	}
	if s.Options.Quality != def.Quality || s.Options.ChunkSize != def.ChunkSize {
		t.Fatalf("numbers should fall back: %+v", s.Options)
	}
	if !s.Options.SilentMode || s.Options.SkipExisting {
		t.Fatalf("booleans not parsed: %+v", s.Options)
	}
	if s.Options.BorderMode != model.BorderWhite {
		t.Fatalf("unknown border mode should fall back, got %q", s.Options.BorderMode)
	}
	if s.RatioPreset != "16:9" {
		t.Fatalf("ratio preset should follow ratio, got %q", s.RatioPreset)
	}
}

func TestSetValidatesWholeOptionSet(t *testing.T) {
	s := Default()
	if err := Set(&s, "minKB", "1000"); err == nil {
		t.Fatalf("expected min > max to be rejected")
	}
	if s.Options.MinKB != 0 {
		t.Fatalf("rejected value must not be applied, got %d", s.Options.MinKB)
	}

	err := Set(&s, "jpegQuality", "13")
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "jpegQuality" {
		t.Fatalf("expected validation error for jpegQuality, got %v", err)
	}

	if err := Set(&s, "borderMode", "auto_filename"); err != nil {
		t.Fatalf("set border mode: %v", err)
	}
	if s.Options.BorderMode != model.BorderAutoFilename {
		t.Fatalf("border mode not normalized: %q", s.Options.BorderMode)
	}
	if err := Set(&s, "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestSetAllValidatesOnce(t *testing.T) {
	s := Default()
	err := SetAll(&s, [][2]string{{"minKB", "1000"}, {"maxKB", "2000"}})
	if err != nil {
		t.Fatalf("min and max raised together should validate: %v", err)
	}
	if s.Options.MinKB != 1000 || s.Options.MaxKB != 2000 {
		t.Fatalf("unexpected window: %d-%d", s.Options.MinKB, s.Options.MaxKB)
	}

	before := s
	err = SetAll(&s, [][2]string{{"padding", "10"}, {"ppi", "zero"}})
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "ppi" {
		t.Fatalf("expected ppi parse error, got %v", err)
	}
	if s != before {
		t.Fatalf("failed SetAll must leave settings untouched")
	}
}

func TestPresetApply(t *testing.T) {
	p, ok := FindPreset("IG-Story")
	if !ok {
		t.Fatalf("preset not found")
	}
	s := Default()
	s.Options.IgnoreRatio = true
	p.Apply(&s)
	if s.Options.RatioW != 9 || s.Options.RatioH != 16 || s.Options.LongSide != 1920 || s.Options.MaxKB != 1200 {
		t.Fatalf("preset not applied: %+v", s.Options)
	}
	if s.Options.IgnoreRatio {
		t.Fatalf("preset must re-enable ratio")
	}
	if s.RatioPreset != "9:16" {
		t.Fatalf("ratio preset mismatch: %q", s.RatioPreset)
	}
}

func TestResolvePathsPrefersEnvHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	p, err := ResolvePaths("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Settings != filepath.Join(home, SettingsFileName) || p.RunState != filepath.Join(home, RunStateFileName) {
		t.Fatalf("unexpected paths: %+v", p)
	}

	override := t.TempDir()
	p, err = ResolvePaths(override)
	if err != nil {
		t.Fatal(err)
	}
	if p.Home != override {
		t.Fatalf("override should win: %+v", p)
	}
}

func TestLoadEnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvHome+"=/from/dotenv\n"+EnvLogLevel+"=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv(EnvHome, "/from/process")
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvLogLevel)

	LoadEnvFile()
	if got := os.Getenv(EnvHome); got != "/from/process" {
		t.Fatalf("process env should win, got %q", got)
	}
	if got := os.Getenv(EnvLogLevel); got != "debug" {
		t.Fatalf("dotenv value should fill gaps, got %q", got)
	}
}
