package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(TokenEnv, "")

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := DefaultSettings()
	if s.Radius != want.Radius || s.OutputDir != want.OutputDir || s.Threads != want.Threads {
		t.Errorf("run options = %v/%q/%d", s.Radius, s.OutputDir, s.Threads)
	}
	if s.PageSize != 500 || s.MaxImages != 10000 || s.AspectThreshold != 1.9 {
		t.Errorf("constants = %d/%d/%v", s.PageSize, s.MaxImages, s.AspectThreshold)
	}
	if s.APIMaxAttempts != 5 || s.DownloadMaxAttempts != 3 || s.RetryCooldown != 2*time.Second {
		t.Errorf("retry = %d/%d/%v", s.APIMaxAttempts, s.DownloadMaxAttempts, s.RetryCooldown)
	}
	if !errors.Is(s.Validate(), ErrMissingToken) {
		t.Error("Validate() should report the missing token")
	}
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "MLY|123|abc")

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Token != "MLY|123|abc" {
		t.Errorf("Token = %q", s.Token)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streetgrab.yaml")
	content := "radius: 40\nout: /from/file\nthreads: 8\nretry-cooldown: 500ms\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(TokenEnv, "tok")
	t.Setenv("STREETGRAB_THREADS", "6")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("radius", 25, "")
	flags.String("out", "./panos", "")
	flags.Int("threads", 4, "")
	flags.Bool("pano", false, "")
	if err := flags.Parse([]string{"--out", "/from/flag", "--pano"}); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Radius != 40 {
		t.Errorf("Radius = %v, want 40 from file (flag not set)", s.Radius)
	}
	if s.OutputDir != "/from/flag" {
		t.Errorf("OutputDir = %q, want flag value", s.OutputDir)
	}
	if s.Threads != 6 {
		t.Errorf("Threads = %d, want 6 from env", s.Threads)
	}
	if !s.PanoOnly {
		t.Error("PanoOnly should be set from flag")
	}
	if s.RetryCooldown != 500*time.Millisecond {
		t.Errorf("RetryCooldown = %v, want 500ms", s.RetryCooldown)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Threads != 4 {
		t.Errorf("Threads = %d, want default", s.Threads)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"ok", func(s *Settings) {}, false},
		{"zero threads", func(s *Settings) { s.Threads = 0 }, true},
		{"negative radius", func(s *Settings) { s.Radius = -1 }, true},
		{"zero radius", func(s *Settings) { s.Radius = 0 }, false},
		{"empty out", func(s *Settings) { s.OutputDir = " " }, true},
		{"blank token", func(s *Settings) { s.Token = "  " }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			s.Token = "tok"
			tt.mutate(s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
