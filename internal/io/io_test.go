package ioutils

import (
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
}

func TestImageService_Dimensions(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService()

	pngPath := filepath.Join(dir, "a.jpg")
	writePNG(t, pngPath, 210, 100)
	w, h, err := svc.Dimensions(context.Background(), pngPath)
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 210 || h != 100 {
		t.Errorf("Dimensions = %dx%d, want 210x100", w, h)
	}

	jpegPath := filepath.Join(dir, "b.jpg")
	writeJPEG(t, jpegPath, 64, 48)
	w, h, err = svc.Dimensions(context.Background(), jpegPath)
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 64 || h != 48 {
		t.Errorf("Dimensions = %dx%d, want 64x48", w, h)
	}
}

func TestImageService_IsWide(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService()

	tests := []struct {
		name string
		w, h int
		want bool
	}{
		{"panorama 2:1", 200, 100, true},
		{"exactly threshold", 190, 100, true},
		{"just below", 189, 100, false},
		{"landscape 4:3", 120, 90, false},
		{"portrait", 90, 120, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".png")
			writePNG(t, path, tt.w, tt.h)
			got, err := svc.IsWide(context.Background(), path, 1.9)
			if err != nil {
				t.Fatalf("IsWide failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsWide(%dx%d) = %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestImageService_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.jpg")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewImageService().IsWide(context.Background(), path, 1.9); err == nil {
		t.Error("expected decode error")
	}
	if _, _, err := NewImageService().Dimensions(context.Background(), filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img_1.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should be gone, stat err = %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "panos")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	if err := EnsureDir(path); err != nil {
		t.Errorf("EnsureDir on existing dir failed: %v", err)
	}
}
