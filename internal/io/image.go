package ioutils

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageService inspects downloaded images.
//
// Only the image header is decoded, so checking a multi-megabyte panorama
// costs a few kilobytes of reads.
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Dimensions returns the pixel width and height of the image at path.
//
// Returns an error if the file cannot be opened or its format is not
// recognised.
func (s *ImageService) Dimensions(ctx context.Context, path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// IsWide reports whether the image at path has a width/height ratio of at
// least threshold. Images with a zero height are reported as errors.
func (s *ImageService) IsWide(ctx context.Context, path string, threshold float64) (bool, error) {
	w, h, err := s.Dimensions(ctx, path)
	if err != nil {
		return false, err
	}
	if h <= 0 {
		return false, fmt.Errorf("decode %s: zero height", path)
	}
	return float64(w)/float64(h) >= threshold, nil
}
