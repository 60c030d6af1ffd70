// Package ioutils provides file system and image inspection utilities.
//
// This package contains functions for:
//   - Directory creation
//   - Removing files that may or may not exist
//   - Reading image dimensions without decoding pixels
//
// # File Operations
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("./panos")
//
//	// Remove a rejected download
//	err = ioutils.RemoveIfExists("./panos/img_1.jpg")
//
// # Image Inspection
//
// The ImageService reads image headers to decide whether a download is a
// panorama:
//
//	svc := ioutils.NewImageService()
//	w, h, err := svc.Dimensions(ctx, "./panos/img_1.jpg")
//	ok, err := svc.IsWide(ctx, "./panos/img_1.jpg", 1.9)
//
// JPEG, PNG, GIF, WebP, BMP and TIFF are recognised.
package ioutils
