// Package imagestore caches decoded source images and their rendered
// transform results under a shared byte budget with LRU eviction.
package imagestore

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode indicates unsupported or corrupt image data.
	ErrDecode = errors.New("imagestore: cannot decode image")

	// ErrTooLarge indicates a source whose decoded size exceeds the
	// configured ceiling. The file is rejected before decoding.
	ErrTooLarge = errors.New("imagestore: image too large")
)

const bytesPerPixel = 4 // RGBA

// decodeFile decodes a source image, rejecting files whose decoded pixel
// data would exceed maxBytes. The size check uses the image header only,
// so oversized files are refused without decoding them.
func decodeFile(path string, maxBytes int64) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if pixelBytes(cfg.Width, cfg.Height) > maxBytes {
		return nil, fmt.Errorf("%w: %s: %dx%d px", ErrTooLarge, path, cfg.Width, cfg.Height)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("rewind source image: %w", err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

func pixelBytes(width, height int) int64 {
	return int64(width) * int64(height) * bytesPerPixel
}
