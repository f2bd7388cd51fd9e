package layout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/sonnes/lekhak/core"
)

// LoadImage reads a PNG or JPEG file for embedding into documents.
func LoadImage(path string) (*core.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}

// DecodeImage reads the dimensions and format of PNG or JPEG bytes.
func DecodeImage(data []byte) (*core.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return &core.Image{Format: format, Width: cfg.Width, Height: cfg.Height, Data: data}, nil
}
