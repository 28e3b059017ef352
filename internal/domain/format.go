package domain

import (
	"fmt"
	"strings"
)

type OutputFormat string

const (
	FormatJPEG OutputFormat = "JPEG"
	FormatPNG  OutputFormat = "PNG"
	FormatBMP  OutputFormat = "BMP"
	FormatTIFF OutputFormat = "TIFF"
)

// IsLossy reports whether the quality setting affects the encoder.
func (f OutputFormat) IsLossy() bool {
	return f == FormatJPEG
}

// FormatPolicy decides the encoder for a reduced copy.
type FormatPolicy string

const (
	// PolicyAuto keeps the format implied by the file extension.
	PolicyAuto FormatPolicy = "auto"
	// PolicyJPEG writes every reduced copy as JPEG.
	PolicyJPEG FormatPolicy = "jpeg"
)

func ParseFormatPolicy(value string) (FormatPolicy, error) {
	switch FormatPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyAuto:
		return PolicyAuto, nil
	case PolicyJPEG, "jpg":
		return PolicyJPEG, nil
	default:
		return "", fmt.Errorf("unknown format %q, use auto or jpeg", value)
	}
}

// OutputFormat maps a lower-cased source extension to the encoder used for it.
// WebP has no encoder available and falls back to JPEG.
func (p FormatPolicy) OutputFormat(ext string) OutputFormat {
	if p == PolicyJPEG {
		return FormatJPEG
	}
	switch strings.ToLower(ext) {
	case ".png":
		return FormatPNG
	case ".bmp":
		return FormatBMP
	case ".tiff", ".tif":
		return FormatTIFF
	default:
		return FormatJPEG
	}
}
