package domain

import "image"

// ColorMode names the pixel layout of a decoded image.
type ColorMode string

const (
	ModeRGB     ColorMode = "RGB"
	ModeRGBA    ColorMode = "RGBA"
	ModePalette ColorMode = "P"
	ModeGray    ColorMode = "L"
	ModeGray16  ColorMode = "I;16"
	ModeCMYK    ColorMode = "CMYK"
)

// ColorModeOf inspects the concrete image type returned by a decoder.
// Alpha-capable types that are fully opaque report RGB.
func ColorModeOf(img image.Image) ColorMode {
	switch m := img.(type) {
	case *image.Paletted:
		return ModePalette
	case *image.Gray:
		return ModeGray
	case *image.Gray16:
		return ModeGray16
	case *image.CMYK:
		return ModeCMYK
	case *image.YCbCr:
		return ModeRGB
	case interface{ Opaque() bool }:
		if m.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	default:
		return ModeRGB
	}
}

// NeedsFlatten reports whether the mode must be composited onto a
// background before it can be written by an encoder without alpha.
func (m ColorMode) NeedsFlatten() bool {
	return m == ModeRGBA || m == ModePalette
}
