package app

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// EXIF orientation values.
const (
	orientationNormal     = 1
	orientationFlipH      = 2
	orientationRotate180  = 3
	orientationFlipV      = 4
	orientationTranspose  = 5
	orientationRotate90   = 6
	orientationTransverse = 7
	orientationRotate270  = 8
)

// Orient undoes the rotation or mirroring recorded in an EXIF orientation
// tag so the pixels display upright without viewer support.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case orientationFlipH:
		return imaging.FlipH(img)
	case orientationRotate180:
		return imaging.Rotate180(img)
	case orientationFlipV:
		return imaging.FlipV(img)
	case orientationTranspose:
		return imaging.Transpose(img)
	case orientationRotate90:
		return imaging.Rotate270(img)
	case orientationTransverse:
		return imaging.Transverse(img)
	case orientationRotate270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Flatten composites img over an opaque background of the same size.
// A nil background means white.
func Flatten(img image.Image, background color.Color) *image.NRGBA {
	if background == nil {
		background = color.White
	}
	size := img.Bounds().Size()
	canvas := imaging.New(size.X, size.Y, background)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Fit scales img down with the Lanczos filter so that it fits inside
// maxWidth x maxHeight, keeping the aspect ratio. The free side is rounded
// to the nearest pixel. Images that already fit are returned unchanged.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	size := img.Bounds().Size()
	if size.X <= maxWidth && size.Y <= maxHeight {
		return img
	}
	width, height := fitSize(size.X, size.Y, maxWidth, maxHeight)
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func fitSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width*maxHeight >= height*maxWidth {
		return maxWidth, max(1, int(math.Round(float64(height)*float64(maxWidth)/float64(width))))
	}
	return max(1, int(math.Round(float64(width)*float64(maxHeight)/float64(height)))), maxHeight
}
