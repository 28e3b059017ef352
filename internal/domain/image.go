package domain

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the input extensions picked up by discovery, lower-cased.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".webp"}

type ImageFile struct {
	SourcePath string
	Name       string
	Ext        string
	Size       int64
}

func NewImageFile(sourcePath string, size int64) ImageFile {
	name := filepath.Base(sourcePath)
	return ImageFile{
		SourcePath: sourcePath,
		Name:       name,
		Ext:        strings.ToLower(filepath.Ext(name)),
		Size:       size,
	}
}

func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

type Dimensions struct {
	Width  int
	Height int
}

func DimensionsOf(img image.Image) Dimensions {
	b := img.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

func (d Dimensions) Exceeds(maxWidth, maxHeight int) bool {
	return d.Width > maxWidth || d.Height > maxHeight
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}
