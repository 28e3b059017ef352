package codec

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imgreduce/internal/domain"
)

// Imaging decodes every registered input format and encodes through
// disintegration/imaging.
type Imaging struct{}

// Decode returns the image as produced by the format decoder, without
// orientation correction, so the caller can still inspect its color mode.
func (Imaging) Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

func (Imaging) Encode(w io.Writer, img image.Image, format domain.OutputFormat, quality int) error {
	switch format {
	case domain.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case domain.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case domain.FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case domain.FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
