package exif

import (
	"context"
	"fmt"
	"os"

	goexif "github.com/rwcarlsen/goexif/exif"

	appErrors "imgreduce/internal/errors"
)

type Reader struct{}

// Orientation returns the EXIF orientation tag (1-8) of the file at path.
func (Reader) Orientation(ctx context.Context, path string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, appErrors.Wrap(appErrors.IOFailure, "open", path, err)
	}
	defer file.Close()

	x, err := goexif.Decode(file)
	if err != nil {
		return 0, appErrors.Wrap(appErrors.ExifFailure, "exif", path, err)
	}

	tag, err := x.Get(goexif.Orientation)
	if err != nil {
		return 0, appErrors.Wrap(appErrors.ExifFailure, "exif", path, err)
	}
	value, err := tag.Int(0)
	if err != nil {
		return 0, appErrors.Wrap(appErrors.ExifFailure, "exif", path, err)
	}
	if value < 1 || value > 8 {
		return 0, appErrors.Wrap(appErrors.ExifFailure, "exif", path, fmt.Errorf("invalid orientation %d", value))
	}
	return value, nil
}
