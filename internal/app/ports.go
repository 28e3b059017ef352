package app

import (
	"context"
	"image"
	"io"
	"io/fs"

	"imgreduce/internal/domain"
)

type FileSystem interface {
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	CopyFile(src, dst string) error
	WriteFile(path string, data []byte, perm fs.FileMode) error
	Remove(path string) error
}

type ExifReader interface {
	Orientation(ctx context.Context, path string) (int, error)
}

type Codec interface {
	Decode(r io.Reader) (image.Image, error)
	Encode(w io.Writer, img image.Image, format domain.OutputFormat, quality int) error
}
