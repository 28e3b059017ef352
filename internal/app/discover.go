package app

import (
	"context"
	"errors"
	"path/filepath"
	"sort"

	"imgreduce/internal/domain"
)

// Discover lists the supported image files directly inside inputDir,
// sorted by name. Subdirectories are not descended into.
func (p *Processor) Discover(ctx context.Context, inputDir string) ([]domain.ImageFile, error) {
	if p.FS == nil {
		return nil, errors.New("discover requires FS")
	}

	stop := p.Logger.Measure("Scanning input directory")
	defer stop()

	entries, err := p.FS.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var files []domain.ImageFile
	ignored := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if entry.IsDir() {
			continue
		}
		if !domain.IsSupportedExtension(filepath.Ext(entry.Name())) {
			ignored++
			continue
		}

		path := filepath.Join(inputDir, entry.Name())
		info, err := p.FS.Stat(path)
		if err != nil {
			// Listed but unreadable, e.g. a dangling symlink. The backup
			// step fails it so the rest of the batch still runs.
			p.Logger.Verbosef("Cannot stat %s: %v", path, err)
			files = append(files, domain.NewImageFile(path, 0))
			continue
		}
		if info.IsDir() {
			continue
		}
		files = append(files, domain.NewImageFile(path, info.Size()))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	p.Logger.Verbosef("Found %d image files in %s (%d other files ignored)", len(files), inputDir, ignored)
	return files, nil
}
