package app

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"path/filepath"

	"imgreduce/internal/domain"
	appErrors "imgreduce/internal/errors"
	"imgreduce/internal/logging"
)

// ProgressFunc is called after each file with its result.
type ProgressFunc func(current, total int, result domain.FileResult)

// Options are fixed for the duration of a run.
type Options struct {
	BackupDir  string
	OutputDir  string
	Quality    int
	MaxWidth   int
	MaxHeight  int
	Format     domain.FormatPolicy
	Background color.Color
	DryRun     bool
}

type Processor struct {
	FS         FileSystem
	Exif       ExifReader
	Codec      Codec
	Logger     logging.Logger
	OnProgress ProgressFunc
}

// Run processes files one after another. A file that fails is counted as
// skipped and the batch continues. Cancellation is checked between files;
// the statistics gathered so far are returned with the context error.
func (p *Processor) Run(ctx context.Context, files []domain.ImageFile, opts Options) (domain.RunStats, error) {
	var stats domain.RunStats
	if p.FS == nil || p.Exif == nil || p.Codec == nil {
		return stats, errors.New("processor requires FS, Exif and Codec")
	}

	stop := p.Logger.Measure("Processing batch")
	defer stop()

	if !opts.DryRun {
		for _, dir := range []string{opts.BackupDir, opts.OutputDir} {
			if err := p.FS.MkdirAll(dir, 0o755); err != nil {
				return stats, appErrors.Wrap(appErrors.IOFailure, "mkdir", dir, err)
			}
		}
	}

	for i, file := range files {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		result := p.ProcessFile(ctx, file, opts)
		if result.Err != nil && ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Record(result)

		if p.OnProgress != nil {
			p.OnProgress(i+1, len(files), result)
		}
	}

	p.Logger.Verbosef("Processed %d files, skipped %d", stats.Processed, stats.Skipped)
	return stats, nil
}

// ProcessFile backs up one file and writes its reduced copy.
func (p *Processor) ProcessFile(ctx context.Context, file domain.ImageFile, opts Options) domain.FileResult {
	result := domain.FileResult{
		File:         file,
		BackupPath:   filepath.Join(opts.BackupDir, file.Name),
		OutputPath:   filepath.Join(opts.OutputDir, file.Name),
		Format:       opts.Format.OutputFormat(file.Ext),
		OriginalSize: file.Size,
	}

	if !opts.DryRun {
		if err := p.FS.CopyFile(file.SourcePath, result.BackupPath); err != nil {
			return p.fail(result, domain.StageBackup, appErrors.Wrap(appErrors.IOFailure, "backup", result.BackupPath, err), opts)
		}
		result.BackedUp = true
	}

	data, err := p.FS.ReadFile(file.SourcePath)
	if err != nil {
		return p.fail(result, domain.StageDecode, appErrors.Wrap(appErrors.IOFailure, "read", file.SourcePath, err), opts)
	}
	img, err := p.Codec.Decode(bytes.NewReader(data))
	if err != nil {
		return p.fail(result, domain.StageDecode, appErrors.Wrap(appErrors.DecodeFailure, "decode", file.SourcePath, err), opts)
	}
	result.ModeBefore = domain.ColorModeOf(img)

	orientation, err := p.Exif.Orientation(ctx, file.SourcePath)
	if err != nil {
		if ctx.Err() != nil {
			return p.fail(result, domain.StageDecode, err, opts)
		}
		if appErrors.KindOf(err) == appErrors.ExifFailure {
			p.Logger.Verbosef("No EXIF orientation for %s", file.Name)
		} else {
			p.Logger.Verbosef("Cannot read EXIF of %s: %v", file.Name, err)
		}
		orientation = orientationNormal
	}
	if orientation != orientationNormal {
		img = Orient(img, orientation)
		result.Orientation = orientation
		result.Reoriented = true
	}
	result.Before = domain.DimensionsOf(img)

	if result.ModeBefore.NeedsFlatten() {
		img = Flatten(img, opts.Background)
		result.Converted = true
	}

	if result.Before.Exceeds(opts.MaxWidth, opts.MaxHeight) {
		img = Fit(img, opts.MaxWidth, opts.MaxHeight)
		result.Resized = true
	}
	result.After = domain.DimensionsOf(img)

	if !result.Format.IsLossy() {
		p.Logger.Verbosef("Quality %d does not apply to %s output of %s", opts.Quality, result.Format, file.Name)
	}

	var buf bytes.Buffer
	if err := p.Codec.Encode(&buf, img, result.Format, opts.Quality); err != nil {
		return p.fail(result, domain.StageEncode, appErrors.Wrap(appErrors.EncodeFailure, "encode", result.OutputPath, err), opts)
	}

	if !opts.DryRun {
		if exists, _ := p.FS.Exists(result.OutputPath); exists {
			p.Logger.Verbosef("Overwriting %s", result.OutputPath)
		}
		if err := p.FS.WriteFile(result.OutputPath, buf.Bytes(), 0o644); err != nil {
			return p.fail(result, domain.StageWrite, appErrors.Wrap(appErrors.IOFailure, "write", result.OutputPath, err), opts)
		}
	}

	result.ReducedSize = int64(buf.Len())
	result.Stage = domain.StageDone
	return result
}

// fail records err on the result. A skipped file never keeps a reduced
// copy, including one left over from an earlier run.
func (p *Processor) fail(result domain.FileResult, stage domain.Stage, err error, opts Options) domain.FileResult {
	result.Stage = stage
	result.Err = err
	if !opts.DryRun {
		if removeErr := p.FS.Remove(result.OutputPath); removeErr != nil {
			p.Logger.Verbosef("Could not remove %s: %v", result.OutputPath, removeErr)
		}
	}
	return result
}
