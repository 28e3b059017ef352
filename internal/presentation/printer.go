package presentation

import (
	"fmt"
	"io"
	"strings"

	"imgreduce/internal/domain"
	appErrors "imgreduce/internal/errors"
)

const separator = "--------------------------------------------------"

// RunInfo describes a batch for the header and summary blocks.
type RunInfo struct {
	InputDir  string
	BackupDir string
	OutputDir string
	Quality   int
	MaxWidth  int
	MaxHeight int
	Format    domain.FormatPolicy
	Count     int
	DryRun    bool
}

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

func (p Printer) PrintNoImages(inputDir string) {
	fmt.Fprintf(p.Writer, "No image files found in %s\n", inputDir)
	fmt.Fprintf(p.Writer, "Supported formats: %s\n", strings.Join(domain.SupportedExtensions, ", "))
}

func (p Printer) PrintHeader(info RunInfo) {
	if info.DryRun {
		fmt.Fprintln(p.Writer, "Starting image compression (dry run)...")
	} else {
		fmt.Fprintln(p.Writer, "Starting image compression...")
	}
	fmt.Fprintf(p.Writer, "Input folder: %s\n", info.InputDir)
	fmt.Fprintf(p.Writer, "Backup folder: %s\n", info.BackupDir)
	fmt.Fprintf(p.Writer, "Reduced folder: %s\n", info.OutputDir)
	fmt.Fprintf(p.Writer, "Quality: %d, Max dimensions: %dx%d\n", info.Quality, info.MaxWidth, info.MaxHeight)
	if p.Verbose {
		fmt.Fprintf(p.Writer, "Output format: %s\n", info.Format)
	}
	fmt.Fprintf(p.Writer, "Found %d image(s) to process\n", info.Count)
	fmt.Fprintln(p.Writer, separator)
}

// PrintResult writes the lines for one processed or skipped file.
func (p Printer) PrintResult(result domain.FileResult) {
	for _, line := range FormatResultLines(result) {
		fmt.Fprintln(p.Writer, line)
	}
}

func (p Printer) PrintSummary(stats domain.RunStats, info RunInfo) {
	fmt.Fprintln(p.Writer, separator)
	fmt.Fprintln(p.Writer, "Processing complete!")
	fmt.Fprintf(p.Writer, "Images processed: %d\n", stats.Processed)
	if stats.Skipped > 0 {
		fmt.Fprintf(p.Writer, "Images skipped: %d\n", stats.Skipped)
	}

	if stats.Processed == 0 {
		return
	}

	fmt.Fprintf(p.Writer, "Total size reduction: %s → %s (%.1f%% reduction)\n",
		formatMB(stats.OriginalBytes), formatMB(stats.ReducedBytes), stats.ReductionPercent())

	fmt.Fprintln(p.Writer)
	if info.DryRun {
		fmt.Fprintln(p.Writer, "Dry run: no files were written.")
		return
	}
	fmt.Fprintf(p.Writer, "Original images backed up in: %s\n", info.BackupDir)
	fmt.Fprintf(p.Writer, "Reduced images saved in: %s\n", info.OutputDir)
}

func FormatResultLines(result domain.FileResult) []string {
	name := result.File.Name
	var lines []string

	if result.BackedUp {
		lines = append(lines, fmt.Sprintf("Created backup: %s", name))
	}
	if !result.OK() {
		lines = append(lines, fmt.Sprintf("Warning: skipped %s: %s", name, appErrors.UserMessage(result.Err)))
		return lines
	}
	if result.Reoriented {
		lines = append(lines, fmt.Sprintf("Reoriented %s using EXIF orientation %d", name, result.Orientation))
	}
	if result.Converted {
		lines = append(lines, fmt.Sprintf("Converted %s from %s to %s", name, result.ModeBefore, domain.ModeRGB))
	}
	if result.Resized {
		lines = append(lines, fmt.Sprintf("Resized %s from %s to %s", name, result.Before, result.After))
	}
	lines = append(lines, fmt.Sprintf("Compressed %s: %s → %s (%.1f%% reduction)",
		name, formatKB(result.OriginalSize), formatKB(result.ReducedSize), result.ReductionPercent()))
	return lines
}

func formatKB(size int64) string {
	return fmt.Sprintf("%.1fKB", float64(size)/1024)
}

func formatMB(size int64) string {
	return fmt.Sprintf("%.1fMB", float64(size)/1024/1024)
}
