package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"imgreduce/internal/app"
	"imgreduce/internal/config"
	"imgreduce/internal/domain"
	appErrors "imgreduce/internal/errors"
	"imgreduce/internal/infra/codec"
	"imgreduce/internal/infra/exif"
	"imgreduce/internal/infra/fs"
	"imgreduce/internal/logging"
	"imgreduce/internal/presentation"
	"imgreduce/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		exitWithError(err)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgreduce [input-dir]",
		Short: "Back up, downscale and recompress a folder of images",
		Long: "imgreduce copies every JPEG, PNG, BMP, TIFF and WebP file of a folder into a backup folder,\n" +
			"then writes a reoriented, flattened, downscaled and recompressed copy into a reduced folder.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), args)
			if err != nil {
				return appErrors.Wrap(appErrors.InvalidConfig, "config", "", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	filesystem := fs.OSFS{}
	logger := logging.New(os.Stderr, cfg.Verbose)

	info, err := filesystem.Stat(cfg.InputDir)
	if err != nil {
		return appErrors.Wrap(appErrors.NotFound, "stat", cfg.InputDir, err)
	}
	if !info.IsDir() {
		return appErrors.Wrap(appErrors.InvalidConfig, "stat", cfg.InputDir, fmt.Errorf("%s is not a directory", cfg.InputDir))
	}

	processor := &app.Processor{
		FS:     filesystem,
		Exif:   exif.Reader{},
		Codec:  codec.Imaging{},
		Logger: logger,
	}

	files, err := processor.Discover(ctx, cfg.InputDir)
	if err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "scan", cfg.InputDir, err)
	}

	printer := presentation.Printer{
		Writer:  os.Stdout,
		Verbose: cfg.Verbose,
	}
	if len(files) == 0 {
		printer.PrintNoImages(cfg.InputDir)
		return nil
	}

	opts := app.Options{
		BackupDir:  cfg.BackupDir,
		OutputDir:  cfg.OutputDir,
		Quality:    cfg.Quality,
		MaxWidth:   cfg.MaxWidth,
		MaxHeight:  cfg.MaxHeight,
		Format:     cfg.FormatPolicy(),
		Background: cfg.BackgroundColor(),
		DryRun:     cfg.DryRun,
	}
	runInfo := presentation.RunInfo{
		InputDir:  cfg.InputDir,
		BackupDir: cfg.BackupDir,
		OutputDir: cfg.OutputDir,
		Quality:   cfg.Quality,
		MaxWidth:  cfg.MaxWidth,
		MaxHeight: cfg.MaxHeight,
		Format:    opts.Format,
		Count:     len(files),
		DryRun:    cfg.DryRun,
	}

	if cfg.Interactive {
		return runInteractive(ctx, processor, files, opts, runInfo)
	}

	printer.PrintHeader(runInfo)
	processor.OnProgress = func(current, total int, result domain.FileResult) {
		printer.PrintResult(result)
	}
	stats, err := processor.Run(ctx, files, opts)
	printer.PrintSummary(stats, runInfo)
	if err != nil {
		return wrapRunError(err, cfg.InputDir)
	}
	return nil
}

// runInteractive drives the same sequential batch from a background
// goroutine and streams its progress into the TUI.
func runInteractive(ctx context.Context, processor *app.Processor, files []domain.ImageFile, opts app.Options, info presentation.RunInfo) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Log lines would tear the alternate screen.
	processor.Logger = processor.Logger.Silenced()

	program := tea.NewProgram(tui.NewModel(tui.Config{
		InputDir:  info.InputDir,
		BackupDir: info.BackupDir,
		OutputDir: info.OutputDir,
		Total:     len(files),
		DryRun:    info.DryRun,
		Cancel:    cancel,
	}))

	processor.OnProgress = func(current, total int, result domain.FileResult) {
		program.Send(tui.FileDoneMsg{Current: current, Total: total, Result: result})
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		runErr = streamBatch(ctx, processor, files, opts, info.InputDir, program.Send)
	}()

	_, err := program.Run()
	cancel()
	<-done
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}
	return runErr
}

// streamBatch runs the batch and reports its outcome as a TUI message.
// The returned error is the one shown to the user, so the exit code
// matches the non-interactive run.
func streamBatch(ctx context.Context, processor *app.Processor, files []domain.ImageFile, opts app.Options, inputDir string, send func(tea.Msg)) error {
	stats, err := processor.Run(ctx, files, opts)
	if err != nil {
		err = wrapRunError(err, inputDir)
		send(tui.ErrorMsg{Err: err})
		return err
	}
	send(tui.RunDoneMsg{Stats: stats})
	return nil
}

func wrapRunError(err error, inputDir string) error {
	if errors.Is(err, context.Canceled) {
		return appErrors.Wrap(appErrors.Canceled, "process", inputDir, err)
	}
	return appErrors.Wrap(appErrors.KindOf(err), "process", inputDir, err)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
	os.Exit(1)
}
