package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"imgreduce/internal/domain"
	"imgreduce/internal/infra/codec"
	"imgreduce/internal/infra/exif"
	infrafs "imgreduce/internal/infra/fs"
	"imgreduce/internal/logging"
)

type workspace struct {
	input  string
	backup string
	output string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{
		input:  filepath.Join(root, "photos"),
		backup: filepath.Join(root, "backup"),
		output: filepath.Join(root, "reduced"),
	}
	if err := os.MkdirAll(ws.input, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return ws
}

func (ws workspace) options() Options {
	return Options{
		BackupDir:  ws.backup,
		OutputDir:  ws.output,
		Quality:    85,
		MaxWidth:   1200,
		MaxHeight:  1200,
		Format:     domain.PolicyAuto,
		Background: color.White,
	}
}

func (ws workspace) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(ws.input, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newRealProcessor() *Processor {
	return &Processor{
		FS:    infrafs.OSFS{},
		Exif:  exif.Reader{},
		Codec: codec.Imaging{},
	}
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// withOrientation splices an APP1 segment carrying the EXIF orientation
// tag right after the SOI marker of a JPEG stream.
func withOrientation(jpegData []byte, orientation byte) []byte {
	tiff := []byte{
		'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, orientation, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	length := len(payload) + 2

	var out bytes.Buffer
	out.Write([]byte{0xff, 0xd8, 0xff, 0xe1, byte(length >> 8), byte(length)})
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func runAll(t *testing.T, p *Processor, ws workspace, opts Options) (domain.RunStats, []domain.FileResult) {
	t.Helper()
	var results []domain.FileResult
	p.OnProgress = func(current, total int, result domain.FileResult) {
		results = append(results, result)
	}
	files, err := p.Discover(context.Background(), ws.input)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	stats, err := p.Run(context.Background(), files, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return stats, results
}

func TestRunDownscalesOversizedJPEG(t *testing.T) {
	ws := newWorkspace(t)
	original := encodeJPEG(t, solid(4032, 3024, color.NRGBA{R: 90, G: 140, B: 200, A: 255}))
	ws.write(t, "large.jpg", original)

	stats, results := runAll(t, newRealProcessor(), ws, ws.options())

	if stats.Processed != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !results[0].Resized {
		t.Fatalf("expected resize to be reported")
	}
	if results[0].Before != (domain.Dimensions{Width: 4032, Height: 3024}) {
		t.Fatalf("unexpected before dimensions %s", results[0].Before)
	}

	reduced := decodeFile(t, filepath.Join(ws.output, "large.jpg"))
	if reduced.Bounds().Dx() != 1200 || reduced.Bounds().Dy() != 900 {
		t.Fatalf("expected 1200x900, got %v", reduced.Bounds().Size())
	}

	backup, err := os.ReadFile(filepath.Join(ws.backup, "large.jpg"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatalf("backup is not byte-identical to the original")
	}
}

func TestRunFlattensAlphaPNGWithoutResize(t *testing.T) {
	ws := newWorkspace(t)
	src := solid(800, 600, color.NRGBA{R: 255, A: 128})
	ws.write(t, "overlay.png", encodePNG(t, src))

	stats, results := runAll(t, newRealProcessor(), ws, ws.options())

	if stats.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d", stats.Processed)
	}
	result := results[0]
	if result.Resized {
		t.Fatalf("image within bounds must not be resized")
	}
	if !result.Converted || result.ModeBefore != domain.ModeRGBA {
		t.Fatalf("expected RGBA to be converted, got mode %s converted=%v", result.ModeBefore, result.Converted)
	}

	reduced := decodeFile(t, filepath.Join(ws.output, "overlay.png"))
	if reduced.Bounds().Dx() != 800 || reduced.Bounds().Dy() != 600 {
		t.Fatalf("expected 800x600, got %v", reduced.Bounds().Size())
	}
	if mode := domain.ColorModeOf(reduced); mode != domain.ModeRGB {
		t.Fatalf("expected RGB output, got %s", mode)
	}
	r, g, b, _ := reduced.At(10, 10).RGBA()
	if r>>8 != 255 || g>>8 < 120 || g>>8 > 135 || g != b {
		t.Fatalf("expected half red blended on white, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestRunConvertsPalettedPNG(t *testing.T) {
	ws := newWorkspace(t)
	palette := color.Palette{color.NRGBA{A: 255}, color.NRGBA{G: 255, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 64, 48), palette)
	ws.write(t, "icon.png", encodePNG(t, src))

	_, results := runAll(t, newRealProcessor(), ws, ws.options())
	if results[0].ModeBefore != domain.ModePalette || !results[0].Converted {
		t.Fatalf("expected palette image to be converted, got %+v", results[0])
	}

	reduced := decodeFile(t, filepath.Join(ws.output, "icon.png"))
	if _, ok := reduced.(*image.Paletted); ok {
		t.Fatalf("expected truecolor output")
	}
	if mode := domain.ColorModeOf(reduced); mode != domain.ModeRGB {
		t.Fatalf("expected RGB output, got %s", mode)
	}
}

func TestRunSkipsCorruptFile(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "broken.jpg", []byte("this is not a jpeg"))
	ws.write(t, "good.png", encodePNG(t, solid(10, 10, color.NRGBA{B: 255, A: 255})))

	stats, results := runAll(t, newRealProcessor(), ws, ws.options())

	if stats.Processed != 1 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	broken := results[0]
	if broken.OK() || broken.Stage != domain.StageDecode {
		t.Fatalf("expected decode failure, got stage %s err %v", broken.Stage, broken.Err)
	}
	if _, err := os.Stat(filepath.Join(ws.output, "broken.jpg")); !os.IsNotExist(err) {
		t.Fatalf("skipped file must not leave a reduced copy")
	}
	if _, err := os.Stat(filepath.Join(ws.backup, "broken.jpg")); err != nil {
		t.Fatalf("backup of skipped file should remain: %v", err)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ws := newWorkspace(t)
	src := image.NewNRGBA(image.Rect(0, 0, 1600, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 1600; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	ws.write(t, "wide.jpg", encodeJPEG(t, src))
	ws.write(t, "wide.png", encodePNG(t, src))

	processor := newRealProcessor()
	runAll(t, processor, ws, ws.options())
	first := map[string][]byte{}
	for _, name := range []string{"wide.jpg", "wide.png"} {
		data, err := os.ReadFile(filepath.Join(ws.output, name))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		first[name] = data
	}

	runAll(t, processor, ws, ws.options())
	for name, data := range first {
		again, err := os.ReadFile(filepath.Join(ws.output, name))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(data, again) {
			t.Fatalf("%s differs between runs", name)
		}
	}

	reduced := decodeFile(t, filepath.Join(ws.output, "wide.png"))
	if reduced.Bounds().Dx() != 1200 || reduced.Bounds().Dy() != 300 {
		t.Fatalf("expected 1200x300, got %v", reduced.Bounds().Size())
	}
}

func TestRunAppliesExifOrientation(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "portrait.jpg", withOrientation(encodeJPEG(t, solid(40, 20, color.NRGBA{G: 200, A: 255})), 6))

	_, results := runAll(t, newRealProcessor(), ws, ws.options())
	if !results[0].Reoriented || results[0].Orientation != 6 {
		t.Fatalf("expected orientation 6 to be applied, got %d", results[0].Orientation)
	}

	reduced := decodeFile(t, filepath.Join(ws.output, "portrait.jpg"))
	if reduced.Bounds().Dx() != 20 || reduced.Bounds().Dy() != 40 {
		t.Fatalf("expected 20x40 after rotation, got %v", reduced.Bounds().Size())
	}
}

func TestRunForcedJPEGPolicy(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "chart.png", encodePNG(t, solid(30, 30, color.NRGBA{R: 10, A: 255})))

	opts := ws.options()
	opts.Format = domain.PolicyJPEG
	_, results := runAll(t, newRealProcessor(), ws, opts)

	if results[0].Format != domain.FormatJPEG {
		t.Fatalf("expected JPEG format, got %s", results[0].Format)
	}
	data, err := os.ReadFile(filepath.Join(ws.output, "chart.png"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Fatalf("expected JPEG stream under the original filename")
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "large.jpg", encodeJPEG(t, solid(1600, 1200, color.NRGBA{R: 1, A: 255})))

	opts := ws.options()
	opts.DryRun = true
	stats, results := runAll(t, newRealProcessor(), ws, opts)

	if stats.Processed != 1 || results[0].ReducedSize == 0 {
		t.Fatalf("expected projected sizes, got %+v", stats)
	}
	if results[0].BackedUp {
		t.Fatalf("dry run must not back up")
	}
	for _, dir := range []string{ws.backup, ws.output} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("dry run must not create %s", dir)
		}
	}
}

func TestRunBackupFailureSkipsFileOnly(t *testing.T) {
	mock := &mockFS{copyErr: errors.New("permission denied")}
	processor := Processor{FS: mock, Exif: mockExif{}, Codec: codec.Imaging{}}

	files := []domain.ImageFile{
		domain.NewImageFile("/photos/a.jpg", 100),
		domain.NewImageFile("/photos/b.jpg", 100),
	}
	stats, err := processor.Run(context.Background(), files, Options{BackupDir: "/backup", OutputDir: "/reduced", Quality: 85, MaxWidth: 10, MaxHeight: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Skipped != 2 || stats.Processed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if mock.copyCalls != 2 {
		t.Fatalf("expected the batch to continue after a failed backup, got %d copy calls", mock.copyCalls)
	}
	if len(mock.written) != 0 {
		t.Fatalf("expected no reduced copies to be written")
	}
}

func TestRunWriteFailureRemovesOutput(t *testing.T) {
	data := encodePNG(t, solid(4, 4, color.NRGBA{A: 255}))
	mock := &mockFS{
		files:    map[string][]byte{"/photos/a.png": data},
		writeErr: errors.New("disk full"),
	}
	processor := Processor{FS: mock, Exif: mockExif{}, Codec: codec.Imaging{}}

	result := processor.ProcessFile(context.Background(), domain.NewImageFile("/photos/a.png", int64(len(data))), Options{BackupDir: "/backup", OutputDir: "/reduced", Quality: 85, MaxWidth: 10, MaxHeight: 10})
	if result.Stage != domain.StageWrite || result.Err == nil {
		t.Fatalf("expected write failure, got stage %s", result.Stage)
	}
	if len(mock.removed) != 1 || mock.removed[0] != "/reduced/a.png" {
		t.Fatalf("expected reduced copy to be removed, got %v", mock.removed)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	mock := &mockFS{}
	processor := Processor{FS: mock, Exif: mockExif{}, Codec: codec.Imaging{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := processor.Run(ctx, []domain.ImageFile{domain.NewImageFile("/photos/a.jpg", 1)}, Options{BackupDir: "/backup", OutputDir: "/reduced"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stats.Processed != 0 || mock.copyCalls != 0 {
		t.Fatalf("expected no work after cancellation")
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	processor := Processor{FS: &mockFS{}}
	if _, err := processor.Run(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error without Exif and Codec")
	}
}

func TestRunSkipsDanglingSymlink(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "good.jpg", encodeJPEG(t, solid(32, 24, color.NRGBA{R: 200, A: 255})))
	if err := os.Symlink(filepath.Join(ws.input, "gone.jpg"), filepath.Join(ws.input, "broken.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	stats, results := runAll(t, newRealProcessor(), ws, ws.options())

	if stats.Processed != 1 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if results[0].File.Name != "broken.jpg" || results[0].Stage != domain.StageBackup {
		t.Fatalf("expected broken.jpg to fail at backup, got %s at %s", results[0].File.Name, results[0].Stage)
	}
	if _, err := os.Stat(filepath.Join(ws.output, "good.jpg")); err != nil {
		t.Fatalf("expected reduced copy of good.jpg: %v", err)
	}
}

func TestRunLogsQualityForLosslessOutput(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "diagram.png", encodePNG(t, solid(16, 16, color.NRGBA{G: 90, A: 255})))

	var log bytes.Buffer
	processor := newRealProcessor()
	processor.Logger = logging.New(&log, true)
	runAll(t, processor, ws, ws.options())

	if !bytes.Contains(log.Bytes(), []byte("Quality 85 does not apply to PNG output of diagram.png")) {
		t.Fatalf("expected lossless quality note in verbose log:\n%s", log.String())
	}
	if !bytes.Contains(log.Bytes(), []byte("No EXIF orientation for diagram.png")) {
		t.Fatalf("expected missing EXIF note in verbose log:\n%s", log.String())
	}
}
