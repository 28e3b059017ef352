package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"imgreduce/internal/domain"
)

const envPrefix = "IMGREDUCE_"

type Config struct {
	InputDir    string
	BackupDir   string
	OutputDir   string
	Quality     int
	MaxWidth    int
	MaxHeight   int
	Format      string
	Background  string
	DryRun      bool
	Verbose     bool
	Interactive bool
}

// fileConfig mirrors the YAML config file. Pointer fields stay nil when a
// key is absent so it does not override the defaults.
type fileConfig struct {
	Input      *string `yaml:"input"`
	Backup     *string `yaml:"backup"`
	Output     *string `yaml:"output"`
	Quality    *int    `yaml:"quality"`
	MaxWidth   *int    `yaml:"max_width"`
	MaxHeight  *int    `yaml:"max_height"`
	Format     *string `yaml:"format"`
	Background *string `yaml:"background"`
	Verbose    *bool   `yaml:"verbose"`
}

func Default() Config {
	return Config{
		InputDir:   "photos",
		Quality:    85,
		MaxWidth:   1200,
		MaxHeight:  1200,
		Format:     string(domain.PolicyAuto),
		Background: "#ffffff",
	}
}

func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.StringP("input", "i", d.InputDir, "Directory containing the original images")
	flags.StringP("backup", "b", "", "Directory for backup copies (default: \"backup\" next to the input directory)")
	flags.StringP("output", "o", "", "Directory for reduced copies (default: \"reduced\" next to the input directory)")
	flags.IntP("quality", "q", d.Quality, "JPEG quality (1-100)")
	flags.Int("max-width", d.MaxWidth, "Maximum width in pixels")
	flags.Int("max-height", d.MaxHeight, "Maximum height in pixels")
	flags.StringP("format", "f", d.Format, "Output format: auto (keep per extension) or jpeg")
	flags.String("background", d.Background, "Background color used when flattening transparency")
	flags.BoolP("dry-run", "d", false, "Report projected savings without writing files")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.Bool("tui", false, "Show an interactive progress view")
	flags.StringP("config", "c", "", "Path to a YAML config file")
}

// Load merges defaults, the config file, the environment and explicitly set
// flags, in that order. A positional argument replaces the input directory.
func Load(flags *pflag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	if len(args) > 1 {
		return Config{}, errors.New("expected at most one input directory")
	}

	configPath := envOrEmpty(envPrefix + "CONFIG")
	if flags.Changed("config") {
		configPath, _ = flags.GetString("config")
	}
	if configPath != "" {
		if err := applyFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyFlags(&cfg, flags)

	if len(args) == 1 {
		cfg.InputDir = args[0]
	}

	cfg.resolveDirs()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.InputDir, fc.Input)
	setString(&cfg.BackupDir, fc.Backup)
	setString(&cfg.OutputDir, fc.Output)
	setString(&cfg.Format, fc.Format)
	setString(&cfg.Background, fc.Background)
	if fc.Quality != nil {
		cfg.Quality = *fc.Quality
	}
	if fc.MaxWidth != nil {
		cfg.MaxWidth = *fc.MaxWidth
	}
	if fc.MaxHeight != nil {
		cfg.MaxHeight = *fc.MaxHeight
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if val := envOrEmpty(envPrefix + "INPUT_DIR"); val != "" {
		cfg.InputDir = val
	}
	if val := envOrEmpty(envPrefix + "BACKUP_DIR"); val != "" {
		cfg.BackupDir = val
	}
	if val := envOrEmpty(envPrefix + "OUTPUT_DIR"); val != "" {
		cfg.OutputDir = val
	}
	if val := envOrEmpty(envPrefix + "FORMAT"); val != "" {
		cfg.Format = val
	}
	if val := envOrEmpty(envPrefix + "BACKGROUND"); val != "" {
		cfg.Background = val
	}
	for key, target := range map[string]*int{
		"QUALITY":    &cfg.Quality,
		"MAX_WIDTH":  &cfg.MaxWidth,
		"MAX_HEIGHT": &cfg.MaxHeight,
	} {
		val := envOrEmpty(envPrefix + key)
		if val == "" {
			continue
		}
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q is not a number", envPrefix, key, val)
		}
		*target = parsed
	}
	if envTruthy(envPrefix + "VERBOSE") {
		cfg.Verbose = true
	}
	return nil
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) {
	stringFlags := map[string]*string{
		"input":      &cfg.InputDir,
		"backup":     &cfg.BackupDir,
		"output":     &cfg.OutputDir,
		"format":     &cfg.Format,
		"background": &cfg.Background,
	}
	for name, target := range stringFlags {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
	intFlags := map[string]*int{
		"quality":    &cfg.Quality,
		"max-width":  &cfg.MaxWidth,
		"max-height": &cfg.MaxHeight,
	}
	for name, target := range intFlags {
		if flags.Changed(name) {
			*target, _ = flags.GetInt(name)
		}
	}
	boolFlags := map[string]*bool{
		"dry-run": &cfg.DryRun,
		"verbose": &cfg.Verbose,
		"tui":     &cfg.Interactive,
	}
	for name, target := range boolFlags {
		if flags.Changed(name) {
			*target, _ = flags.GetBool(name)
		}
	}
}

// resolveDirs places the backup and reduced folders next to the input
// folder unless they were configured.
func (c *Config) resolveDirs() {
	c.InputDir = filepath.Clean(c.InputDir)
	parent := filepath.Dir(c.InputDir)
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(parent, "backup")
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(parent, "reduced")
	}
	c.BackupDir = filepath.Clean(c.BackupDir)
	c.OutputDir = filepath.Clean(c.OutputDir)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return errors.New("input directory is required")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.MaxWidth < 1 || c.MaxHeight < 1 {
		return fmt.Errorf("max dimensions must be positive, got %dx%d", c.MaxWidth, c.MaxHeight)
	}
	if _, err := domain.ParseFormatPolicy(c.Format); err != nil {
		return err
	}
	if _, err := ParseColor(c.Background); err != nil {
		return err
	}

	input := absOrSelf(c.InputDir)
	backup := absOrSelf(c.BackupDir)
	output := absOrSelf(c.OutputDir)
	if backup == input || output == input {
		return errors.New("backup and output directories must differ from the input directory")
	}
	if backup == output {
		return errors.New("backup and output directories must differ")
	}
	return nil
}

func (c Config) FormatPolicy() domain.FormatPolicy {
	policy, err := domain.ParseFormatPolicy(c.Format)
	if err != nil {
		return domain.PolicyAuto
	}
	return policy
}

func (c Config) BackgroundColor() color.Color {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return color.White
	}
	return bg
}

// ParseColor accepts "white", "black", "#rgb" and "#rrggbb".
func ParseColor(value string) (color.NRGBA, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	switch raw {
	case "white":
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	case "black":
		return color.NRGBA{A: 0xff}, nil
	}

	hex := strings.TrimPrefix(raw, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid background color %q, use #rrggbb", value)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid background color %q, use #rrggbb", value)
	}
	return color.NRGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}, nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = strings.TrimSpace(*value)
	}
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envTruthy(key string) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "y"
}
