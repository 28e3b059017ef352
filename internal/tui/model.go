package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"imgreduce/internal/domain"
	appErrors "imgreduce/internal/errors"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseProcessing Phase = iota
	PhaseDone
	PhaseError
)

const recentLimit = 5

// Messages for the TUI
type (
	FileDoneMsg struct {
		Current int
		Total   int
		Result  domain.FileResult
	}
	RunDoneMsg struct {
		Stats domain.RunStats
	}
	ErrorMsg struct {
		Err error
	}
	tickMsg time.Time
)

// Config for the TUI
type Config struct {
	InputDir  string
	BackupDir string
	OutputDir string
	Total     int
	DryRun    bool
	// Cancel stops the running batch when the user quits early.
	Cancel func()
}

// Model is the main TUI model
type Model struct {
	config   Config
	Phase    Phase
	Stats    domain.RunStats
	spinner  spinner.Model
	progress progress.Model
	current  int
	total    int
	recent   []domain.FileResult
	Err      error
	Quitting bool
	width    int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:   cfg,
		Phase:    PhaseProcessing,
		spinner:  s,
		progress: p,
		total:    cfg.Total,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.Phase == PhaseProcessing && m.config.Cancel != nil {
				m.config.Cancel()
			}
			m.Quitting = true
			return m, tea.Quit
		case "enter":
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case FileDoneMsg:
		m.current = msg.Current
		m.total = msg.Total
		m.Stats.Record(msg.Result)
		m.recent = append(m.recent, msg.Result)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		return m, nil

	case RunDoneMsg:
		m.Phase = PhaseDone
		m.Stats = msg.Stats
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseProcessing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseProcessing {
			var cmds []tea.Cmd
			if m.total > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.current)/float64(m.total)))
			}
			cmds = append(cmds, tickCmd())
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseProcessing:
		b.WriteString(m.renderProcessing())
	case PhaseDone:
		b.WriteString(m.renderRecent())
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("🗜 imgreduce")
	subtitle := subtitleStyle.Render("Shrink a folder of photos, keep the originals")

	dim := dimStyle()

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dim.Render(fmt.Sprintf("%s Input:   %s", iconFolder, shortenPath(m.config.InputDir))),
		dim.Render(fmt.Sprintf("%s Backup:  %s", iconFolder, shortenPath(m.config.BackupDir))),
		dim.Render(fmt.Sprintf("%s Reduced: %s", iconFolder, shortenPath(m.config.OutputDir))),
	)
}

func (m Model) renderProcessing() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Compressing"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	percentStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	b.WriteString(fmt.Sprintf("  %s Processing images...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))
	b.WriteString(fmt.Sprintf("  %s %s\n\n",
		countStyle.Render(fmt.Sprintf("%d/%d files", m.current, m.total)),
		percentStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))
	b.WriteString(m.renderRecent())

	return b.String()
}

func (m Model) renderRecent() string {
	var b strings.Builder
	for _, result := range m.recent {
		b.WriteString("  ")
		b.WriteString(formatResult(result))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Processed:"), successStyle.Render(fmt.Sprintf("%s %d", iconSuccess, m.Stats.Processed))))
	if m.Stats.Skipped > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Skipped:"), warningStyle.Render(fmt.Sprintf("%s %d", iconWarning, m.Stats.Skipped))))
	}
	if m.Stats.Processed > 0 {
		sizes := fmt.Sprintf("%s %s %s", formatMB(m.Stats.OriginalBytes), iconArrow, formatMB(m.Stats.ReducedBytes))
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Size:"), statValueStyle.Render(sizes)))
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Reduction:"), statValueStyle.Render(fmt.Sprintf("%.1f%%", m.Stats.ReductionPercent()))))
	}

	if m.config.DryRun {
		b.WriteString("\n")
		b.WriteString(highlightBoxStyle.Render("🔍 Dry Run - No files were written"))
	}

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", appErrors.UserMessage(m.Err)))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseProcessing:
		help = "Press q to stop after the current file"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

func formatResult(result domain.FileResult) string {
	name := fileNameStyle.Render(result.File.Name)
	if !result.OK() {
		return fmt.Sprintf("%s %s  %s", warningStyle.Render(iconWarning), name, dimStyle().Render(string(result.Stage)+" failed"))
	}

	detail := fmt.Sprintf("%.1f%%", result.ReductionPercent())
	if result.Resized {
		detail = fmt.Sprintf("%s %s %s, %s", result.Before, iconArrow, result.After, detail)
	}
	return fmt.Sprintf("%s %s  %s", successStyle.Render(iconSuccess), name, dimStyle().Render(detail))
}

func formatMB(size int64) string {
	return fmt.Sprintf("%.1fMB", float64(size)/1024/1024)
}

func dimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(dimTextColor)
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
