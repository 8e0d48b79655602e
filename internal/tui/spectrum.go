// SPDX-License-Identifier: MIT
//
// Package tui renders the spectrum bar in the terminal with Bubble Tea and
// hosts the interactive device picker.
package tui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"melbar/internal/analysis"
	applog "melbar/internal/log"
	"melbar/internal/transport"
	"melbar/internal/visualizer"
)

// Header and footer lines around the bar.
const chromeRows = 2

type tickMsg time.Time

// SpectrumModel draws one terminal row per pixel of the bar, band 0 at the
// bottom. The Bubble Tea update loop is the only goroutine that touches the
// pipeline while the model runs.
type SpectrumModel struct {
	pipeline *analysis.Pipeline
	sink     transport.Transport // Optional; receives a Frame per rendered tick.
	interval time.Duration
	source   string

	width, height int
	colors        []color.RGBA
	amplitudes    []float64
	blank         string // width spaces, painted with each row's background.
	seq           uint64
	paused        bool
}

// NewSpectrumModel renders pipeline every interval. source names the input
// in the header. sink may be nil.
func NewSpectrumModel(pipeline *analysis.Pipeline, sink transport.Transport, interval time.Duration, source string) SpectrumModel {
	return SpectrumModel{
		pipeline: pipeline,
		sink:     sink,
		interval: interval,
		source:   source,
	}
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the frame clock.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

// Rows returns the number of bar rows for the current window.
func (m SpectrumModel) Rows() int {
	return max(m.height-chromeRows, 0)
}

func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.blank = strings.Repeat(" ", max(m.width, 0))
		// Repaint the last amplitudes at the new height.
		m.colors = m.pipeline.Render(m.Rows(), m.colors)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		}

	case tickMsg:
		if !m.paused {
			m.render(time.Time(msg))
		}
		return m, m.tick()
	}
	return m, nil
}

// render runs one analysis pass and publishes the frame.
func (m *SpectrumModel) render(at time.Time) {
	m.amplitudes = m.pipeline.Process()
	m.colors = m.pipeline.Render(m.Rows(), m.colors)

	if m.sink == nil {
		return
	}
	m.seq++
	if err := m.sink.Send(visualizer.NewFrame(m.seq, at, m.amplitudes, m.colors)); err != nil {
		applog.Warnf("TUI: Failed to publish frame %d: %v", m.seq, err)
	}
}

// View renders the header, one painted line per row and the help line.
func (m SpectrumModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteByte('\n')

	for _, c := range m.colors {
		sb.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(visualizer.Hex(c))).Render(m.blank))
		sb.WriteByte('\n')
	}
	// Until the first tick the bar area is empty.
	for range m.Rows() - len(m.colors) {
		sb.WriteByte('\n')
	}

	help := helpLine(keys.Pause, keys.Quit)
	if m.paused {
		help = highlightStyle.Render("paused") + "  " + help
	}
	sb.WriteString(dimStyle.Render(help))
	return sb.String()
}

func (m SpectrumModel) header() string {
	p := m.pipeline.Params()
	info := fmt.Sprintf(" %s · %d bands · %.0f-%.0f Hz · FFT %d", m.source, p.Bands, p.MinHz, p.MaxHz, p.FFTSize)
	return titleStyle.Render("melbar") + infoStyle.Render(info)
}

// RunSpectrum shows the spectrum full screen until the user quits.
func RunSpectrum(m SpectrumModel) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
