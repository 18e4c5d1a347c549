// SPDX-License-Identifier: MIT
/*
Package tui renders the visualizer in the terminal with Bubble Tea. It has
two models: a capture device browser and a live bar view fed by the frame
loop through a FrameForwarder sink.
*/
package tui

import (
	"fmt"
	"strings"

	"barviz/internal/viz"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// barGlyphs maps a normalized height to a block character, lowest to highest.
var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

var (
	barStyleLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	barStyleMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8C547"))
	barStyleHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#D64550"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// FrameMsg delivers one animation frame to the bar view.
type FrameMsg viz.Frame

// BarViewModel renders bar heights as a strip of block characters. Bars are
// downsampled to the terminal width by taking the peak of each bucket, so
// narrow terminals still show transients.
type BarViewModel struct {
	frame     viz.Frame
	maxHeight float64
	width     int
	height    int
	ready     bool
	paused    bool

	keys barViewKeyMap
}

type barViewKeyMap struct {
	Pause key.Binding
	Quit  key.Binding
}

// NewBarViewModel creates a bar view scaled against maxHeight.
func NewBarViewModel(maxHeight float64) BarViewModel {
	if maxHeight <= 0 {
		maxHeight = 1
	}
	return BarViewModel{
		maxHeight: maxHeight,
		keys: barViewKeyMap{
			Pause: key.NewBinding(key.WithKeys(" ", "p")),
			Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
		},
	}
}

// Init implements tea.Model.
func (m BarViewModel) Init() tea.Cmd {
	return nil
}

// Update handles frames and key input.
func (m BarViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case FrameMsg:
		if !m.paused {
			m.frame = viz.Frame(msg)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		}
	}

	return m, nil
}

// View renders the bar strip with a status line underneath.
func (m BarViewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderBars())
	sb.WriteString("\n")

	status := fmt.Sprintf("frame %d • %d bars • space: pause • q: quit",
		m.frame.Sequence, len(m.frame.Heights))
	if m.paused {
		status = "PAUSED • " + status
	}
	sb.WriteString(statusStyle.Render(status))

	return sb.String()
}

// renderBars maps heights onto block glyphs, one column per terminal cell.
func (m BarViewModel) renderBars() string {
	if len(m.frame.Heights) == 0 || m.width <= 0 {
		return strings.Repeat(string(barGlyphs[0]), max(m.width, 0))
	}

	columns := m.width
	if columns > len(m.frame.Heights) {
		columns = len(m.frame.Heights)
	}

	var sb strings.Builder
	perColumn := float64(len(m.frame.Heights)) / float64(columns)
	for col := 0; col < columns; col++ {
		start := int(float64(col) * perColumn)
		end := int(float64(col+1) * perColumn)
		if end <= start {
			end = start + 1
		}
		if end > len(m.frame.Heights) {
			end = len(m.frame.Heights)
		}

		// Peak within the bucket, not the mean, so short spikes stay visible.
		peak := 0.0
		for _, h := range m.frame.Heights[start:end] {
			if h > peak {
				peak = h
			}
		}

		normalized := peak / m.maxHeight
		if normalized > 1 {
			normalized = 1
		}
		glyph := barGlyphs[int(normalized*float64(len(barGlyphs)-1))]

		style := barStyleLow
		switch {
		case normalized > 0.8:
			style = barStyleHigh
		case normalized > 0.4:
			style = barStyleMid
		}
		sb.WriteString(style.Render(string(glyph)))
	}

	return sb.String()
}

// FrameForwarder adapts a running Bubble Tea program into a frame sink, so
// the animation loop can publish to the terminal the same way it publishes
// to the network.
type FrameForwarder struct {
	program *tea.Program
}

// NewFrameForwarder wraps the given program.
func NewFrameForwarder(program *tea.Program) *FrameForwarder {
	return &FrameForwarder{program: program}
}

// Send forwards a frame into the program's message queue.
func (f *FrameForwarder) Send(data any) error {
	if frame, ok := data.(viz.Frame); ok {
		f.program.Send(FrameMsg(frame))
	}
	return nil
}

// Close is a no-op; the program's lifecycle belongs to its owner.
func (f *FrameForwarder) Close() error {
	return nil
}
