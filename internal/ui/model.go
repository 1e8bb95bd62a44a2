// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Defines playback display state and key handling
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Model represents the TUI state
type Model struct {
	// Source
	location string
	state    string
	err      string

	// Stream
	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	// Metadata
	title  string
	artist string
	album  string

	// Playback
	volume int
	muted  bool

	// Stats
	stats    PlaybackStats
	queueLen int
	queueCap int

	showDebug bool

	volumeCtrl *VolumeControl

	width  int
	height int
}

// PlaybackStats mirrors the driver counters shown on screen
type PlaybackStats struct {
	Pages        int64
	Packets      int64
	Submitted    int64
	DecodeErrors int64
	Resyncs      int64
	Gaps         int64
	CorruptPages int64
	SkippedBytes int64
	Seconds      float64
}

// StatusMsg updates TUI state. Empty fields leave the current value alone.
type StatusMsg struct {
	Location   string
	State      string
	Err        string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Title      string
	Artist     string
	Album      string
	Volume     int
	Stats      *PlaybackStats
	QueueLen   int
	QueueCap   int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("oggplay"))
	b.WriteString("\n\n")
	b.WriteString(m.renderStream())
	b.WriteString("\n")
	b.WriteString(m.renderControls())
	b.WriteString("\n")
	b.WriteString(m.renderStats())
	if m.showDebug {
		b.WriteString("\n")
		b.WriteString(m.renderDebug())
	}
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓:Volume  m:Mute  d:Debug  q:Quit"))

	return borderStyle.Render(b.String())
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + valueStyle.Render(value) + "\n"
}

// renderStream renders the source, state and metadata
func (m Model) renderStream() string {
	s := field("Source:", truncate(m.location, 48))
	s += field("State:", m.state)
	if m.codec == "" {
		return s + field("Format:", "(waiting for headers)")
	}
	s += field("Format:", fmt.Sprintf("%s %dHz %s %d-bit",
		m.codec, m.sampleRate, channelName(m.channels), m.bitDepth))

	if m.title == "" {
		return s + field("Track:", "(No metadata)")
	}
	s += field("Track:", truncate(m.title, 48))
	s += field("Artist:", truncate(m.artist, 48))
	s += field("Album:", truncate(m.album, 48))
	return s
}

// renderControls renders volume and queue fill
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}
	s := field("Volume:", fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon))
	s += field("Buffer:", fmt.Sprintf("[%s] %d/%d blocks",
		renderBar(m.queueLen, m.queueCap, 10), m.queueLen, m.queueCap))
	return s
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	st := m.stats
	s := field("Played:", fmt.Sprintf("%.1fs (%d blocks)", st.Seconds, st.Submitted))
	s += field("Stream:", fmt.Sprintf("%d pages, %d packets", st.Pages, st.Packets))
	s += field("Errors:", fmt.Sprintf("decode %d  resync %d  gaps %d  corrupt %d",
		st.DecodeErrors, st.Resyncs, st.Gaps, st.CorruptPages))
	return s
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return field("Skipped:", fmt.Sprintf("%d bytes", m.stats.SkippedBytes))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
		// Don't block the UI if the player is behind
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Location != "" {
		m.location = msg.Location
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Err != "" {
		m.err = msg.Err
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Title != "" {
		m.title = msg.Title
		m.artist = msg.Artist
		m.album = msg.Album
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
		m.queueLen = msg.QueueLen
		m.queueCap = msg.QueueCap
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = (value * width) / max
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
