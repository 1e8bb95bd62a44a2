// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels it reports user input on
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg carries a volume or mute change requested from the TUI
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg is sent when the user asks to stop playback
type QuitMsg struct{}

// VolumeControl holds channels for volume control communication
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(volCtrl *VolumeControl) Model {
	return Model{
		volume:     100,
		state:      "idle",
		volumeCtrl: volCtrl,
	}
}

// Run creates the TUI program. The caller starts it with Run on the
// returned program.
func Run(volCtrl *VolumeControl, initialVolume int) (*tea.Program, error) {
	p := tea.NewProgram(initialModel(volCtrl, initialVolume), tea.WithAltScreen())
	return p, nil
}

// initialModel is NewModel with the starting volume applied. Zero is a
// valid volume; out-of-range values keep the default.
func initialModel(volCtrl *VolumeControl, initialVolume int) Model {
	m := NewModel(volCtrl)
	if initialVolume >= 0 && initialVolume <= 100 {
		m.volume = initialVolume
	}
	return m
}
