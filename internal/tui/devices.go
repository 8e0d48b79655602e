// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"melbar/internal/audio"
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Common capture rates offered next to the device's own default.
var commonSampleRates = []float64{44100, 48000, 88200, 96000}

// Selection is the device and rate chosen in the picker.
type Selection struct {
	DeviceID   int
	DeviceName string
	SampleRate float64
}

// DeviceListModel is the Bubble Tea model for picking an input device and
// its sample rate.
type DeviceListModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	// Configuration options
	availableSampleRates []float64
	sampleRateIndex      int

	selection *Selection
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a picker over the capture-capable devices.
// PortAudio must be initialized while the model runs.
func NewDeviceListModel() DeviceListModel {
	return newDeviceListModel(audio.InputDevices)
}

func newDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{
		fetch:        fetch,
		activeScreen: ListScreen,
	}
}

// Init initializes the Bubble Tea model
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

// Selection returns the confirmed choice, if any.
func (m DeviceListModel) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		// Start on the system default input.
		for i, d := range m.devices {
			if d.IsDefaultInput {
				m.selectedIndex = i
			}
		}
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keys.Up):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, keys.Down):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, keys.Select):
				if len(m.devices) > 0 {
					m.openConfig()
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, keys.Back):
				m.activeScreen = ListScreen
			case key.Matches(msg, keys.Up):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
				}
			case key.Matches(msg, keys.Down):
				if m.sampleRateIndex < len(m.availableSampleRates)-1 {
					m.sampleRateIndex++
				}
			case key.Matches(msg, keys.Select):
				device := m.devices[m.selectedIndex]
				m.selection = &Selection{
					DeviceID:   device.ID,
					DeviceName: device.Name,
					SampleRate: m.availableSampleRates[m.sampleRateIndex],
				}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openConfig switches to the sample rate screen for the selected device.
func (m *DeviceListModel) openConfig() {
	m.activeScreen = ConfigScreen

	def := m.devices[m.selectedIndex].DefaultSampleRate
	rates := slices.Clone(commonSampleRates)
	if def > 0 && !slices.Contains(rates, def) {
		rates = append(rates, def)
		slices.Sort(rates)
	}
	m.availableSampleRates = rates
	m.sampleRateIndex = max(slices.Index(rates, def), 0)
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

// View renders the UI
func (m DeviceListModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\nPress q to exit."
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = helpLine(keys.Up, keys.Down, keys.Select, keys.Quit)
	} else {
		title = titleStyle.Render("Device Configuration")
		help = helpLine(keys.Up, keys.Down, keys.Select, keys.Back, keys.Quit)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), infoStyle.Render(help))
}

// renderDevices formats the device list
func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		marker := ""
		if device.IsDefaultInput {
			marker = " [default]"
		}
		deviceInfo := fmt.Sprintf("[%d] %s (%s)%s\n", device.ID, device.Name, device.HostAPI, marker)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Default sample rate: %.0f Hz\n",
			device.MaxInputChannels, device.DefaultSampleRate)
		deviceInfo += dimStyle.Render(fmt.Sprintf("    Latency: %.1f-%.1f ms",
			device.LowInputLatency, device.HighInputLatency)) + "\n"

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDeviceConfig formats the device configuration screen
func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	sb.WriteString("Sample Rate:\n")

	for i, rate := range m.availableSampleRates {
		cursor := " "
		if i == m.sampleRateIndex {
			cursor = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz", cursor, rate)
		if rate == device.DefaultSampleRate {
			line += dimStyle.Render(" (default)")
		}
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// RunDevicePicker shows the picker full screen and returns the confirmed
// selection. ok is false when the user quit without choosing.
func RunDevicePicker() (sel Selection, ok bool, err error) {
	p := tea.NewProgram(NewDeviceListModel(), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	m := final.(DeviceListModel)
	if m.err != nil {
		return Selection{}, false, m.err
	}
	sel, ok = m.Selection()
	return sel, ok, nil
}
