package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/handlekit/config"
	"github.com/wippyai/handlekit/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type funcInfo struct {
	resultType wit.Type
	name       string
	params     []paramInfo
}

type paramInfo struct {
	witType wit.Type
	name    string
}

// guestFuncs describes the guest exports in WIT terms.
var guestFuncs = []funcInfo{
	{name: engine.ExportCreate, resultType: wit.U32{}},
	{name: engine.ExportRelease, params: []paramInfo{{name: "id", witType: wit.U32{}}}, resultType: wit.U32{}},
	{name: engine.ExportIsLive, params: []paramInfo{{name: "id", witType: wit.U32{}}}, resultType: wit.Bool{}},
	{name: engine.ExportLive, resultType: wit.U32{}},
	{name: engine.ExportReleased, resultType: wit.U32{}},
	{name: engine.ExportDoubleReleases, resultType: wit.U32{}},
}

type interactiveModel struct {
	err      error
	lib      *engine.Library
	cfg      *config.Config
	result   string
	funcs    []funcInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(cfg *config.Config) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		state: stateSelectFunc,
	}
}

type loadedMsg struct {
	err error
	lib *engine.Library
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadLibrary
}

func (m *interactiveModel) loadLibrary() tea.Msg {
	lib, err := engine.NewLibrary(context.Background(), m.cfg.Engine.Library())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{lib: lib}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			if m.lib != nil {
				_ = m.lib.Close(context.Background())
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.lib = msg.lib
		m.funcs = guestFuncs

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = witTypeStr(p.witType)
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	if m.lib == nil {
		return callResultMsg{err: fmt.Errorf("library not loaded")}
	}

	f := m.funcs[m.selected]
	args := make([]uint32, len(m.inputs))
	for i, input := range m.inputs {
		v, err := convertArg(input.Value(), f.params[i].witType)
		if err != nil {
			return callResultMsg{err: fmt.Errorf("%s: %w", f.params[i].name, err)}
		}
		args[i] = v
	}

	result, err := m.lib.Invoke(context.Background(), f.name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: formatResult(f, result)}
}

// convertArg parses user input into a guest i32 argument.
func convertArg(value string, t wit.Type) (uint32, error) {
	value = strings.TrimSpace(value)
	switch t.(type) {
	case wit.U8, wit.U16, wit.U32:
		v, err := strconv.ParseUint(value, 10, 32)
		return uint32(v), err
	case wit.S8, wit.S16, wit.S32:
		v, err := strconv.ParseInt(value, 10, 32)
		return uint32(int32(v)), err
	case wit.Bool:
		switch value {
		case "true", "1":
			return 1, nil
		case "false", "0", "":
			return 0, nil
		}
		return 0, fmt.Errorf("invalid bool %q", value)
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", witTypeStr(t))
	}
}

func formatResult(f funcInfo, v uint32) string {
	if f.name == engine.ExportRelease {
		switch v {
		case engine.StatusOK:
			return "ok"
		case engine.StatusInvalidHandle:
			return "invalid handle"
		case engine.StatusDoubleRelease:
			return "double release"
		}
	}
	if _, ok := f.resultType.(wit.Bool); ok {
		return strconv.FormatBool(v != 0)
	}
	return strconv.FormatUint(uint64(v), 10)
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.funcs) == 0 {
		return "Loading guest library..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Handle Library"))
	b.WriteString(" ")
	b.WriteString(m.lib.Name())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString(m.statsLine())
		b.WriteString("\n\nSelect an operation to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatFunc(f)))
			} else {
				b.WriteString(cursor + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(witTypeStr(f.params[i].witType)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

// statsLine summarizes the guest counters.
func (m *interactiveModel) statsLine() string {
	st, err := m.lib.Stats(context.Background())
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("stats: %v", err))
	}
	line := fmt.Sprintf("live %d • released %d • double releases %d",
		st.Live, st.Released, st.DoubleReleases)
	if st.DoubleReleases > 0 {
		return errorStyle.Render(line)
	}
	return helpStyle.Render(line)
}

func (m *interactiveModel) formatFunc(f funcInfo) string {
	var params []string
	for _, p := range f.params {
		params = append(params, p.name+": "+typeStyle.Render(witTypeStr(p.witType)))
	}
	result := ""
	if f.resultType != nil {
		result = " -> " + typeStyle.Render(witTypeStr(f.resultType))
	}
	return funcStyle.Render(f.name) + "(" + strings.Join(params, ", ") + ")" + result
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
