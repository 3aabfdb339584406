package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/world-engine/pkg/prompts"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/jwebster45206/world-engine/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const PlaceHolderText = "go tavern · talk mara about the harvest · wait · rest 3 · /help"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	world        *sim.World
	sched        *sim.Scheduler
	gameState    *state.GameState
	scenario     *scenario.Scenario
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	log          []logLine
	ready        bool
	width        int
	height       int
	err          error

	// Scenario selection state
	showScenarioModal bool
	scenarios         []string
	scenarioMap       map[string]string
	selectedScenario  int

	// Quit confirmation state
	showQuitModal bool
}

type logKind int

const (
	logWorld logKind = iota
	logPlayer
	logEvent
	logError
	logInfo
)

type logLine struct {
	kind logKind
	text string
}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	worldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, names []string, files map[string]string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		config:            cfg,
		textarea:          ta,
		logViewport:       logVp,
		metaViewport:      viewport.New(20, 20),
		showScenarioModal: true,
		scenarios:         names,
		scenarioMap:       files,
	}
}

func (m *ConsoleUI) appendLog(kind logKind, text string) {
	m.log = append(m.log, logLine{kind: kind, text: text})
}

func (m *ConsoleUI) layout() {
	logWidth := int(float64(m.width)*0.65) - 4
	metaWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 6
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(logWidth - 4)
}

// writeLog rebuilds the log panel for the current viewport width
func (m *ConsoleUI) writeLog() {
	width := m.logViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(m.world.Name())) + "\n\n")
	if m.scenario != nil && m.scenario.Story != "" {
		content.WriteString(wordwrap.String(m.scenario.Story, width) + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, l := range m.log {
		text := wordwrap.String(l.text, width)
		switch l.kind {
		case logPlayer:
			content.WriteString(userStyle.Render("> ") + text + "\n")
		case logEvent:
			content.WriteString(eventStyle.Render(text) + "\n")
		case logError:
			content.WriteString(errorStyle.Render(text) + "\n")
		case logInfo:
			content.WriteString(promptStyle.Render(text) + "\n")
		default:
			content.WriteString(worldStyle.Render(text) + "\n")
		}
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func writeMetadata(w *sim.World, gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("WORLD") + "\n\n")

	content.WriteString("Time:\n")
	content.WriteString(w.Time().Display() + "\n\n")

	content.WriteString("World ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	nc, err := w.NarrativeContext("")
	if err != nil {
		return content.String() + errorStyle.Render(err.Error())
	}
	ps := prompts.ToPromptState(nc)

	content.WriteString("Location:\n")
	content.WriteString(ps.Location + "\n")
	if ex := exits(w); len(ex) > 0 {
		content.WriteString("Exits: " + strings.Join(ex, ", ") + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Here:\n")
	if len(ps.Present) == 0 {
		content.WriteString("Nobody\n")
	}
	for _, npc := range ps.Present {
		fmt.Fprintf(&content, "• %s (%s, %s)\n", npc.Name, npc.Mood, npc.Feeling)
	}
	content.WriteString("\n")

	if a := w.Active(); a != nil {
		content.WriteString("Doing:\n" + labelOr(a.Label, a.ID) + "\n\n")
	}
	if items := w.Interrupts().Items(); len(items) > 0 {
		content.WriteString("Suspended:\n")
		for _, s := range items {
			fmt.Fprintf(&content, "• %s\n", labelOr(s.Label, s.ID))
		}
		content.WriteString("\n")
	}
	if len(ps.AwaitingChoice) > 0 {
		content.WriteString("Awaiting choice:\n")
		for _, ev := range ps.AwaitingChoice {
			fmt.Fprintf(&content, "• %s\n", ev)
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /look [npc]: Context\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showScenarioModal {
		return m.updateScenarioModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeLog()
		m.metaViewport.SetContent(writeMetadata(m.world, m.gameState))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.handleCommand(input)
			} else {
				m.act(input)
			}
			m.writeLog()
			m.metaViewport.SetContent(writeMetadata(m.world, m.gameState))
			return m, nil
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// act applies one typed intent to the world.
func (m *ConsoleUI) act(input string) {
	m.appendLog(logPlayer, input)

	in, err := parseIntent(input)
	if err != nil {
		m.appendLog(logError, err.Error())
		return
	}
	res, err := m.sched.Apply(in)
	if err != nil {
		m.appendLog(logError, err.Error())
		return
	}
	for _, line := range describeResult(res, m.world) {
		kind := logWorld
		if strings.HasPrefix(line, "[") {
			kind = logEvent
		}
		m.appendLog(kind, line)
	}
	if err := m.gameState.Capture(m.world); err != nil {
		m.appendLog(logError, err.Error())
	}
	m.gameState.Turns++
}

func (m *ConsoleUI) handleCommand(input string) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/help":
		m.appendLog(logInfo, `Commands:
• go <location>: walk there
• talk <npc> [about <topic>]: speak with someone here
• wait [ticks]: let time pass
• rest|work|travel <days> [label]: a multi-day action
• resume: continue what an event interrupted
• choose <event> <choice>: answer an event
• /look [npc]: show what the narrator would see
• /save <file>: write the world to a file`)

	case "/look":
		focus := ""
		if len(fields) > 1 {
			focus = strings.ToLower(fields[1])
		}
		nc, err := m.world.NarrativeContext(focus)
		if err != nil {
			m.appendLog(logError, err.Error())
			return
		}
		data, err := json.MarshalIndent(prompts.ToPromptState(nc), "", "  ")
		if err != nil {
			m.appendLog(logError, err.Error())
			return
		}
		m.appendLog(logInfo, string(data))

	case "/save":
		if len(fields) < 2 {
			m.appendLog(logError, "usage: /save <file>")
			return
		}
		data, err := json.MarshalIndent(m.gameState, "", "  ")
		if err == nil {
			err = os.WriteFile(fields[1], data, 0o644)
		}
		if err != nil {
			m.appendLog(logError, err.Error())
			return
		}
		m.appendLog(logInfo, "Saved to "+fields[1])

	default:
		m.appendLog(logError, "Unknown command "+fields[0])
	}
}

func (m ConsoleUI) updateScenarioModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedScenario > 0 {
				m.selectedScenario--
			}
		case tea.KeyDown:
			if m.selectedScenario < len(m.scenarios)-1 {
				m.selectedScenario++
			}
		case tea.KeyEnter:
			if len(m.scenarios) == 0 {
				return m, nil
			}
			file := m.scenarioMap[m.scenarios[m.selectedScenario]]
			s, w, gs, err := openWorld(m.config, file)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.scenario, m.world, m.gameState = s, w, gs
			m.sched = sim.NewScheduler(w)
			m.showScenarioModal = false
			m.appendLog(logWorld, "It is "+w.Time().Display()+".")
			if m.width > 0 && m.height > 0 {
				m.layout()
				m.ready = true
				m.writeLog()
				m.metaViewport.SetContent(writeMetadata(m.world, m.gameState))
			}
			m.textarea.Focus()
			return m, textarea.Blink
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("The world stops when you leave. Use /save first to keep it.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScenarioModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to open world: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Scenario"))
		content.WriteString("\n\n")

		for i, name := range m.scenarios {
			if i == m.selectedScenario {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScenarioModal {
		return m.renderScenarioModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.65) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", logWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}
