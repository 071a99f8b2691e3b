package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rafters-design/tokengraph/pkg/collection"
	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	tokensView
	analysisView
	impactView
)

const viewCount = 4

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select/run"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type model struct {
	analyzer    *intelligence.Analyzer
	source      string
	currentView view
	valueInput  textinput.Model
	tokenTable  table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	message     string
	messageErr  bool
	startTime   time.Time
	selected    string
	analysis    *intelligence.DependencyAnalysis
	impact      *intelligence.CascadeImpactAnalysis
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func initialModel(analyzer *intelligence.Analyzer, source string) model {
	ti := textinput.New()
	ti.Placeholder = "#0055CC"
	ti.CharLimit = 120
	ti.Width = 40

	columns := []table.Column{
		{Title: "Token", Width: 22},
		{Title: "Value", Width: 18},
		{Title: "Category", Width: 12},
		{Title: "Rule", Width: 26},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)
	t.SetRows(tokenRows(analyzer))

	return model{
		analyzer:    analyzer,
		source:      source,
		currentView: dashboardView,
		valueInput:  ti,
		tokenTable:  t,
		help:        help.New(),
		keys:        keys,
		startTime:   time.Now(),
	}
}

func tokenRows(analyzer *intelligence.Analyzer) []table.Row {
	reg := analyzer.Registry()
	graph := reg.Graph()

	rows := make([]table.Row, 0, reg.Tokens().Len())
	for _, name := range reg.Tokens().Names() {
		t, ok := reg.Tokens().Get(name)
		if !ok {
			continue
		}
		ruleText := "-"
		if edge, ok := graph.Rule(name); ok {
			ruleText = edge.Text
		}
		rows = append(rows, table.Row{t.Name, t.Value, t.Category, ruleText})
	}
	return rows
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		return m, tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
			m.syncFocus()

		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = viewCount - 1
			} else {
				m.currentView--
			}
			m.syncFocus()

		case key.Matches(msg, m.keys.Enter):
			switch m.currentView {
			case tokensView:
				m.selectToken()
			case impactView:
				if m.valueInput.Focused() {
					m.runPrediction()
				}
			}
		}
	}

	// Update focused component
	switch m.currentView {
	case tokensView:
		m.tokenTable, cmd = m.tokenTable.Update(msg)
		cmds = append(cmds, cmd)
	case impactView:
		m.valueInput, cmd = m.valueInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) syncFocus() {
	if m.currentView == impactView {
		m.valueInput.Focus()
	} else {
		m.valueInput.Blur()
	}
}

func (m *model) selectToken() {
	row := m.tokenTable.SelectedRow()
	if row == nil {
		m.message = "No token selected"
		m.messageErr = true
		return
	}

	m.selected = row[0]
	res := m.analyzer.AnalyzeDependencies(m.selected, intelligence.AnalyzeOptions{IncludeIndirect: true})
	m.analysis = &res
	m.impact = nil
	m.currentView = analysisView
	m.syncFocus()
	m.message = fmt.Sprintf("Analyzed %s in %.2f ms", m.selected, res.ExecutionTimeMS)
	m.messageErr = false
}

func (m *model) runPrediction() {
	if m.selected == "" {
		m.message = "Select a token in the Tokens view first"
		m.messageErr = true
		return
	}
	newValue := m.valueInput.Value()
	if newValue == "" {
		m.message = "New value cannot be empty"
		m.messageErr = true
		return
	}

	res := m.analyzer.PredictCascadeImpact(m.selected, newValue)
	m.impact = &res
	m.message = fmt.Sprintf("Predicted %d affected token(s) in %.2f ms", len(res.AffectedTokens), res.ExecutionTimeMS)
	m.messageErr = false
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("🎨 Tokengraph - Design Token Inspector"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	// Content based on current view
	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case tokensView:
		s.WriteString(m.renderTokens())
	case analysisView:
		s.WriteString(m.renderAnalysis())
	case impactView:
		s.WriteString(m.renderImpact())
	}

	// Message
	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	// Help
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Dashboard", "Tokens", "Analysis", "Impact"}
	var renderedTabs []string

	for i, tab := range tabs {
		if view(i) == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderDashboard() string {
	uptime := time.Since(m.startTime).Round(time.Second)
	stats := m.analyzer.Registry().Stats()

	statsContent := fmt.Sprintf(`📊 Collection
━━━━━━━━━━━━━━━
Source:    %s
Tokens:    %d
Rules:     %d
Edges:     %d
Uptime:    %s`,
		m.source,
		stats.Tokens,
		stats.Rules,
		stats.Edges,
		uptime,
	)

	quickActions := `⚡ Quick Actions
━━━━━━━━━━━━━━━
[Tab]       Navigate views
[Enter]     Select token / run
[q]         Quit

🎯 Views
━━━━━━━━━━━━━━━
• Tokens: browse the collection
• Analysis: dependency detail
• Impact: what-if prediction`

	statsBox := statsBoxStyle.Render(statsContent)
	actionsBox := statsBoxStyle.Render(quickActions)

	return contentStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, statsBox, actionsBox),
	)
}

func (m model) renderTokens() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Token Browser"))
	s.WriteString("\n\n")

	s.WriteString(m.tokenTable.View())

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Navigate with ↑/↓ • Press Enter to analyze the selected token"))

	return contentStyle.Render(s.String())
}

func (m model) renderAnalysis() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Dependency Analysis"))
	s.WriteString("\n\n")

	if m.analysis == nil {
		s.WriteString(helpStyle.Render("Select a token in the Tokens view first"))
		return contentStyle.Render(s.String())
	}

	res := m.analysis
	rule := "none (manually managed)"
	if res.Rule != "" {
		rule = fmt.Sprintf("%s (%s)", res.Rule, res.RuleKind)
	}

	detail := fmt.Sprintf(`🔍 %s
━━━━━━━━━━━━━━━━━━━━
Rule:        %s
Depends on:  %s
Indirect:    %s
Dependents:  %s
Cascade:     %d token(s)
Depth:       %d
Complexity:  %.2f
Confidence:  %.2f %s`,
		res.Token,
		rule,
		joinOrDash(res.DirectDependencies),
		joinOrDash(res.IndirectDependencies),
		joinOrDash(res.Dependents),
		len(res.CascadeScope),
		res.DependencyDepth,
		res.ComplexityScore,
		res.Confidence,
		confidenceBar(res.Confidence),
	)

	s.WriteString(statsBoxStyle.Render(detail))

	if len(res.CircularDependencies) > 0 {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("⚠ circular: " + strings.Join(res.CircularDependencies, " -> ")))
	}

	return contentStyle.Render(s.String())
}

func (m model) renderImpact() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Impact Prediction"))
	s.WriteString("\n\n")

	if m.selected == "" {
		s.WriteString(helpStyle.Render("Select a token in the Tokens view first"))
		return contentStyle.Render(s.String())
	}

	s.WriteString(fmt.Sprintf("New value for %s:\n\n", m.selected))
	s.WriteString(m.valueInput.View())

	if m.impact != nil {
		res := m.impact
		s.WriteString("\n\n")

		summary := fmt.Sprintf(`📈 %s -> %s
━━━━━━━━━━━━━━━━━━━━
Affected:    %d token(s)
Impact:      %.2f
Breaking:    %s
Visual:      %s
Confidence:  %.2f %s`,
			res.Token,
			res.NewValue,
			len(res.AffectedTokens),
			res.ImpactScore,
			res.Risk.BreakingChangeRisk,
			res.Risk.VisualImpact,
			res.AverageConfidence,
			confidenceBar(res.AverageConfidence),
		)
		s.WriteString(statsBoxStyle.Render(summary))

		maxDisplay := 8
		if len(res.AffectedTokens) < maxDisplay {
			maxDisplay = len(res.AffectedTokens)
		}
		if maxDisplay > 0 {
			s.WriteString("\n\n")
			for _, p := range res.AffectedTokens[:maxDisplay] {
				s.WriteString(fmt.Sprintf("  %-22s %s -> %-12s %.2f %s\n",
					p.Token, p.CurrentValue, p.PredictedValue, p.Confidence, confidenceBar(p.Confidence)))
			}
			if rest := len(res.AffectedTokens) - maxDisplay; rest > 0 {
				s.WriteString(fmt.Sprintf("  ... and %d more\n", rest))
			}
		}
	}

	return contentStyle.Render(s.String())
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func confidenceBar(confidence float64) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return strings.Repeat("█", int(confidence*10))
}

func main() {
	path := "tokens.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	res, err := collection.Load(path)
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}
	for _, f := range res.Findings {
		log.Printf("warning: %s: %s", f.Token, f.Message)
	}

	source := res.Name
	if source == "" {
		source = path
	}
	analyzer := intelligence.NewAnalyzer(res.Registry)

	p := tea.NewProgram(initialModel(analyzer, source), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
