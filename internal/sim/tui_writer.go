package sim

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"predictive-sim/internal/report"
	"predictive-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// runMsg carries a complete generated table.
type runMsg struct{ rows []telemetry.TelemetryRow }

// rowMsg carries a single replayed row.
type rowMsg struct{ telemetry.TelemetryRow }

type summaryMsg struct{ telemetry.RunSummaryRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type controlsMsg struct{ c Controls }

type statusMsg struct {
	text string
	err  bool
}

type thresholdsMsg struct {
	th  telemetry.Thresholds
	err error
}

const (
	maxTUIRows    = 10000
	sparkLevels   = "▁▂▃▄▅▆▇█"
	chartChannels = 3
)

var errNoControls = errors.New("not available without a running simulator")

// TUIWriter renders generated tables using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(machineID string, cfg telemetry.Config) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(machineID, cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.TelemetryRow) error {
	w.program.Send(rowMsg{row})
	return nil
}

// WriteBatch replaces the displayed table with rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	w.program.Send(runMsg{rows: append([]telemetry.TelemetryRow(nil), rows...)})
	return nil
}

// WriteSummary implements SummaryWriter.
func (w *TUIWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	w.program.Send(summaryMsg{row})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetControls registers the regenerate, export and threshold callbacks.
func (w *TUIWriter) SetControls(c Controls) {
	w.program.Send(controlsMsg{c: c})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	machineID    string
	cfg          telemetry.Config
	table        table.Model
	vp           viewport.Model
	rows         []telemetry.TelemetryRow
	summary      telemetry.RunSummaryRow
	content      string
	controls     Controls
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	dialog       bool
	input        textinput.Model
	status       string
	statusErr    bool
	header       string
	headerHeight int
	width        int
	height       int
}

func newTUIModel(machineID string, cfg telemetry.Config) tuiModel {
	m := tuiModel{
		machineID:  machineID,
		cfg:        cfg,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
	m.table = table.New(table.WithColumns(settingsColumns()), table.WithRows(m.settingsRows()), table.WithHeight(5))
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	return m
}

func settingsColumns() []table.Column {
	return []table.Column{
		{Title: "Setting", Width: 18},
		{Title: "Value", Width: 12},
	}
}

func (m tuiModel) settingsRows() []table.Row {
	th := m.cfg.Thresholds
	return []table.Row{
		{"Machine", m.machineID},
		{"Policy", m.cfg.PolicyName()},
		{"Temperature (°C)", fmt.Sprintf("%.1f", th.Temperature)},
		{"Vibration", fmt.Sprintf("%.1f", th.Vibration)},
		{"Load (%)", fmt.Sprintf("%.1f", th.Load)},
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.dialog {
			return m.updateDialog(msg)
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		case "c":
			th := m.cfg.Thresholds
			if m.controls.Thresholds != nil {
				th = m.controls.Thresholds()
			}
			m.input = textinput.New()
			m.input.Placeholder = "temperature,vibration,load"
			m.input.SetValue(formatThresholds(th))
			m.input.CursorEnd()
			m.input.Focus()
			m.dialog = true
			m.updateViewportHeight()
			return m, nil
		case "r":
			return m, m.regenerateCmd()
		case "x":
			return m, m.exportCmd()
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case runMsg:
		m.rows = msg.rows
		m.refreshViewport()
	case rowMsg:
		if len(m.rows) > 0 && m.rows[0].RunID != msg.RunID {
			m.rows = nil
		}
		m.rows = append(m.rows, msg.TelemetryRow)
		if len(m.rows) > maxTUIRows {
			m.rows = m.rows[len(m.rows)-maxTUIRows:]
		}
		m.refreshViewport()
	case summaryMsg:
		m.summary = msg.RunSummaryRow
		m.cfg.Thresholds = msg.Thresholds
		if msg.Policy != "custom" {
			m.cfg.Policy = msg.Policy
		}
		m.table.SetRows(m.settingsRows())
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case adminMsg:
		m.admin = msg.active
	case controlsMsg:
		m.controls = msg.c
	case statusMsg:
		m.status, m.statusErr = msg.text, msg.err
	case thresholdsMsg:
		if msg.err != nil {
			m.status, m.statusErr = "thresholds rejected: "+msg.err.Error(), true
			return m, nil
		}
		m.cfg.Thresholds = msg.th
		m.table.SetRows(m.settingsRows())
		m.header = m.renderHeader()
		m.status, m.statusErr = "thresholds saved, press r to regenerate", false
	}
	return m, nil
}

func (m tuiModel) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.dialog = false
		m.updateViewportHeight()
		th, err := parseThresholdInput(m.input.Value())
		if err != nil {
			m.status, m.statusErr = err.Error(), true
			return m, nil
		}
		set := m.controls.SetThresholds
		if set == nil {
			m.status, m.statusErr = errNoControls.Error(), true
			return m, nil
		}
		return m, func() tea.Msg { return thresholdsMsg{th: th, err: set(th)} }
	case tea.KeyEsc:
		m.dialog = false
		m.updateViewportHeight()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) regenerateCmd() tea.Cmd {
	regen := m.controls.Regenerate
	return func() tea.Msg {
		if regen == nil {
			return statusMsg{text: errNoControls.Error(), err: true}
		}
		if err := regen(); err != nil {
			return statusMsg{text: "regenerate failed: " + err.Error(), err: true}
		}
		return statusMsg{text: "regenerated"}
	}
}

func (m tuiModel) exportCmd() tea.Cmd {
	export := m.controls.Export
	return func() tea.Msg {
		if export == nil {
			return statusMsg{text: errNoControls.Error(), err: true}
		}
		path, err := export()
		if err != nil {
			return statusMsg{text: "export failed: " + err.Error(), err: true}
		}
		return statusMsg{text: "report saved as " + path}
	}
}

// parseThresholdInput reads "temperature,vibration,load".
func parseThresholdInput(val string) (telemetry.Thresholds, error) {
	parts := strings.Split(val, ",")
	if len(parts) != 3 {
		return telemetry.Thresholds{}, fmt.Errorf("expected temperature,vibration,load")
	}
	var out [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return telemetry.Thresholds{}, fmt.Errorf("please enter valid numeric values")
		}
		out[i] = f
	}
	return telemetry.Thresholds{Temperature: out[0], Vibration: out[1], Load: out[2]}, nil
}

func formatThresholds(th telemetry.Thresholds) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(th.Temperature) + "," + f(th.Vibration) + "," + f(th.Load)
}

func (m *tuiModel) updateViewportHeight() {
	dialog := 0
	if m.dialog {
		dialog = 2
	}
	h := m.height - m.headerHeight - chartChannels - lipgloss.Height(m.renderBottom()) - dialog - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	fr := report.Failures(telemetry.Samples(m.rows), m.cfg.Thresholds)
	var lines []string
	if len(fr.Entries) == 0 {
		lines = []string{report.NoFailuresMessage}
	}
	for _, e := range fr.Entries {
		l := failureLine(e)
		if m.wrap && m.vp.Width > 0 {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	m.content = strings.Join(lines, "\n")
	m.vp.SetContent(m.content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func failureLine(e report.FailureEntry) string {
	mark := func(v float64, breach bool) string {
		if breach {
			return fmt.Sprintf("%s%.2f!%s", colorRed, v, colorReset)
		}
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%st=%ds%s temp=%s vib=%s load=%s -> %s",
		colorGray, e.TimeIndex, colorReset,
		mark(e.Temperature, e.TemperatureBreach),
		mark(e.Vibration, e.VibrationBreach),
		mark(e.LoadPct, e.LoadBreach),
		e.Action)
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.renderCharts(),
		divider,
		m.vp.View(),
	}
	if m.dialog {
		sections = append(sections, divider, "Thresholds (temperature,vibration,load):", m.input.View())
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	tableView := m.table.View()
	stats := m.renderStats()
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, sep, stats)
}

func (m tuiModel) renderStats() string {
	if m.summary.Summary.Samples == 0 {
		return "Waiting for data..."
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("General Statistics") + "\n")
	b.WriteString(report.Statistics(m.summary.Summary))
	recs := report.Recommendations(m.summary.Summary, m.cfg.Thresholds)
	if len(recs) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Recommendations") + "\n")
		for _, r := range recs {
			line := "- " + r
			if m.wrap && m.width > 0 {
				line = wordwrap.String(line, m.width/2)
			}
			b.WriteString(line + "\n")
		}
	}
	if m.summary.Accuracy != nil {
		b.WriteString(fmt.Sprintf("Model accuracy: %.2f\n", *m.summary.Accuracy))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderCharts() string {
	width := m.width - 16
	if width < 10 {
		width = 60
	}
	n := len(m.rows)
	failures := make([]bool, n)
	for i, r := range m.rows {
		failures[i] = r.Failure
	}
	charts := []struct {
		label   string
		channel string
		color   string
	}{
		{"Temperature", telemetry.ColTemperature, colorRed},
		{"Vibration", telemetry.ColVibration, colorBlue},
		{"Load", telemetry.ColLoad, colorGreen},
	}
	lines := make([]string, 0, len(charts))
	for _, c := range charts {
		values := make([]float64, n)
		for i, r := range m.rows {
			values[i] = r.Value(c.channel)
		}
		lines = append(lines, fmt.Sprintf("%-12s %s%s%s", c.label, c.color, sparkline(values, failures, width), colorReset))
	}
	return strings.Join(lines, "\n")
}

// sparkline renders values into width buckets of block characters. Buckets
// containing a failure are drawn in yellow.
func sparkline(values []float64, failures []bool, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	levels := []rune(sparkLevels)
	var b strings.Builder
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		peak, failed := values[start], false
		for j := start; j < end; j++ {
			peak = max(peak, values[j])
			failed = failed || (j < len(failures) && failures[j])
		}
		idx := 0
		if hi > lo {
			idx = int((peak - lo) / (hi - lo) * float64(len(levels)-1))
		}
		if failed {
			b.WriteString(colorYellow + string(levels[idx]) + colorReset)
		} else {
			b.WriteRune(levels[idx])
		}
	}
	return b.String()
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	line := fmt.Sprintf("%sRUN%s %s rows=%d failures=%d | Admin UI %s | Wrap %s | Scroll %s | r regenerate  c thresholds  x export  h help",
		colorBlue, colorReset, shortID(m.summary.RunID), len(m.rows), m.summary.Summary.Failures,
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll))
	if m.status == "" {
		return line
	}
	color := colorGreen
	if m.statusErr {
		color = colorRed
	}
	return fmt.Sprintf("%s%s%s\n%s", color, m.status, colorReset, line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" r  regenerate with the current thresholds",
		" c  configure thresholds (temperature,vibration,load)",
		" x  export PDF maintenance report",
		" w  toggle wrap for failures and recommendations",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
