package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/pollinet/internal/experiment"
)

// RowMsg carries one finished row of a running experiment.
type RowMsg struct {
	Row experiment.Row
}

// DoneMsg reports that the experiment returned.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

// ExtinctionModel follows an extinction experiment as rows arrive.
type ExtinctionModel struct {
	network string
	plants  int
	order   experiment.Order

	rows  []experiment.Row
	curve Curve
	done  bool
	err   error
	area  float64

	width  int
	height int
}

func NewExtinctionModel(network string, plants int, order experiment.Order) ExtinctionModel {
	return ExtinctionModel{
		network: network,
		plants:  plants,
		order:   order,
		rows:    make([]experiment.Row, 0, plants+1),
		width:   80,
		height:  24,
	}
}

func (m ExtinctionModel) Init() tea.Cmd { return nil }

func (m ExtinctionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.curve = m.curve.Next()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case RowMsg:
		m.rows = append(m.rows, msg.Row)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Result != nil {
			m.area = msg.Result.Area
		}
	}
	return m, nil
}

func (m ExtinctionModel) Rows() []experiment.Row { return m.rows }

func (m ExtinctionModel) Done() bool { return m.done }

func (m ExtinctionModel) Err() error { return m.err }

// Removed is the number of knockouts applied so far.
func (m ExtinctionModel) Removed() int {
	if len(m.rows) == 0 {
		return 0
	}
	return m.rows[len(m.rows)-1].Removed
}

func (m ExtinctionModel) View() string {
	var b strings.Builder

	b.WriteString(Header.Render(fmt.Sprintf("extinction · %s · %s", m.network, m.order)))
	b.WriteString("\n\n")

	var status string
	switch {
	case m.err != nil:
		status = StatusFailed.Render("failed: " + m.err.Error())
	case m.done:
		status = StatusDone.Render(fmt.Sprintf("done  R = %.4f", m.area))
	default:
		status = StatusRunning.Render("running")
	}

	frac := 0.0
	if m.plants > 0 {
		frac = float64(m.Removed()) / float64(m.plants)
	}
	barWidth := clamp(m.width-30, 10, 50)
	fmt.Fprintf(&b, "%s  %s %s\n\n", status, ProgressBar(frac, barWidth),
		MetricLabel.Render(fmt.Sprintf("%d/%d", m.Removed(), m.plants)))

	if len(m.rows) > 0 {
		last := m.rows[len(m.rows)-1]
		stats := lipgloss.JoinVertical(lipgloss.Left,
			metricLine("robustness", fmt.Sprintf("%.4f", last.Robustness)),
			metricLine("plants alive", fmt.Sprintf("%d", last.SurvivingPlants)),
			metricLine("insects alive", fmt.Sprintf("%d", last.SurvivingInsects)),
			metricLine("service", fmt.Sprintf("%.2f", last.PollinationService)),
			metricLine("last removed", speciesLabel(last.Species)),
		)

		robust := make([]float64, len(m.rows))
		for i, r := range m.rows {
			robust[i] = r.Robustness
		}
		spark := Sparkline(robust, barWidth)

		b.WriteString(Panel.Render(lipgloss.JoinVertical(lipgloss.Left, stats, "", spark)))
		b.WriteString("\n\n")
		b.WriteString(RenderCurve(m.rows, m.curve, clamp(m.width-12, 20, 100), clamp(m.height/3, 5, 15)))
		b.WriteString("\n\n")
	}

	b.WriteString(KeyHint.Render("tab: next curve · q: quit"))
	return b.String()
}

func metricLine(label, value string) string {
	return MetricLabel.Render(fmt.Sprintf("%-14s", label)) + MetricValue.Render(value)
}

func speciesLabel(species int) string {
	if species < 0 {
		return "none"
	}
	return fmt.Sprintf("plant %d", species)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
