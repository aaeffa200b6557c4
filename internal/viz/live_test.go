package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pollinet/internal/experiment"
)

func sampleRows() []experiment.Row {
	return []experiment.Row{
		{Removed: 0, Species: -1, Robustness: 1, SurvivingPlants: 3, SurvivingInsects: 2, PollinationService: 900},
		{Removed: 1, Species: 2, Robustness: 0.8, SurvivingPlants: 2, SurvivingInsects: 2, PollinationService: 700},
		{Removed: 2, Species: 0, Robustness: 0.4, SurvivingPlants: 1, SurvivingInsects: 1, PollinationService: 300},
	}
}

func TestExtinctionModelCollectsRows(t *testing.T) {
	var m tea.Model = NewExtinctionModel("net.txt", 3, experiment.Ranked)
	for _, r := range sampleRows() {
		m, _ = m.Update(RowMsg{Row: r})
	}

	em := m.(ExtinctionModel)
	if len(em.Rows()) != 3 {
		t.Fatalf("rows = %d, want 3", len(em.Rows()))
	}
	if em.Removed() != 2 {
		t.Errorf("removed = %d, want 2", em.Removed())
	}
	if em.Done() {
		t.Error("model should not be done before DoneMsg")
	}

	view := em.View()
	for _, want := range []string{"net.txt", "ranked", "running", "2/3", "plant 0"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestExtinctionModelDone(t *testing.T) {
	var m tea.Model = NewExtinctionModel("net.txt", 3, experiment.Random)
	m, _ = m.Update(DoneMsg{Result: &experiment.Result{Area: 0.625}})

	em := m.(ExtinctionModel)
	if !em.Done() || em.Err() != nil {
		t.Fatalf("done = %v, err = %v", em.Done(), em.Err())
	}
	if !strings.Contains(em.View(), "0.6250") {
		t.Error("view should show the area")
	}

	m, _ = m.Update(DoneMsg{Err: errors.New("boom")})
	if !strings.Contains(m.View(), "failed: boom") {
		t.Error("view should show the failure")
	}
}

func TestExtinctionModelKeys(t *testing.T) {
	var m tea.Model = NewExtinctionModel("net.txt", 1, experiment.Ranked)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(ExtinctionModel).curve != CurveService {
		t.Errorf("curve = %v after tab", m.(ExtinctionModel).curve)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestCurveCycle(t *testing.T) {
	c := CurveRobustness
	for i := 0; i < int(numCurves); i++ {
		c = c.Next()
	}
	if c != CurveRobustness {
		t.Errorf("cycling all curves ended at %v", c)
	}
}

func TestSeries(t *testing.T) {
	rows := sampleRows()

	robust := Series(rows, CurveRobustness)
	if len(robust) != 1 || robust[0][2] != 0.4 {
		t.Errorf("robustness series = %v", robust)
	}

	surv := Series(rows, CurveSurvivors)
	if len(surv) != 2 || surv[0][1] != 2 || surv[1][2] != 1 {
		t.Errorf("survivor series = %v", surv)
	}
}

func TestRenderCurves(t *testing.T) {
	out := RenderCurves(sampleRows(), 30, 5)
	if !strings.Contains(out, "robustness vs plants removed") {
		t.Error("missing robustness caption")
	}
	if !strings.Contains(out, "pollination service vs plants removed") {
		t.Error("missing service caption")
	}

	if out := RenderCurve(sampleRows()[:1], CurveRobustness, 30, 5); !strings.Contains(out, "not enough rows") {
		t.Errorf("single row should not plot, got %q", out)
	}
}

func TestRenderSweep(t *testing.T) {
	out := RenderSweep([]float64{0, 2.5}, []float64{0.4, 0.6}, 20, 4)
	if !strings.Contains(out, "D = 0 2.5") {
		t.Errorf("caption missing dispersal values: %q", out)
	}
}

func TestProgressBarBounds(t *testing.T) {
	for _, f := range []float64{-1, 0, 0.5, 2} {
		if got := strings.Count(ProgressBar(f, 10), "█") + strings.Count(ProgressBar(f, 10), "░"); got != 10 {
			t.Errorf("ProgressBar(%v) has %d cells", f, got)
		}
	}
}
