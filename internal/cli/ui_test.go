package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/qmap/pkg/pipeline"
	"github.com/matzehuels/qmap/pkg/rank"
)

func sampleCandidates() []pipeline.Candidate {
	return []pipeline.Candidate{
		{Candidate: rank.Candidate{Device: "fake_lima", Cost: 0.125, Layout: []int{0, 1}}, Mapping: map[int]int{0: 0, 1: 1}},
		{Candidate: rank.Candidate{Device: "fake_quito", Cost: 0.25, Layout: []int{3, 1}}, Mapping: map[int]int{0: 3, 2: 1}},
		{Candidate: rank.Candidate{Device: "fake_belem", Cost: 0.5, Layout: []int{1, 2}}, Mapping: map[int]int{0: 1, 2: 2}},
	}
}

func TestFormatters(t *testing.T) {
	if got := formatMapping(map[int]int{3: 4, 0: 2, 1: 1}); got != "0→2 1→1 3→4" {
		t.Errorf("formatMapping = %q", got)
	}
	if got := formatLayout([]int{4, 0, 12}); got != "4,0,12" {
		t.Errorf("formatLayout = %q", got)
	}
	if got := formatFidelity(0.125); got != "87.50%" {
		t.Errorf("formatFidelity = %q", got)
	}
	if got := formatCost(0.0123456789); got != "0.0123457" {
		t.Errorf("formatCost = %q", got)
	}
}

func TestCandidatesTable(t *testing.T) {
	out := candidatesTable(sampleCandidates(), 0)
	for _, want := range []string{"Device", "Mapping", "fake_lima", "fake_quito", "fake_belem", "0→3 2→1"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "fake_lima") > strings.Index(out, "fake_belem") {
		t.Error("rows out of order")
	}
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"1,0,2", []int{1, 0, 2}, false},
		{" 4 , 3 ", []int{4, 3}, false},
		{"", []int{}, false},
		{"1,1", nil, true},
		{"1,x", nil, true},
		{"-1", nil, true},
	}
	for _, tt := range tests {
		got, err := parseLayout(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLayout(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && formatLayout(got) != formatLayout(tt.want) {
			t.Errorf("parseLayout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]string{
		"out.svg": pipeline.FormatSVG,
		"out.DOT": pipeline.FormatDOT,
		"out.gv":  pipeline.FormatDOT,
		"":        pipeline.FormatSVG,
	} {
		if got := formatFor(path); got != want {
			t.Errorf("formatFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m CandidateListModel, keys ...string) (CandidateListModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(CandidateListModel)
	}
	return m, cmd
}

func TestCandidateListModel(t *testing.T) {
	m := newCandidateListModel(sampleCandidates())
	if m.Selected != -1 {
		t.Fatalf("Selected = %d before any choice", m.Selected)
	}

	m, _ = press(m, "down", "j", "down", "up")
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 (clamped at the end, then one up)", m.Cursor)
	}
	if !strings.Contains(m.View(), "0→3 2→1") {
		t.Errorf("view does not show the mapping under the cursor:\n%s", m.View())
	}

	m, cmd := press(m, "enter")
	if m.Selected != 1 || cmd == nil {
		t.Errorf("Selected = %d, cmd = %v", m.Selected, cmd)
	}
}

func TestCandidateListModelQuit(t *testing.T) {
	m, cmd := press(newCandidateListModel(sampleCandidates()), "q")
	if m.Selected != -1 || cmd == nil {
		t.Errorf("quit: Selected = %d, cmd = %v", m.Selected, cmd)
	}
}

func TestCandidateListModelScrolls(t *testing.T) {
	m := newCandidateListModel(append(append(sampleCandidates(), sampleCandidates()...), sampleCandidates()...))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(CandidateListModel)
	if m.Height != 3 {
		t.Fatalf("Height = %d", m.Height)
	}
	m, _ = press(m, "G")
	if m.Cursor != 8 || m.Offset != 6 {
		t.Errorf("Cursor = %d, Offset = %d", m.Cursor, m.Offset)
	}
	m, _ = press(m, "g")
	if m.Offset != 0 {
		t.Errorf("Offset = %d after home", m.Offset)
	}
}
