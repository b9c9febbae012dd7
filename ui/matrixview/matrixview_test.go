package matrixview

import (
	"strings"
	"testing"

	"fakeshades/matrix"

	tea "github.com/charmbracelet/bubbletea"
)

func TestBlankMatrixBeforeFirstFrame(t *testing.T) {
	m := New(48, 16, "")
	if got := m.Matrix(); got.Columns != 48 || got.Rows != 16 {
		t.Fatalf("unexpected blank size %dx%d", got.Columns, got.Rows)
	}
}

func TestUpdateTakesMatrix(t *testing.T) {
	m := New(4, 4, "o")
	frame := matrix.New(2, 2)
	frame.Cells[1][0] = 15

	m, _ = m.Update(frame)
	if m.Matrix() != frame {
		t.Fatalf("view did not take the new matrix")
	}
	m, _ = m.Update((*matrix.Matrix)(nil))
	if m.Matrix() != frame {
		t.Fatalf("nil matrix replaced the last one")
	}
}

func TestRenderCellsFitsViewport(t *testing.T) {
	m := New(10, 6, "o")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})

	wide := m.renderCells(40, 20)
	if lines := strings.Split(wide, "\n"); len(lines) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(lines))
	}
	if n := strings.Count(wide, "o"); n != 60 {
		t.Fatalf("expected 60 cells, got %d", n)
	}

	narrow := m.renderCells(5, 3)
	if lines := strings.Split(narrow, "\n"); len(lines) != 3 {
		t.Fatalf("expected rows clipped to 3, got %d", len(lines))
	}
	if n := strings.Count(narrow, "o"); n != 15 {
		t.Fatalf("expected 15 visible cells, got %d", n)
	}
}
