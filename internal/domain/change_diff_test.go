package domain

import (
	"strings"
	"testing"
)

func TestChangeSnapshotCanonicalText(t *testing.T) {
	snapshot := ChangeSnapshot{
		Entity:   EntityAccounts,
		EntityID: "acc000000001",
		Version:  1,
		Fields: Row{
			"label":    "Cash",
			"metadata": map[string]any{"color": "red", "order": float64(3)},
			"tags":     []any{"alpha", "beta"},
		},
	}

	lines, err := snapshot.CanonicalText()
	if err != nil {
		t.Fatalf("unexpected error generating canonical text: %v", err)
	}

	expected := []string{
		"Entity: accounts",
		"EntityID: acc000000001",
		"Version: 1",
		"Fields:",
		"  label: \"Cash\"",
		"  metadata.color: \"red\"",
		"  metadata.order: 3",
		"  tags[0]: \"alpha\"",
		"  tags[1]: \"beta\"",
	}

	if len(lines) != len(expected) {
		t.Fatalf("expected %d canonical lines, got %d\n%v", len(expected), len(lines), lines)
	}

	for idx, line := range expected {
		if lines[idx] != line {
			t.Errorf("line %d mismatch: expected %q got %q", idx, line, lines[idx])
		}
	}
}

func TestRenderChangeDiffUpdate(t *testing.T) {
	change := Change{
		Entity:   EntityAccounts,
		EntityID: "acc000000001",
		Version:  2,
		Type:     ChangeUpdate,
		DataBefore: Row{
			"label": "Cash",
		},
		DataAfter: Row{
			"label": "Wallet",
		},
	}

	diff, err := RenderChangeDiff(change)
	if err != nil {
		t.Fatalf("unexpected diff error: %v", err)
	}

	if diff == "" {
		t.Fatalf("expected diff output, got empty string")
	}

	if !strings.Contains(diff, "-  label: \"Cash\"") {
		t.Errorf("diff missing removed label line: %s", diff)
	}

	if !strings.Contains(diff, "+  label: \"Wallet\"") {
		t.Errorf("diff missing added label line: %s", diff)
	}
}

func TestRenderChangeDiffInsertHasNoBaseLines(t *testing.T) {
	change := Change{
		Entity:    EntityPayees,
		EntityID:  "pay000000001",
		Version:   1,
		Type:      ChangeInsert,
		DataAfter: Row{"name": "Grocer"},
	}

	diff, err := RenderChangeDiff(change)
	if err != nil {
		t.Fatalf("unexpected diff error: %v", err)
	}

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			t.Errorf("insert diff should not remove lines, got %q", line)
		}
	}

	if !strings.Contains(diff, "+  name: \"Grocer\"") {
		t.Errorf("diff missing inserted field: %s", diff)
	}
}

func TestRenderChangeDiffDeleteHasNoTargetLines(t *testing.T) {
	change := Change{
		Entity:     EntityPayees,
		EntityID:   "pay000000001",
		Version:    3,
		Type:       ChangeDelete,
		DataBefore: Row{"name": "Grocer", "userId": "usr000000001"},
	}

	diff, err := RenderChangeDiff(change)
	if err != nil {
		t.Fatalf("unexpected diff error: %v", err)
	}

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			t.Errorf("delete diff should not add lines, got %q", line)
		}
	}
}
