package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ChangeSnapshot is one side of a change (before or after), flattened for
// diffing.
type ChangeSnapshot struct {
	Entity   EntityType
	EntityID string
	Version  int64
	Fields   Row
}

// BeforeSnapshot returns the pre-mutation side of a change. ok is false for
// inserts, which have no before state.
func BeforeSnapshot(c Change) (ChangeSnapshot, bool) {
	if c.Type == ChangeInsert {
		return ChangeSnapshot{}, false
	}
	return ChangeSnapshot{Entity: c.Entity, EntityID: c.EntityID, Version: c.Version - 1, Fields: c.DataBefore.Clone()}, true
}

// AfterSnapshot returns the post-mutation side of a change. ok is false for
// deletes, which have no after state.
func AfterSnapshot(c Change) (ChangeSnapshot, bool) {
	if c.Type == ChangeDelete {
		return ChangeSnapshot{}, false
	}
	return ChangeSnapshot{Entity: c.Entity, EntityID: c.EntityID, Version: c.Version, Fields: c.DataAfter.Clone()}, true
}

// CanonicalText flattens the snapshot into a deterministic set of lines
// suitable for diffing.
func (s ChangeSnapshot) CanonicalText() ([]string, error) {
	lines := []string{
		fmt.Sprintf("Entity: %s", s.Entity),
		fmt.Sprintf("EntityID: %s", s.EntityID),
		fmt.Sprintf("Version: %d", s.Version),
		"Fields:",
	}

	flattened := map[string]string{}
	if len(s.Fields) > 0 {
		if err := flattenFields("", map[string]any(s.Fields), flattened); err != nil {
			return nil, err
		}
	}

	if len(flattened) == 0 {
		lines = append(lines, "  (empty)")
		return lines, nil
	}

	keys := make([]string, 0, len(flattened))
	for key := range flattened {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %s", key, flattened[key]))
	}

	return lines, nil
}

// RenderChangeDiff produces a unified diff of a change's before/after field
// snapshots, labeled with the versions they represent.
func RenderChangeDiff(c Change) (string, error) {
	var basePtr, targetPtr *ChangeSnapshot

	if base, ok := BeforeSnapshot(c); ok {
		basePtr = &base
	}
	if target, ok := AfterSnapshot(c); ok {
		targetPtr = &target
	}

	baseLabel := fmt.Sprintf("%s/%s@v%d", c.Entity, c.EntityID, c.Version-1)
	targetLabel := fmt.Sprintf("%s/%s@v%d", c.Entity, c.EntityID, c.Version)

	baseString, err := canonicalString(basePtr)
	if err != nil {
		return "", err
	}

	targetString, err := canonicalString(targetPtr)
	if err != nil {
		return "", err
	}

	return buildUnifiedDiff(baseLabel, targetLabel, baseString, targetString), nil
}

func canonicalString(snapshot *ChangeSnapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	lines, err := snapshot.CanonicalText()
	if err != nil {
		return "", err
	}

	return strings.Join(lines, "\n") + "\n", nil
}

func flattenFields(prefix string, value any, acc map[string]string) error {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix != "" {
				acc[prefix] = "{}"
			}
			return nil
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			nextPrefix := key
			if prefix != "" {
				nextPrefix = prefix + "." + key
			}
			if err := flattenFields(nextPrefix, typed[key], acc); err != nil {
				return err
			}
		}
	case []any:
		if len(typed) == 0 {
			if prefix != "" {
				acc[prefix] = "[]"
			}
			return nil
		}
		for idx, item := range typed {
			nextPrefix := fmt.Sprintf("%s[%d]", prefix, idx)
			if prefix == "" {
				nextPrefix = fmt.Sprintf("[%d]", idx)
			}
			if err := flattenFields(nextPrefix, item, acc); err != nil {
				return err
			}
		}
	case nil:
		if prefix != "" {
			acc[prefix] = "null"
		}
	default:
		if prefix == "" {
			return fmt.Errorf("field key missing for value %v", typed)
		}
		encoded, err := json.Marshal(typed)
		if err != nil {
			acc[prefix] = fmt.Sprintf("%v", typed)
		} else {
			acc[prefix] = string(encoded)
		}
	}

	return nil
}

type diffOp struct {
	prefix string
	line   string
}

func buildUnifiedDiff(baseLabel, targetLabel, baseContent, targetContent string) string {
	baseLines := splitLines(baseContent)
	targetLines := splitLines(targetContent)

	ops := diffLines(baseLines, targetLines)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("--- %s\n", baseLabel))
	builder.WriteString(fmt.Sprintf("+++ %s\n", targetLabel))
	builder.WriteString("@@ -0,0 +0,0 @@\n")
	for _, operation := range ops {
		builder.WriteString(operation.prefix)
		builder.WriteString(operation.line)
		builder.WriteString("\n")
	}

	return builder.String()
}

func splitLines(input string) []string {
	lines := strings.Split(input, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// diffLines is a longest-common-subsequence line diff.
func diffLines(base, target []string) []diffOp {
	m := len(base)
	n := len(target)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if base[i] == target[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	ops := make([]diffOp, 0, m+n)
	i, j := 0, 0
	for i < m && j < n {
		if base[i] == target[j] {
			ops = append(ops, diffOp{prefix: " ", line: base[i]})
			i++
			j++
			continue
		}

		if dp[i+1][j] >= dp[i][j+1] {
			ops = append(ops, diffOp{prefix: "-", line: base[i]})
			i++
		} else {
			ops = append(ops, diffOp{prefix: "+", line: target[j]})
			j++
		}
	}

	for i < m {
		ops = append(ops, diffOp{prefix: "-", line: base[i]})
		i++
	}

	for j < n {
		ops = append(ops, diffOp{prefix: "+", line: target[j]})
		j++
	}

	return ops
}
