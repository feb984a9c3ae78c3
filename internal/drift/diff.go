package drift

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each change
const contextLines = 3

// line is one line of a line-level diff
type line struct {
	op   diffmatchpatch.Operation
	text string
}

// UnifiedDiff renders a line-level unified diff of two texts. It returns
// an empty string when they are equal.
func UnifiedDiff(path, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []line
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			lines = append(lines, line{op: d.Type, text: text})
		}
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- a/%s\n", path)
	fmt.Fprintf(&buf, "+++ b/%s (regenerated)\n", path)
	for _, h := range hunks(lines) {
		writeHunk(&buf, lines, h)
	}
	return buf.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// hunk is a half-open range of lines to print
type hunk struct{ start, end int }

// hunks groups changed lines with their context, merging groups whose
// context overlaps.
func hunks(lines []line) []hunk {
	var out []hunk
	for i, l := range lines {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		start := max(0, i-contextLines)
		end := min(len(lines), i+contextLines+1)
		if n := len(out); n > 0 && start <= out[n-1].end {
			out[n-1].end = max(out[n-1].end, end)
			continue
		}
		out = append(out, hunk{start: start, end: end})
	}
	return out
}

func writeHunk(buf *strings.Builder, lines []line, h hunk) {
	// 1-based line numbers at the hunk start in each text
	oldStart, newStart := 1, 1
	for _, l := range lines[:h.start] {
		if l.op != diffmatchpatch.DiffInsert {
			oldStart++
		}
		if l.op != diffmatchpatch.DiffDelete {
			newStart++
		}
	}

	var oldCount, newCount int
	var body strings.Builder
	for _, l := range lines[h.start:h.end] {
		switch l.op {
		case diffmatchpatch.DiffEqual:
			body.WriteString(" " + l.text + "\n")
			oldCount++
			newCount++
		case diffmatchpatch.DiffDelete:
			body.WriteString("-" + l.text + "\n")
			oldCount++
		case diffmatchpatch.DiffInsert:
			body.WriteString("+" + l.text + "\n")
			newCount++
		}
	}

	fmt.Fprintf(buf, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	buf.WriteString(body.String())
}
