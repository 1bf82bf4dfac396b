package presentation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// IndentParams pretty-prints provider params for diffing. Invalid JSON is
// returned unchanged.
func IndentParams(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	buf.WriteByte('\n')
	return buf.String()
}

// LineDiff renders a unified-style line diff of before and after with
// "+ ", "- " and "  " prefixes. Identical inputs render as an empty string.
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix, style := "  ", contextStyle
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, style = "+ ", addedStyle
		case diffmatchpatch.DiffDelete:
			prefix, style = "- ", removedStyle
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(style.Render(prefix + strings.TrimSuffix(line, "\n")))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
