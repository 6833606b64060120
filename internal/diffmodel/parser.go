package diffmodel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	diffHeaderRegex = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
	oldFileRegex    = regexp.MustCompile(`^--- (?:a/(.+)|(/dev/null))$`)
	newFileRegex    = regexp.MustCompile(`^\+\+\+ (?:b/(.+)|(/dev/null))$`)
)

// ParseUnified parses a single file's unified-diff patch text (the body that
// would follow a "diff --git" line, or the whole patch for a one-file diff)
// into a FileDiff with a regex-driven line walk. It additionally derives
// CollapsedBefore for each hunk (the gap between the previous hunk's end
// and this hunk's start) and groups lines into the alternating
// context/change Runs the diff iterator walks.
func ParseUnified(old, new FileContents, patch string) (*FileDiff, error) {
	diff := &FileDiff{Old: old, New: new}

	lines := strings.Split(patch, "\n")
	// A patch ending in "\n" splits into a final empty element, which is the
	// end of the text, not a blank context line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	var cur *Hunk
	var curRuns []Run
	var pendingContext []Line
	oldLine, newLine := 0, 0
	prevOldEnd, prevNewEnd := 0, 0

	flushContext := func() {
		if len(pendingContext) > 0 {
			curRuns = append(curRuns, Run{Context: pendingContext})
			pendingContext = nil
		}
	}
	flushHunk := func() {
		if cur == nil {
			return
		}
		flushContext()
		cur.Content = curRuns
		diff.Hunks = append(diff.Hunks, *cur)
		cur = nil
		curRuns = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") || diffHeaderRegex.MatchString(line) {
			continue
		}
		if m := oldFileRegex.FindStringSubmatch(line); m != nil {
			continue
		}
		if m := newFileRegex.FindStringSubmatch(line); m != nil {
			continue
		}
		if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
			flushHunk()

			oldStart, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("invalid hunk old start: %q", line)
			}
			oldCount := 1
			if m[2] != "" {
				oldCount, err = strconv.Atoi(m[2])
				if err != nil {
					return nil, fmt.Errorf("invalid hunk old count: %q", line)
				}
			}
			newStart, err := strconv.Atoi(m[3])
			if err != nil {
				return nil, fmt.Errorf("invalid hunk new start: %q", line)
			}
			newCount := 1
			if m[4] != "" {
				newCount, err = strconv.Atoi(m[4])
				if err != nil {
					return nil, fmt.Errorf("invalid hunk new count: %q", line)
				}
			}

			var collapsedOld, collapsedNew int
			if prevOldEnd > 0 {
				collapsedOld = oldStart - prevOldEnd - 1
				collapsedNew = newStart - prevNewEnd - 1
			} else {
				collapsedOld = oldStart - 1
				collapsedNew = newStart - 1
			}
			if collapsedOld != collapsedNew {
				return nil, fmt.Errorf("collapsed region mismatch before hunk %q: old=%d new=%d", line, collapsedOld, collapsedNew)
			}

			cur = &Hunk{
				DeletionStart:     oldStart,
				DeletionCount:     oldCount,
				AdditionStart:     newStart,
				AdditionCount:     newCount,
				DeletionLineIndex: len(diff.DeletionLines),
				AdditionLineIndex: len(diff.AdditionLines),
				CollapsedBefore:   max(collapsedOld, 0),
				Header:            strings.TrimSpace(m[5]),
			}
			curRuns = nil
			oldLine, newLine = oldStart, newStart
			prevOldEnd, prevNewEnd = oldStart+oldCount-1, newStart+newCount-1
			continue
		}

		if cur == nil {
			continue
		}

		if line == "" {
			pendingContext = append(pendingContext, Line{Type: LineContext, OldLineNum: oldLine, NewLineNum: newLine})
			diff.DeletionLines = append(diff.DeletionLines, Line{Type: LineContext, OldLineNum: oldLine, NewLineNum: newLine})
			diff.AdditionLines = append(diff.AdditionLines, Line{Type: LineContext, OldLineNum: oldLine, NewLineNum: newLine})
			oldLine++
			newLine++
			continue
		}

		prefix, content := line[0], ""
		if len(line) > 1 {
			content = line[1:]
		}

		switch prefix {
		case ' ':
			// A change run already landed in curRuns via appendDeletion/
			// appendAddition; nothing to close here but the pending context.
			pendingContext = append(pendingContext, Line{Type: LineContext, OldLineNum: oldLine, NewLineNum: newLine, Content: content})
			diff.DeletionLines = append(diff.DeletionLines, Line{Type: LineContext, OldLineNum: oldLine, NewLineNum: newLine, Content: content})
			diff.AdditionLines = append(diff.AdditionLines, Line{Type: LineContext, OldLineNum: oldLine, NewLineNum: newLine, Content: content})
			oldLine++
			newLine++
		case '-':
			flushContext()
			appendDeletion(&curRuns, Line{Type: LineDeletion, OldLineNum: oldLine, Content: content})
			diff.DeletionLines = append(diff.DeletionLines, Line{Type: LineDeletion, OldLineNum: oldLine, Content: content})
			oldLine++
		case '+':
			flushContext()
			appendAddition(&curRuns, Line{Type: LineAddition, NewLineNum: newLine, Content: content})
			diff.AdditionLines = append(diff.AdditionLines, Line{Type: LineAddition, NewLineNum: newLine, Content: content})
			newLine++
		case '\\':
			// "\ No newline at end of file"
			if cur != nil {
				if strings.Contains(content, "No newline") {
					markNoTrailingNewline(cur, curRuns)
				}
			}
		default:
			// unrecognized — skip rather than fail the whole parse
		}
	}
	flushHunk()

	if old.Text != "" {
		diff.TotalOldLines = countLines(old.Text)
	}
	if new.Text != "" {
		diff.TotalNewLines = countLines(new.Text)
	}

	diff.ResolveViewSpace()
	return diff, nil
}

func appendDeletion(runs *[]Run, l Line) {
	if n := len(*runs); n > 0 && (*runs)[n-1].IsChange {
		(*runs)[n-1].Deletions = append((*runs)[n-1].Deletions, l)
		return
	}
	*runs = append(*runs, Run{IsChange: true, Deletions: []Line{l}})
}

func appendAddition(runs *[]Run, l Line) {
	if n := len(*runs); n > 0 && (*runs)[n-1].IsChange {
		(*runs)[n-1].Additions = append((*runs)[n-1].Additions, l)
		return
	}
	*runs = append(*runs, Run{IsChange: true, Additions: []Line{l}})
}

// markNoTrailingNewline flags whichever side's most recent emitted line was
// last, since "\ No newline at end of file" always immediately follows the
// line it applies to.
func markNoTrailingNewline(h *Hunk, runs []Run) {
	if len(runs) == 0 {
		return
	}
	last := runs[len(runs)-1]
	if last.IsChange {
		if len(last.Additions) > 0 {
			h.AdditionNoTrailingNewline = true
		} else if len(last.Deletions) > 0 {
			h.DeletionNoTrailingNewline = true
		}
		return
	}
	h.DeletionNoTrailingNewline = true
	h.AdditionNoTrailingNewline = true
}

// diffContext is the number of unchanged lines kept on each side of a change
// when grouping a two-blob diff into hunks, matching the conventional
// unified-diff default.
const diffContext = 3

type lineOp struct {
	kind             int // 0=equal, 1=delete, 2=insert
	oldNum, newNum   int // 1-based; 0 when this side has no line
	oldPos, newPos   int // cursor position before this op was consumed
	text             string
}

const (
	opEqual = iota
	opDelete
	opInsert
)

// ParseDiffFromFiles computes a FileDiff directly from two full file blobs,
// for hosts that hand the viewer two versions of a file instead of a
// precomputed patch. It line-diffs with go-diff's Myers implementation and
// then groups the resulting line ops into hunks using the conventional
// unified-diff context window, same as `diff -U3` would.
func ParseDiffFromFiles(old, new FileContents) (*FileDiff, error) {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old.Text, new.Text)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	diff := &FileDiff{
		Old:           old,
		New:           new,
		TotalOldLines: countLines(old.Text),
		TotalNewLines: countLines(new.Text),
	}

	var ops []lineOp
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		for _, text := range splitKeepLines(d.Text) {
			op := lineOp{oldPos: oldLine, newPos: newLine, text: text}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				op.kind = opEqual
				op.oldNum, op.newNum = oldLine, newLine
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				op.kind = opDelete
				op.oldNum = oldLine
				oldLine++
			case diffmatchpatch.DiffInsert:
				op.kind = opInsert
				op.newNum = newLine
				newLine++
			}
			ops = append(ops, op)
		}
	}

	included := make([]bool, len(ops))
	for i, op := range ops {
		if op.kind == opEqual {
			continue
		}
		lo, hi := max(0, i-diffContext), min(len(ops)-1, i+diffContext)
		for j := lo; j <= hi; j++ {
			included[j] = true
		}
	}

	prevEnd := -1
	for i := 0; i < len(ops); {
		if !included[i] {
			i++
			continue
		}
		start := i
		for i < len(ops) && included[i] {
			i++
		}
		end := i - 1

		h := Hunk{
			DeletionStart:     ops[start].oldPos,
			AdditionStart:     ops[start].newPos,
			DeletionLineIndex: len(diff.DeletionLines),
			AdditionLineIndex: len(diff.AdditionLines),
			CollapsedBefore:   start - (prevEnd + 1),
		}

		var curRuns []Run
		var pendingContext []Line
		flush := func() {
			if len(pendingContext) > 0 {
				curRuns = append(curRuns, Run{Context: pendingContext})
				pendingContext = nil
			}
		}
		for j := start; j <= end; j++ {
			op := ops[j]
			switch op.kind {
			case opEqual:
				l := Line{Type: LineContext, OldLineNum: op.oldNum, NewLineNum: op.newNum, Content: op.text}
				pendingContext = append(pendingContext, l)
				diff.DeletionLines = append(diff.DeletionLines, l)
				diff.AdditionLines = append(diff.AdditionLines, l)
				h.DeletionCount++
				h.AdditionCount++
			case opDelete:
				flush()
				l := Line{Type: LineDeletion, OldLineNum: op.oldNum, Content: op.text}
				appendDeletion(&curRuns, l)
				diff.DeletionLines = append(diff.DeletionLines, l)
				h.DeletionCount++
			case opInsert:
				flush()
				l := Line{Type: LineAddition, NewLineNum: op.newNum, Content: op.text}
				appendAddition(&curRuns, l)
				diff.AdditionLines = append(diff.AdditionLines, l)
				h.AdditionCount++
			}
		}
		flush()
		h.Content = curRuns
		diff.Hunks = append(diff.Hunks, h)
		prevEnd = end
	}

	diff.ResolveViewSpace()
	return diff, nil
}

func splitKeepLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
