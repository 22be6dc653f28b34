// ABOUTME: Skeleton placeholder layout derived from the markdown source while the renderer loads.
// ABOUTME: One row per source block so the preview keeps roughly the final shape and avoids layout shift.
package component

import "strings"

// SkeletonKind names the shape of one placeholder row.
type SkeletonKind string

const (
	SkeletonHeading SkeletonKind = "heading"
	SkeletonText    SkeletonKind = "text"
	SkeletonList    SkeletonKind = "list"
	SkeletonCode    SkeletonKind = "code"
	SkeletonTable   SkeletonKind = "table"
	SkeletonRule    SkeletonKind = "rule"
)

// SkeletonLine is one placeholder row. Width is a percentage of the panel, 20..100.
// Lines is how many text lines the block spans, used to size its height.
type SkeletonLine struct {
	Kind  SkeletonKind
	Width int
	Lines int
}

// charsPerRow approximates how many characters fit across the preview panel.
const charsPerRow = 80

// Skeleton scans src block by block and returns the placeholder rows for it.
// A blank document still gets one minimum-width text row.
func Skeleton(src string) []SkeletonLine {
	var out []SkeletonLine
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	var cur *SkeletonLine
	longest := 0
	flush := func() {
		if cur == nil {
			return
		}
		cur.Width = widthFor(longest)
		if cur.Lines == 0 {
			cur.Lines = 1
		}
		if cur.Kind == SkeletonTable || cur.Kind == SkeletonCode || cur.Kind == SkeletonRule {
			cur.Width = 100
		}
		out = append(out, *cur)
		cur = nil
		longest = 0
	}

	inFence := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if inFence {
			if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
				inFence = false
				flush()
				continue
			}
			cur.Lines++
			longest = max(longest, len(line))
			continue
		}

		kind := classify(line)
		switch {
		case line == "":
			flush()
			continue
		case kind == SkeletonCode:
			flush()
			inFence = true
			cur = &SkeletonLine{Kind: SkeletonCode}
			continue
		case kind == SkeletonHeading || kind == SkeletonRule:
			flush()
			cur = &SkeletonLine{Kind: kind, Lines: 1}
			longest = len(line)
			flush()
			continue
		}

		if cur != nil && cur.Kind != kind {
			flush()
		}
		if cur == nil {
			cur = &SkeletonLine{Kind: kind}
		}
		cur.Lines++
		longest = max(longest, len(line))
	}
	flush()
	if len(out) == 0 {
		out = append(out, SkeletonLine{Kind: SkeletonText, Width: widthFor(0), Lines: 1})
	}
	return out
}

func classify(line string) SkeletonKind {
	switch {
	case strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~"):
		return SkeletonCode
	case strings.HasPrefix(line, "#"):
		return SkeletonHeading
	case line == "---" || line == "***" || line == "___":
		return SkeletonRule
	case strings.HasPrefix(line, "|"):
		return SkeletonTable
	case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ") || isOrderedItem(line):
		return SkeletonList
	default:
		return SkeletonText
	}
}

func isOrderedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' '
}

func widthFor(chars int) int {
	w := chars * 100 / charsPerRow
	if w < 20 {
		return 20
	}
	if w > 100 {
		return 100
	}
	return w
}
