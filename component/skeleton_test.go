// ABOUTME: Tests for skeleton placeholder rows derived from markdown blocks.
package component

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(lines []SkeletonLine) []SkeletonKind {
	out := make([]SkeletonKind, len(lines))
	for i, l := range lines {
		out[i] = l.Kind
	}
	return out
}

func TestSkeletonBlankDocumentKeepsOneRow(t *testing.T) {
	want := []SkeletonLine{{Kind: SkeletonText, Width: 20, Lines: 1}}
	assert.Equal(t, want, Skeleton(""))
	assert.Equal(t, want, Skeleton("\n\n  \n"))
	assert.Equal(t, want, Skeleton("\t\r\n"))
}

func TestSkeletonSampleTextShape(t *testing.T) {
	got := kinds(Skeleton(SampleText))
	want := []SkeletonKind{
		SkeletonHeading, SkeletonText,
		SkeletonHeading, SkeletonList,
		SkeletonHeading,
		SkeletonHeading, SkeletonList,
		SkeletonHeading, SkeletonCode,
		SkeletonHeading, SkeletonTable,
		SkeletonText,
	}
	assert.Equal(t, want, got)
}

func TestSkeletonGroupsConsecutiveLines(t *testing.T) {
	lines := Skeleton("one\ntwo\nthree\n\n- a\n- b\n1. c\n")
	require.Len(t, lines, 2)
	assert.Equal(t, SkeletonText, lines[0].Kind)
	assert.Equal(t, 3, lines[0].Lines)
	assert.Equal(t, SkeletonList, lines[1].Kind)
	assert.Equal(t, 3, lines[1].Lines)
}

func TestSkeletonCodeFenceSwallowsMarkdown(t *testing.T) {
	lines := Skeleton("```\n# not a heading\n| not | table |\n```\nafter")
	require.Len(t, lines, 2)
	assert.Equal(t, SkeletonCode, lines[0].Kind)
	assert.Equal(t, 2, lines[0].Lines)
	assert.Equal(t, 100, lines[0].Width)
	assert.Equal(t, SkeletonText, lines[1].Kind)
}

func TestSkeletonUnterminatedFence(t *testing.T) {
	lines := Skeleton("```\ncode")
	require.Len(t, lines, 1)
	assert.Equal(t, SkeletonCode, lines[0].Kind)
}

func TestSkeletonWidthsTrackLineLength(t *testing.T) {
	short := Skeleton("hi")[0]
	medium := Skeleton(strings.Repeat("x", 40))[0]
	long := Skeleton(strings.Repeat("x", 400))[0]

	assert.Equal(t, 20, short.Width)
	assert.Equal(t, 50, medium.Width)
	assert.Equal(t, 100, long.Width)
}

func TestSkeletonRuleAndHeading(t *testing.T) {
	lines := Skeleton("# H\ntext\n---\n***")
	assert.Equal(t, []SkeletonKind{SkeletonHeading, SkeletonText, SkeletonRule, SkeletonRule}, kinds(lines))
	for _, l := range lines {
		assert.Equal(t, 1, l.Lines)
	}
}

func TestIsOrderedItem(t *testing.T) {
	assert.True(t, isOrderedItem("1. a"))
	assert.True(t, isOrderedItem("12) a"))
	assert.False(t, isOrderedItem("1.a"))
	assert.False(t, isOrderedItem("a. b"))
	assert.False(t, isOrderedItem("1."))
}
