package ingest

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 1500, 150); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplit_ShortText(t *testing.T) {
	got := Split("hello", 1500, 150)
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("Split(short) = %v, want [hello]", got)
	}
}

func TestSplit_WindowPositions(t *testing.T) {
	// size 10, overlap 3 -> step 7: windows at 0, 7, 14, ...
	text := "abcdefghijklmnopqrst" // 20 chars
	got := Split(text, 10, 3)

	want := []string{"abcdefghij", "hijklmnopq", "opqrst"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplit_MaxChunkLength(t *testing.T) {
	text := strings.Repeat("x", 5000)
	for i, c := range Split(text, 1500, 150) {
		if len(c) > 1500 {
			t.Errorf("chunk[%d] length = %d, want <= 1500", i, len(c))
		}
	}
}

func TestSplit_FullCoverage(t *testing.T) {
	// Every source character must appear in at least one chunk. With
	// positional windows it suffices that consecutive starts differ by
	// step <= size and the last chunk reaches end-of-text.
	text := strings.Repeat("abcdefghij", 487) // 4870 chars, not a multiple of the step
	chunks := Split(text, 1500, 150)

	covered := 0
	for i, c := range chunks {
		start := i * (1500 - 150)
		if start+len(c) > covered {
			covered = start + len(c)
		}
		if start > covered {
			t.Fatalf("gap before chunk %d", i)
		}
	}
	if covered != len(text) {
		t.Errorf("covered %d chars, want %d", covered, len(text))
	}

	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Error("final chunk does not end at end-of-text")
	}
}

func TestSplit_ChunkCountClosedForm(t *testing.T) {
	// n characters, step s = size-overlap: ceil((n-size)/s) + 1 chunks
	// for n > size, else 1.
	cases := []struct {
		n, size, overlap, want int
	}{
		{1500, 1500, 150, 1},
		{1501, 1500, 150, 2},
		{4000, 1500, 150, 3},
		{100, 10, 3, 14},
	}
	for _, tc := range cases {
		got := Split(strings.Repeat("a", tc.n), tc.size, tc.overlap)
		if len(got) != tc.want {
			t.Errorf("Split(n=%d, size=%d, overlap=%d) = %d chunks, want %d",
				tc.n, tc.size, tc.overlap, len(got), tc.want)
		}
	}
}

func TestSplit_OverlapGEQSizeTerminates(t *testing.T) {
	// Degenerate overlap clamps to a full-size step instead of looping.
	got := Split(strings.Repeat("a", 100), 10, 10)
	if len(got) != 10 {
		t.Errorf("got %d chunks, want 10 with clamped step", len(got))
	}
}

func TestSplit_MultiByte(t *testing.T) {
	text := strings.Repeat("§клаузула", 40)
	for i, c := range Split(text, 50, 5) {
		for _, r := range c {
			if r == '�' {
				t.Fatalf("chunk[%d] contains replacement char: multi-byte rune was split", i)
			}
		}
	}
}
