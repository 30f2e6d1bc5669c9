package aligner

import (
	"errors"
	"reflect"
	"testing"

	"speechline/internal/g2p"
	"speechline/internal/lexicon"
	"speechline/internal/offset"
)

func sampleOffsets() []offset.Offset {
	return []offset.Offset{
		{Unit: "h", Start: 0.0, End: 0.2},
		{Unit: "ɚ", Start: 0.24, End: 0.28},
		{Unit: "i", Start: 0.42, End: 0.44},
		{Unit: "d", Start: 0.5, End: 0.54},
		{Unit: "d", Start: 0.5, End: 0.54},
		{Unit: "ʌ", Start: 0.64, End: 0.66},
		{Unit: "m", Start: 0.7, End: 0.74},
		{Unit: "b", Start: 0.78, End: 0.82},
		{Unit: "ɹ", Start: 0.84, End: 0.9},
		{Unit: "ɛ", Start: 0.92, End: 0.94},
		{Unit: "l", Start: 1.0, End: 1.04},
		{Unit: "ə", Start: 1.08, End: 1.12},
	}
}

func newTestAligner(t *testing.T, opts Options) *PunctuationForcedAligner {
	t.Helper()
	lex := lexicon.New(map[string][]string{
		"her":      {"h ɚ"},
		"red":      {"ɹ ɛ d"},
		"umbrella": {"ʌ m b ɹ ɛ l ə"},
	})
	a, err := New(g2p.NewLexicon(lex, nil), opts)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func units(offsets []offset.Offset) []string {
	out := make([]string, len(offsets))
	for i, o := range offsets {
		out[i] = o.Unit
	}
	return out
}

func TestAlignInsertsPunctuation(t *testing.T) {
	a := newTestAligner(t, Options{})
	input := sampleOffsets()
	got, err := a.Align(input, "Her red, umbrella.")
	if err != nil {
		t.Fatal(err)
	}
	want := append([]offset.Offset{}, input[:5]...)
	want = append(want, offset.Offset{Unit: ",", Start: 0.54, End: 0.64})
	want = append(want, input[5:]...)
	want = append(want, offset.Offset{Unit: ".", Start: 1.12, End: 1.12})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Align = %v\nwant %v", units(got), units(want))
	}
	if len(input) != 12 {
		t.Fatal("Align must not modify its input")
	}
}

func TestAlignEarlyComma(t *testing.T) {
	a := newTestAligner(t, Options{})
	got, err := a.Align(sampleOffsets(), "Her, red umbrella.")
	if err != nil {
		t.Fatal(err)
	}
	if got[2] != (offset.Offset{Unit: ",", Start: 0.28, End: 0.42}) {
		t.Fatalf("comma = %#v", got[2])
	}
	if len(got) != 14 || got[13].Unit != "." {
		t.Fatalf("Align = %v", units(got))
	}
}

func TestAlignLeadingAndRepeatedPunctuation(t *testing.T) {
	a := newTestAligner(t, Options{})
	got, err := a.Align(sampleOffsets(), ", her red umbrella?!")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != (offset.Offset{Unit: ",", Start: 0, End: 0}) {
		t.Fatalf("leading mark = %#v", got[0])
	}
	n := len(got)
	if got[n-2] != (offset.Offset{Unit: "?", Start: 1.12, End: 1.12}) || got[n-1] != (offset.Offset{Unit: "!", Start: 1.12, End: 1.12}) {
		t.Fatalf("trailing marks = %#v %#v", got[n-2], got[n-1])
	}
}

func TestAlignWithoutPunctuationIsIdentity(t *testing.T) {
	a := newTestAligner(t, Options{})
	got, err := a.Align(sampleOffsets(), "Her red umbrella")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, sampleOffsets()) {
		t.Fatalf("Align = %v", units(got))
	}
}

func TestAlignTooFewPhonemes(t *testing.T) {
	a := newTestAligner(t, Options{})
	short := sampleOffsets()[:1]
	got, err := a.Align(short, "Her, red.")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, short) {
		t.Fatalf("Align = %v", units(got))
	}
}

func TestAlignCandidateLimit(t *testing.T) {
	a := newTestAligner(t, Options{MaxCandidates: 5})
	input := sampleOffsets()
	got, err := a.Align(input, "Her, red, umbrella.")
	if !errors.Is(err, ErrCandidateLimit) {
		t.Fatalf("expected ErrCandidateLimit, got %v", err)
	}
	if !reflect.DeepEqual(got, input) {
		t.Fatal("capped alignment must return the input unchanged")
	}
}

func TestAlignG2PError(t *testing.T) {
	a := newTestAligner(t, Options{})
	if _, err := a.Align(sampleOffsets(), "Her zebra."); !errors.Is(err, lexicon.ErrUnknownWord) {
		t.Fatalf("expected ErrUnknownWord, got %v", err)
	}
}

func TestSplitPunctuation(t *testing.T) {
	a := newTestAligner(t, Options{})
	segments, cleaned := a.SplitPunctuation([]string{"h", "ɚ", "ɹ", "ɛ", "d", ",", "ʌ", "m", "."})
	if !reflect.DeepEqual(segments, []string{"h ɚ ɹ ɛ d", ",", "ʌ m", "."}) {
		t.Fatalf("segments = %#v", segments)
	}
	if !reflect.DeepEqual(cleaned, []string{"h ɚ ɹ ɛ d", "ʌ m"}) {
		t.Fatalf("cleaned = %#v", cleaned)
	}
}

func TestPartitionIter(t *testing.T) {
	it := newPartitionIter(4, 3)
	var got [][]int
	for it.Next() {
		got = append(got, it.Lengths())
	}
	want := [][]int{{1, 1, 2}, {1, 2, 1}, {2, 1, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("partitions = %v", got)
	}

	single := newPartitionIter(3, 1)
	if !single.Next() || !reflect.DeepEqual(single.Lengths(), []int{3}) || single.Next() {
		t.Fatal("k=1 should yield exactly one partition")
	}
	if newPartitionIter(2, 3).Next() {
		t.Fatal("k > n should yield nothing")
	}
	if newPartitionIter(3, 0).Next() {
		t.Fatal("k = 0 should yield nothing")
	}
}

func TestBinomialExceeds(t *testing.T) {
	tests := []struct {
		n, r, limit int
		want        bool
	}{
		{11, 2, 55, false},
		{11, 2, 54, true},
		{5, 0, 1, false},
		{60, 30, 1000000, true},
	}
	for _, tt := range tests {
		if got := binomialExceeds(tt.n, tt.r, tt.limit); got != tt.want {
			t.Fatalf("binomialExceeds(%d, %d, %d) = %v", tt.n, tt.r, tt.limit, got)
		}
	}
}

func TestSampleStdev(t *testing.T) {
	if got := sampleStdev([]int{5, 7}); got != 1.4142135623730951 {
		t.Fatalf("sampleStdev = %v", got)
	}
	if sampleStdev([]int{3}) != 0 {
		t.Fatal("single value stdev should be 0")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected error without g2p")
	}
	a := newTestAligner(t, Options{Punctuations: []string{"…"}})
	if !a.IsPunctuation("…") || a.IsPunctuation(",") {
		t.Fatal("custom punctuation not honoured")
	}
}
