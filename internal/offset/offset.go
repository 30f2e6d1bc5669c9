package offset

import (
	"math"
	"strings"
)

// EmptyTag is the serialized form of an unclassified noise marker.
const EmptyTag = "<EMPTY>"

// NoiseKind discriminates plain tokens from noise markers.
type NoiseKind int

const (
	// NoiseNone marks a recognized token.
	NoiseNone NoiseKind = iota
	// NoiseEmpty marks a silent gap that has not been classified.
	NoiseEmpty
	// NoiseClassified marks a gap the noise classifier labelled.
	NoiseClassified
)

// Noise is the tag carried by offsets inserted into in-segment gaps.
type Noise struct {
	Kind  NoiseKind
	Label string
}

// Empty returns an unclassified noise tag.
func Empty() Noise { return Noise{Kind: NoiseEmpty} }

// Classified returns a noise tag with the given classifier label.
func Classified(label string) Noise { return Noise{Kind: NoiseClassified, Label: label} }

// String renders the tag in its serialized sentinel form.
func (n Noise) String() string {
	switch n.Kind {
	case NoiseEmpty:
		return EmptyTag
	case NoiseClassified:
		return "<" + n.Label + ">"
	default:
		return ""
	}
}

// ParseNoise recognizes the noise sentinels written to TSV transcripts.
func ParseNoise(unit string) (Noise, bool) {
	if unit == EmptyTag {
		return Empty(), true
	}
	if len(unit) > 2 && strings.HasPrefix(unit, "<") && strings.HasSuffix(unit, ">") {
		return Classified(unit[1 : len(unit)-1]), true
	}
	return Noise{}, false
}

// Offset is one timed unit. Start <= End holds for well-formed input.
type Offset struct {
	Unit  string
	Start float64
	End   float64
	Noise Noise
}

// Text returns the unit as it is written to transcripts, rendering noise
// markers in their sentinel form.
func (o Offset) Text() string {
	if o.Noise.Kind != NoiseNone {
		return o.Noise.String()
	}
	return o.Unit
}

// IsNoise reports whether the offset is a noise marker.
func (o Offset) IsNoise() bool { return o.Noise.Kind != NoiseNone }

// IsSeparator reports whether the unit is a whitespace word separator.
func (o Offset) IsSeparator() bool {
	return !o.IsNoise() && strings.TrimSpace(o.Unit) == ""
}

// Duration returns End - Start in seconds.
func (o Offset) Duration() float64 { return o.End - o.Start }

// Round3 rounds seconds to millisecond precision, half away from zero.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Gap returns the rounded silence between the end of a and the start of b.
func Gap(a, b Offset) float64 {
	return Round3(b.Start - a.End)
}

// Segment is a contiguous, non-empty, time-ordered run of offsets.
type Segment []Offset

// Start returns the first offset's start time.
func (s Segment) Start() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Start
}

// End returns the last offset's end time.
func (s Segment) End() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].End
}

// Duration returns the span covered by the segment.
func (s Segment) Duration() float64 { return s.End() - s.Start() }

// Clone returns a copy that does not share backing storage.
func (s Segment) Clone() Segment {
	if s == nil {
		return nil
	}
	out := make(Segment, len(s))
	copy(out, s)
	return out
}

// Shift re-bases every offset so the first one starts at zero.
func (s Segment) Shift() Segment {
	if len(s) == 0 {
		return Segment{}
	}
	origin := s[0].Start
	out := make(Segment, len(s))
	for i, o := range s {
		o.Start = Round3(o.Start - origin)
		o.End = Round3(o.End - origin)
		out[i] = o
	}
	return out
}

// Units returns the serialized text of every offset.
func (s Segment) Units() []string {
	units := make([]string, len(s))
	for i, o := range s {
		units[i] = o.Text()
	}
	return units
}

// Transcript joins the non-noise units of the segment with spaces.
func (s Segment) Transcript() string {
	parts := make([]string, 0, len(s))
	for _, o := range s {
		if o.IsNoise() || o.IsSeparator() {
			continue
		}
		parts = append(parts, o.Unit)
	}
	return strings.Join(parts, " ")
}

// StripWhitespace trims surrounding whitespace from every unit and drops
// offsets left empty. Noise markers are kept as they are.
func StripWhitespace(offsets []Offset) []Offset {
	out := make([]Offset, 0, len(offsets))
	for _, o := range offsets {
		if !o.IsNoise() {
			o.Unit = strings.TrimSpace(o.Unit)
			if o.Unit == "" {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}
