package offset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"speechline/internal/fileutil"
)

// UnitKey names the JSON field that carries an offset's unit.
type UnitKey string

const (
	// KeyText is used by character/word-level recognizers.
	KeyText UnitKey = "text"
	// KeyPhoneme is used by phoneme recognizers.
	KeyPhoneme UnitKey = "phoneme"
)

// ErrInvalidOffset reports a JSON entry without a unit or timestamps.
var ErrInvalidOffset = errors.New("invalid offset")

type jsonOffset struct {
	Text    *string  `json:"text,omitempty"`
	Phoneme *string  `json:"phoneme,omitempty"`
	Start   *float64 `json:"start_time"`
	End     *float64 `json:"end_time"`
}

// SiblingJSONPath returns the offsets file path stored next to an audio file.
func SiblingJSONPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".json"
}

// DecodeJSON parses a JSON array of offsets. The unit key is detected from the
// first entry; every entry must use the same key. Recognizer tokens such as
// "<unk>" stay plain units; only EmptyTag becomes a noise marker.
func DecodeJSON(data []byte) ([]Offset, UnitKey, error) {
	var raw []jsonOffset
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, "", fmt.Errorf("%w: decode offsets: %v", ErrInvalidOffset, err)
	}
	key := KeyText
	offsets := make([]Offset, 0, len(raw))
	for i, entry := range raw {
		var unit *string
		var entryKey UnitKey
		switch {
		case entry.Text != nil:
			unit, entryKey = entry.Text, KeyText
		case entry.Phoneme != nil:
			unit, entryKey = entry.Phoneme, KeyPhoneme
		default:
			return nil, "", fmt.Errorf("%w: entry %d has no text or phoneme", ErrInvalidOffset, i)
		}
		if i == 0 {
			key = entryKey
		} else if entryKey != key {
			return nil, "", fmt.Errorf("%w: entry %d uses %q, expected %q", ErrInvalidOffset, i, entryKey, key)
		}
		if entry.Start == nil || entry.End == nil {
			return nil, "", fmt.Errorf("%w: entry %d missing start_time or end_time", ErrInvalidOffset, i)
		}
		o := Offset{Unit: *unit, Start: *entry.Start, End: *entry.End}
		if o.Unit == EmptyTag {
			o.Noise, o.Unit = Empty(), ""
		}
		offsets = append(offsets, o)
	}
	return offsets, key, nil
}

// ReadJSON loads offsets from a JSON file.
func ReadJSON(path string) ([]Offset, UnitKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	offsets, key, err := DecodeJSON(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return offsets, key, nil
}

// EncodeJSON renders offsets as an indented JSON array using key for units.
func EncodeJSON(offsets []Offset, key UnitKey) ([]byte, error) {
	if key == "" {
		key = KeyText
	}
	raw := make([]map[string]any, len(offsets))
	for i, o := range offsets {
		raw[i] = map[string]any{
			string(key):  o.Text(),
			"start_time": o.Start,
			"end_time":   o.End,
		}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode offsets: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON atomically writes offsets to path.
func WriteJSON(path string, offsets []Offset, key UnitKey) error {
	data, err := EncodeJSON(offsets, key)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
