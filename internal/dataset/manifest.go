package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"speechline/internal/fileutil"
)

// ManifestFileName is the manifest written into the output directory.
const ManifestFileName = "audio_segment_manifest.json"

// ErrInvalidManifest reports a manifest that cannot be decoded.
var ErrInvalidManifest = errors.New("invalid manifest")

type manifestRecord struct {
	Audio        string `json:"audio"`
	GroundTruth  string `json:"ground_truth"`
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
}

// LoadManifest reads input items from a JSON array or a JSON lines file.
// Relative audio paths resolve against the manifest's directory. Empty
// objects are dropped.
func LoadManifest(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var records []json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var top []json.RawMessage
		if err := json.Unmarshal(trimmed, &top); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
		}
		records, err = flatten(top)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
		}
	} else {
		records, err = splitLines(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
		}
	}

	base := filepath.Dir(path)
	items := make([]Item, 0, len(records))
	for i, raw := range records {
		var rec manifestRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidManifest, i, err)
		}
		if rec == (manifestRecord{}) {
			continue
		}
		audioPath := strings.TrimSpace(rec.Audio)
		if audioPath == "" {
			return nil, fmt.Errorf("%w: entry %d has no audio path", ErrInvalidManifest, i)
		}
		if !filepath.IsAbs(audioPath) {
			audioPath = filepath.Join(base, audioPath)
		}
		truth := rec.GroundTruth
		if truth == "" {
			truth = rec.Text
		}
		items = append(items, newItem(audioPath, strings.TrimSpace(truth), rec.LanguageCode))
	}
	return items, nil
}

// flatten walks nested arrays and returns the objects in document order.
func flatten(values []json.RawMessage) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, raw := range values {
		raw = bytes.TrimSpace(raw)
		switch {
		case bytes.HasPrefix(raw, []byte("[")):
			var nested []json.RawMessage
			if err := json.Unmarshal(raw, &nested); err != nil {
				return nil, err
			}
			inner, err := flatten(nested)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		case bytes.HasPrefix(raw, []byte("{")):
			out = append(out, raw)
		default:
			return nil, fmt.Errorf("unexpected manifest value %s", raw)
		}
	}
	return out, nil
}

func splitLines(data []byte) ([]json.RawMessage, error) {
	var out []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		if !json.Valid(text) || text[0] != '{' {
			return nil, fmt.Errorf("line %d is not a JSON object", line)
		}
		out = append(out, json.RawMessage(bytes.Clone(text)))
	}
	return out, scanner.Err()
}

// Entry describes one exported chunk in the output manifest.
type Entry struct {
	Audio        string  `json:"audio"`
	Transcript   string  `json:"transcript"`
	Text         string  `json:"text"`
	Duration     float64 `json:"duration"`
	LanguageCode string  `json:"language_code"`
	Source       string  `json:"source"`
}

// WriteManifest replaces path with entries as an indented JSON array. With
// no entries any previous manifest is removed and nothing is written; the
// returned bool reports whether a file was written.
func WriteManifest(path string, entries []Entry) (bool, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove stale manifest: %w", err)
	}
	if len(entries) == 0 {
		return false, nil
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode manifest: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}
	return entries, nil
}
