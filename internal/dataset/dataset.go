package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"speechline/internal/fileutil"
	"speechline/internal/language"
)

// ErrNoInput is returned when discovery finds nothing to process.
var ErrNoInput = errors.New("no audio files found")

// Item is one recording to process.
type Item struct {
	Audio        string
	ID           string
	LanguageCode string
	GroundTruth  string
}

// Language returns the base language of the item's code ("en" for "en-us").
func (i Item) Language() string {
	return language.Base(i.LanguageCode)
}

func newItem(audioPath, groundTruth, code string) Item {
	if code == "" {
		code = language.FromPath(audioPath)
	}
	base := filepath.Base(audioPath)
	return Item{
		Audio:        audioPath,
		ID:           strings.TrimSuffix(base, filepath.Ext(base)),
		LanguageCode: code,
		GroundTruth:  groundTruth,
	}
}

// Discover lists {inputDir}/*/*.{ext} in sorted order and reads each sibling
// .txt transcript. A missing transcript leaves GroundTruth empty.
func Discover(inputDir, ext string) ([]Item, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "wav"
	}
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, fmt.Errorf("inspect input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", inputDir)
	}

	matches, err := filepath.Glob(filepath.Join(inputDir, "*", "*."+ext))
	if err != nil {
		return nil, fmt.Errorf("glob input dir: %w", err)
	}
	sort.Strings(matches)

	items := make([]Item, 0, len(matches))
	for _, path := range matches {
		transcript, err := ReadGroundTruth(path)
		if err != nil {
			return nil, err
		}
		items = append(items, newItem(path, transcript, ""))
	}
	return items, nil
}

// ReadGroundTruth returns the trimmed contents of the .txt next to audioPath,
// or "" when it does not exist.
func ReadGroundTruth(audioPath string) (string, error) {
	data, err := os.ReadFile(fileutil.ReplaceExt(audioPath, ".txt"))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read ground truth: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Load dispatches on input: a directory is discovered, a .json/.jsonl file is
// read as a manifest.
func Load(input, ext string) ([]Item, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("inspect input: %w", err)
	}
	var items []Item
	if info.IsDir() {
		items, err = Discover(input, ext)
	} else {
		items, err = LoadManifest(input)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, input)
	}
	return items, nil
}

// FilterEmptyGroundTruth drops items whose transcript is blank.
func FilterEmptyGroundTruth(items []Item) []Item {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.GroundTruth) != "" {
			kept = append(kept, item)
		}
	}
	return kept
}
