package logging

import "strings"

const infoAttrLimit = 8

// highlightKeys are rendered first, in this order.
var highlightKeys = []string{
	FieldEventType,
	"error",
	"reason",
	FieldImpact,
	FieldErrorHint,
	"segmenter",
	"segments",
	"chunks",
	"skipped",
	"inserted",
	"noise_tags",
	"files",
	"ok",
	"empty",
	"failed",
	"resumed",
	FieldProgressPercent,
	"duration",
}

// selectFields orders fields with highlighted keys first and applies limit
// (0 means unlimited). Unless verbose, run IDs and path-like keys are only
// counted as hidden.
func selectFields(fields []field, limit int, verbose bool) ([]field, int) {
	if len(fields) == 0 {
		return nil, 0
	}
	ordered := make([]field, 0, len(fields))
	taken := make([]bool, len(fields))
	for _, key := range highlightKeys {
		for i, f := range fields {
			if !taken[i] && f.key == key {
				taken[i] = true
				ordered = append(ordered, f)
				break
			}
		}
	}
	for i, f := range fields {
		if !taken[i] {
			ordered = append(ordered, f)
		}
	}

	shown := make([]field, 0, len(ordered))
	hidden := 0
	for _, f := range ordered {
		if !verbose && verboseOnly(f.key) {
			hidden++
			continue
		}
		if limit > 0 && len(shown) >= limit {
			hidden++
			continue
		}
		shown = append(shown, f)
	}
	return shown, hidden
}

func verboseOnly(key string) bool {
	return key == FieldRunID || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}
