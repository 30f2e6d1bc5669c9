package language

import (
	"path/filepath"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// FromPath returns the name of the directory containing path, which by
// convention is the language code of the recording ("en-us", "id", ...).
// Returns an empty string when path has no parent directory.
func FromPath(path string) string {
	dir := filepath.Base(filepath.Dir(filepath.Clean(path)))
	switch dir {
	case ".", string(filepath.Separator), "":
		return ""
	}
	return dir
}

// Parse converts a directory-style code ("en-us", "EN_US", "id") to a
// BCP-47 tag. The boolean is false for unparseable input.
func Parse(code string) (xlang.Tag, bool) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return xlang.Und, false
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return xlang.Und, false
	}
	return tag, true
}

// Base returns the ISO 639 base language of code ("en" for "en-us").
// Returns "und" for unrecognized input.
func Base(code string) string {
	tag, ok := Parse(code)
	if !ok {
		return "und"
	}
	base, _ := tag.Base()
	return base.String()
}

// Canonical returns the canonical BCP-47 form of code ("en-US" for "en_us"),
// or the trimmed input when it does not parse.
func Canonical(code string) string {
	tag, ok := Parse(code)
	if !ok {
		return strings.TrimSpace(code)
	}
	return tag.String()
}

// DisplayName returns an English name for code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, ok := Parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	return name
}
