package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"speechline/internal/ledger"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = [...]struct {
	tag   string
	color text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

func (k statusKind) tag() string { return statusStyles[k].tag }

// paint colours s when colorize is set.
func (k statusKind) paint(s string, colorize bool) string {
	if !colorize {
		return s
	}
	return statusStyles[k].color.Sprint(s)
}

// renderStatusLine formats "  Label:   [KIND] message" with labels padded to
// one column.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag := "[" + kind.tag() + "]"
	if message != "" {
		tag += " " + message
	}
	return kind.paint(fmt.Sprintf("  %-20s %s", label+":", tag), colorize)
}

func fileStatusKind(status ledger.Status) statusKind {
	switch status {
	case ledger.StatusOK:
		return statusOK
	case ledger.StatusEmpty:
		return statusWarn
	case ledger.StatusFailed:
		return statusError
	}
	return statusInfo
}

func sectionHeader(title string, colorize bool) string {
	title = "== " + strings.TrimSpace(title) + " =="
	header := title + "\n" + strings.Repeat("-", len(title))
	return statusInfo.paint(header, colorize)
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
