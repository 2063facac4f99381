package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelError
)

var levelStyles = map[level]struct {
	tag   string
	color string
}{
	levelInfo:  {"INFO", "\x1b[34m"},
	levelOK:    {"OK", "\x1b[32m"},
	levelWarn:  {"WARN", "\x1b[33m"},
	levelError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset  = "\x1b[0m"
	labelWidth = 12
)

// statusReport accumulates the lines printed by "shuffler status".
type statusReport struct {
	color bool
	lines []string
}

func newStatusReport(w io.Writer) *statusReport {
	return &statusReport{color: isTerminal(w)}
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	head := fmt.Sprintf("== %s ==", title)
	rule := strings.Repeat("-", len(head))
	r.lines = append(r.lines, r.paint("\x1b[34m", head), r.paint("\x1b[34m", rule))
}

func (r *statusReport) add(label string, lv level, message string) {
	style := levelStyles[lv]
	text := "[" + style.tag + "]"
	if message != "" {
		text += " " + message
	}
	r.lines = append(r.lines, r.paint(style.color, fmt.Sprintf("  %-*s %s", labelWidth, label+":", text)))
}

func (r *statusReport) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + ansiReset
}

func (r *statusReport) writeTo(w io.Writer) {
	for _, line := range r.lines {
		fmt.Fprintln(w, line)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
