// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: ui  —  terminal output
//  Status lines, section titles, a spinner for long compiler runs, boxed
//  compiler tracebacks and the config table.
// ─────────────────────────────────────────────────────────────────────────────

package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Stdout and Stderr are where every helper writes. Tests swap them.
var (
	Stdout io.Writer = color.Output
	Stderr io.Writer = color.Error
)

// ── Color palette ─────────────────────────────────────────────────────────────

var (
	ColorTitle   = color.New(color.FgHiWhite, color.Bold)
	ColorKey     = color.New(color.FgHiCyan)
	ColorValue   = color.New(color.FgHiYellow)
	ColorString  = color.New(color.FgHiGreen)
	ColorNumber  = color.New(color.FgHiBlue)
	ColorBool    = color.New(color.FgHiMagenta)
	ColorNull    = color.New(color.FgHiBlack)
	ColorComment = color.New(color.FgHiBlack, color.Italic)

	ColorSuccess = color.New(color.FgHiGreen, color.Bold)
	ColorError   = color.New(color.FgHiRed, color.Bold)
	ColorWarn    = color.New(color.FgHiYellow, color.Bold)
	ColorInfo    = color.New(color.FgHiCyan)
	ColorMuted   = color.New(color.FgHiBlack)

	ColorTBBorder  = color.New(color.FgRed)
	ColorTBTitle   = color.New(color.FgHiRed, color.Bold)
	ColorTBFile    = color.New(color.FgHiCyan)
	ColorTBLine    = color.New(color.FgHiYellow)
	ColorTBFunc    = color.New(color.FgHiGreen)
	ColorTBHigh    = color.New(color.FgHiRed, color.Bold)
	ColorTBErrType = color.New(color.FgHiRed, color.Bold)
	ColorTBErrMsg  = color.New(color.FgHiWhite)
)

const termWidth = 100

func hline(width int, ch string) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat(ch, width)
}

// stripANSI removes escape sequences for length calculation.
func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if r == 'm' {
				inEsc = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ── Status messages ───────────────────────────────────────────────────────────

func Success(msg string) {
	ColorSuccess.Fprint(Stdout, "  ✓ ")
	fmt.Fprintln(Stdout, msg)
}

func Fail(msg string) {
	ColorError.Fprint(Stderr, "  ✗ ")
	fmt.Fprintln(Stderr, msg)
}

func Info(msg string) {
	ColorInfo.Fprint(Stdout, "  • ")
	fmt.Fprintln(Stdout, msg)
}

func Warn(msg string) {
	ColorWarn.Fprint(Stdout, "  ⚠ ")
	fmt.Fprintln(Stdout, msg)
}

func Step(label, msg string) {
	ColorMuted.Fprint(Stdout, "  ")
	ColorTitle.Fprint(Stdout, label)
	ColorMuted.Fprint(Stdout, " → ")
	fmt.Fprintln(Stdout, msg)
}

// SectionTitle prints a section header.
func SectionTitle(title string) {
	pad := termWidth - len([]rune(stripANSI(title))) - 4
	ColorMuted.Fprintln(Stdout, "")
	ColorTitle.Fprint(Stdout, "  "+title+"  ")
	ColorMuted.Fprintln(Stdout, hline(pad, "─"))
}

// TargetBadge prints the TinyGo target as an inline tag before firmware work.
//
//	[ ⚡ arduino ]
func TargetBadge(target string) {
	if strings.TrimSpace(target) == "" {
		return
	}
	color.New(color.FgHiYellow, color.Bold).Fprintf(Stdout, "  [ ⚡ %s ]\n", target)
}

// ── Spinner ───────────────────────────────────────────────────────────────────

type Spinner struct {
	msg    string
	frames []string
	done   chan struct{}
	wg     sync.WaitGroup
	live   bool
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner returns a spinner. It only animates on a terminal; otherwise
// Start prints the message once.
func NewSpinner(msg string) *Spinner {
	return &Spinner{msg: msg, frames: spinnerFrames, done: make(chan struct{}), live: IsTerminal()}
}

func (s *Spinner) Start() {
	if !s.live {
		Info(s.msg)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			frame := ColorInfo.Sprint(s.frames[i%len(s.frames)])
			fmt.Fprintf(Stdout, "\r  %s  %s", frame, s.msg)
			select {
			case <-s.done:
				fmt.Fprintf(Stdout, "\r%-80s\r", "")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Spinner) Stop(ok bool, finalMsg string) {
	close(s.done)
	s.wg.Wait()
	if ok {
		Success(finalMsg)
	} else {
		Fail(finalMsg)
	}
}

// ── Traceback ─────────────────────────────────────────────────────────────────

// Frame is one diagnostic location in a traceback.
type Frame struct {
	File string
	Line int
	Col  int
	Func string
	Code []CodeLine
}

// CodeLine is one line of context shown under a frame.
type CodeLine struct {
	Number    int
	Text      string
	IsPointer bool // marked with ❱
}

// Traceback renders a boxed panel of frames to Stderr followed by
// "errType: errMsg".
//
//	╭─── Traceback (most recent call last) ─────────────────────╮
//	│ main.go:12 in build                                        │
//	│                                                            │
//	│  ❱   12 │ undefined: machine.Serail                        │
//	╰────────────────────────────────────────────────────────────╯
//	CompileError: undefined: machine.Serail
func Traceback(errType, errMsg string, frames []Frame) {
	inner := termWidth - 2

	ColorTBBorder.Fprint(Stderr, "╭"+hline(3, "─"))
	ColorTBTitle.Fprint(Stderr, " Traceback (most recent call last) ")
	ColorTBBorder.Fprintln(Stderr, hline(inner-38, "─")+"╮")

	printBorderLine := func(content string) {
		pad := inner - len([]rune(stripANSI(content))) - 1
		if pad < 0 {
			pad = 0
		}
		ColorTBBorder.Fprint(Stderr, "│")
		fmt.Fprint(Stderr, " "+content+strings.Repeat(" ", pad))
		ColorTBBorder.Fprintln(Stderr, "│")
	}

	for _, frame := range frames {
		loc := ColorTBFile.Sprint(frame.File)
		if frame.Line > 0 {
			loc += ":" + ColorTBLine.Sprint(fmt.Sprintf("%d", frame.Line))
		}
		if frame.Func != "" {
			loc += " in " + ColorTBFunc.Sprint(frame.Func)
		}
		printBorderLine(loc)
		printBorderLine("")

		for _, cl := range frame.Code {
			lineNum := fmt.Sprintf("%4d", cl.Number)
			sep := ColorTBBorder.Sprint(" │ ")
			if cl.IsPointer {
				printBorderLine(ColorTBHigh.Sprint(" ❱ ") + ColorTBHigh.Sprint(lineNum) + sep + ColorTBHigh.Sprint(cl.Text))
			} else {
				printBorderLine("   " + ColorMuted.Sprint(lineNum) + sep + cl.Text)
			}
		}
		printBorderLine("")
	}

	ColorTBBorder.Fprintln(Stderr, "╰"+hline(inner, "─")+"╯")
	ColorTBErrType.Fprint(Stderr, errType)
	fmt.Fprint(Stderr, ": ")
	ColorTBErrMsg.Fprintln(Stderr, errMsg)
}

// ── Config display ────────────────────────────────────────────────────────────

// ConfigEntry is one key/value row in the config display.
type ConfigEntry struct {
	Key     string
	Value   interface{}
	Comment string
}

// PrintConfig renders a styled config table, or "key = value" lines if raw.
func PrintConfig(title string, entries []ConfigEntry, raw bool) {
	if raw {
		for _, e := range entries {
			fmt.Fprintf(Stdout, "%s = %v\n", e.Key, e.Value)
		}
		return
	}

	keyWidth := 0
	for _, e := range entries {
		if len(e.Key) > keyWidth {
			keyWidth = len(e.Key)
		}
	}

	type renderedLine struct {
		display string
		plain   string
	}
	lines := make([]renderedLine, 0, len(entries))
	inner := termWidth - 2
	for _, e := range entries {
		display := ColorKey.Sprint(fmt.Sprintf("%-*s", keyWidth, e.Key)) +
			ColorMuted.Sprint("  =  ") + formatConfigValue(e.Value)
		plain := fmt.Sprintf("%-*s  =  %v", keyWidth, e.Key, e.Value)
		if e.Comment != "" {
			display += ColorComment.Sprint("  # " + e.Comment)
			plain += "  # " + e.Comment
		}
		if n := len(plain) + 2; n > inner {
			inner = n
		}
		lines = append(lines, renderedLine{display: display, plain: plain})
	}

	ColorTBBorder.Fprint(Stdout, "╭"+hline(2, "─"))
	ColorTitle.Fprint(Stdout, " "+title+" ")
	ColorTBBorder.Fprintln(Stdout, hline(inner-len(title)-4, "─")+"╮")
	for _, l := range lines {
		pad := inner - len(l.plain) - 1
		if pad < 0 {
			pad = 0
		}
		ColorTBBorder.Fprint(Stdout, "│")
		fmt.Fprint(Stdout, " "+l.display+strings.Repeat(" ", pad))
		ColorTBBorder.Fprintln(Stdout, "│")
	}
	ColorTBBorder.Fprintln(Stdout, "╰"+hline(inner, "─")+"╯")
}

func formatConfigValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return ColorString.Sprint(`"` + val + `"`)
	case bool:
		return ColorBool.Sprint(fmt.Sprintf("%v", val))
	case int, int64, uint32, float64:
		return ColorNumber.Sprint(fmt.Sprintf("%v", val))
	case []string:
		if len(val) == 0 {
			return ColorNull.Sprint("[]")
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatConfigValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case nil:
		return ColorNull.Sprint("null")
	default:
		return ColorValue.Sprint(fmt.Sprintf("%v", val))
	}
}
