package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/embeddemo/cli/internal/flash"
	"github.com/embeddemo/cli/internal/toolchain"
	"github.com/embeddemo/cli/internal/ui"
)

// renderError draws a traceback for compiler and flasher failures and
// returns the short error the root command reports. Other errors pass
// through untouched.
func renderError(err error) error {
	var cerr *toolchain.CompileError
	if errors.As(err, &cerr) {
		renderCompileError(cerr)
		return fmt.Errorf("compilation failed")
	}
	var ferr *flash.Error
	if errors.As(err, &ferr) {
		msg := ferr.Summary()
		ui.Traceback("FlashError", msg, []ui.Frame{{
			File: ferr.Port,
			Func: "upload",
			Code: []ui.CodeLine{{Text: msg, IsPointer: true}},
		}})
		return fmt.Errorf("upload failed")
	}
	return err
}

func renderCompileError(cerr *toolchain.CompileError) {
	diags := cerr.Diagnostics()
	frames := make([]ui.Frame, 0, len(diags))
	for _, d := range diags {
		frames = append(frames, ui.Frame{
			File: d.File,
			Line: d.Line,
			Col:  d.Col,
			Func: "compile",
			Code: []ui.CodeLine{{Number: d.Line, Text: d.Message, IsPointer: true}},
		})
	}

	errMsg := cerr.Error()
	if len(diags) > 0 {
		errMsg = diags[0].Message
	} else {
		out := strings.TrimSpace(cerr.Stderr + "\n" + cerr.Stdout)
		if out == "" {
			out = cerr.Error()
		}
		lines := strings.Split(out, "\n")
		code := make([]ui.CodeLine, len(lines))
		for i, l := range lines {
			code[i] = ui.CodeLine{Number: i + 1, Text: l, IsPointer: i == len(lines)-1}
		}
		frames = append(frames, ui.Frame{
			File: strings.Join(cerr.Command, " "),
			Func: "compile",
			Code: code,
		})
	}
	ui.Traceback("CompileError", errMsg, frames)
}
