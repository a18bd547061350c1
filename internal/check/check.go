// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: check  —  validate a project before building
//
//  Confirms every [[tool]] and [[env]] package exists and holds Go files,
//  and that the compilers needed to build them are on PATH.
// ─────────────────────────────────────────────────────────────────────────────

package check

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/toolchain"
	"github.com/embeddemo/cli/internal/ui"
)

// Options controls the check command.
type Options struct {
	Compilers []string // host tool compiler candidates
	TinyGo    string
}

// Report holds the results of a check run.
type Report struct {
	Targets  int
	Warnings []Issue
	Errors   []Issue
}

// Issue is a single warning or error found during check.
type Issue struct {
	Subject string // "tool sample_tool", "env uno", "compiler"
	Message string
	IsError bool
}

func (r *Report) warn(subject, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Issue{Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) fail(subject, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Issue{Subject: subject, Message: fmt.Sprintf(format, args...), IsError: true})
}

// OK reports whether no errors were found.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Run checks the project rooted at projectDir.
func Run(projectDir string, m *manifest.Manifest, opts Options) *Report {
	report := &Report{Targets: len(m.Tools) + len(m.Envs)}

	if len(m.Tools) == 0 && len(m.Envs) == 0 {
		report.warn("manifest", "no [[tool]] or [[env]] entries in %s", manifest.FileName)
	}

	for _, t := range m.Tools {
		checkPackage(report, projectDir, "tool "+t.Name, t.Package)
	}
	if len(m.Tools) > 0 {
		if _, err := toolchain.FindCompiler(opts.Compilers); err != nil {
			report.fail("compiler", "%v", err)
		}
	}

	for _, e := range m.Envs {
		subject := "env " + e.Name
		checkPackage(report, projectDir, subject, e.Package)
		if e.Baud == 0 {
			report.warn(subject, "no baud set; the configured default_baud is used")
		}
	}
	if len(m.Envs) > 0 {
		if len(m.Project.DefaultEnvs) == 0 {
			report.warn("manifest", "no default_envs; firmware commands will need --env")
		}
		tinygo := opts.TinyGo
		if tinygo == "" {
			tinygo = "tinygo"
		}
		if _, err := toolchain.FindCompiler([]string{tinygo}); err != nil {
			report.fail("compiler", "%v", err)
		}
	}
	return report
}

func checkPackage(report *Report, projectDir, subject, pkg string) {
	dir := pkg
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectDir, pkg)
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		report.fail(subject, "package %s not found", pkg)
		return
	}
	goFiles, _ := filepath.Glob(filepath.Join(dir, "*.go"))
	if len(goFiles) == 0 {
		report.fail(subject, "no .go files in %s", pkg)
	}
}

// PrintReport renders the check report.
func PrintReport(report *Report) {
	fmt.Fprintln(ui.Stdout)

	if len(report.Errors) == 0 && len(report.Warnings) == 0 {
		ui.Success(fmt.Sprintf("All %d target(s) OK — no errors or warnings", report.Targets))
		return
	}

	if len(report.Warnings) > 0 {
		ui.SectionTitle(fmt.Sprintf("Warnings (%d)", len(report.Warnings)))
		for _, w := range report.Warnings {
			ui.Warn(fmt.Sprintf("%s  %s", w.Subject, w.Message))
		}
	}

	if len(report.Errors) > 0 {
		ui.SectionTitle(fmt.Sprintf("Errors (%d)", len(report.Errors)))
		for _, e := range report.Errors {
			ui.Fail(fmt.Sprintf("%s  %s", e.Subject, e.Message))
		}
	}

	fmt.Fprintln(ui.Stdout)
	summary := fmt.Sprintf("%d target(s) checked — %d error(s), %d warning(s)",
		report.Targets, len(report.Errors), len(report.Warnings))
	if len(report.Errors) > 0 {
		ui.Fail(summary)
	} else {
		ui.Warn(summary)
	}
}
