// Package output formats tracker results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes human output to out and diagnostics to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on stdout/stderr. Colors are disabled when
// NO_COLOR is set or TERM is dumb.
func NewPrinter(useColors bool) *Printer {
	return NewPrinterTo(os.Stdout, os.Stderr, useColors && ColorsAllowed())
}

// NewPrinterTo creates a printer on the given writers.
func NewPrinterTo(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// ColorsAllowed reports whether the environment permits ANSI colors.
func ColorsAllowed() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// Out returns the primary writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Header prints a section title with an underline.
func (p *Printer) Header(title string) {
	if p.useColors {
		color.New(color.Bold).Fprintf(p.out, "%s\n", title)
		fmt.Fprintf(p.out, "%s\n", repeatChar('─', len([]rune(title))))
		return
	}
	fmt.Fprintf(p.out, "%s\n%s\n", title, repeatChar('-', len([]rune(title))))
}

// Field prints an aligned "label: value" line.
func (p *Printer) Field(label, value string) {
	fmt.Fprintf(p.out, "%-16s %s\n", label+":", value)
}

func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}

// Status renders an application status, coloured by outcome.
func (p *Printer) Status(status string) string {
	if !p.useColors {
		return status
	}
	switch status {
	case "OFFER":
		return color.GreenString(status)
	case "INTERVIEW", "REPLIED":
		return color.CyanString(status)
	case "REJECTED":
		return color.RedString(status)
	case "GHOSTED":
		return color.New(color.Faint).Sprint(status)
	default:
		return color.YellowString(status)
	}
}

// JSON writes v indented.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Raw writes pre-encoded JSON indented, or verbatim when it cannot be indented.
func (p *Printer) Raw(data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	}
	return p.JSON(v)
}

// Table starts a table on the printer's output.
func (p *Printer) Table(headers []string) *Table {
	return NewTableWithWriter(p.out, headers)
}

func repeatChar(char rune, count int) string {
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
