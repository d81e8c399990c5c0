package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// printer writes shell responses, coloured when the output is a terminal.
type printer struct {
	out io.Writer

	ok     *color.Color
	fail   *color.Color
	detail *color.Color
	dim    *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:    out,
		ok:     color.New(color.FgGreen),
		fail:   color.New(color.FgRed, color.Bold),
		detail: color.New(color.FgCyan),
		dim:    color.New(color.Faint),
	}
}

func (p *printer) success(format string, args ...any) {
	p.ok.Fprintln(p.out, fmt.Sprintf(format, args...))
}

func (p *printer) failure(msg string) {
	p.fail.Fprintln(p.out, "error: "+msg)
}

func (p *printer) info(format string, args ...any) {
	p.detail.Fprintln(p.out, fmt.Sprintf(format, args...))
}

func (p *printer) prompt() {
	p.dim.Fprint(p.out, shellPrompt)
}
