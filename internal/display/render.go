package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Renderer shows a state.
type Renderer interface {
	Render(s State)
}

// TerminalRenderer prints states to a terminal with colors.
type TerminalRenderer struct {
	out     io.Writer
	loading *color.Color
	failed  *color.Color
	message *color.Color
	meta    *color.Color
}

func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{
		out:     out,
		loading: color.New(color.FgYellow),
		failed:  color.New(color.FgRed, color.Bold),
		message: color.New(color.FgGreen, color.Bold),
		meta:    color.New(color.Faint),
	}
}

func (r *TerminalRenderer) Render(s State) {
	switch s.Phase {
	case PhaseLoading:
		r.loading.Fprintln(r.out, "Loading...")
	case PhaseError:
		r.failed.Fprintf(r.out, "Error: %s\n", s.Error)
	case PhaseReady:
		r.message.Fprintln(r.out, s.Message)
		meta := fmt.Sprintf("updated %s", s.UpdatedAt.Format("15:04:05"))
		if s.Location != "" {
			meta = s.Location + " | " + meta
		}
		r.meta.Fprintln(r.out, meta)
	}
}
