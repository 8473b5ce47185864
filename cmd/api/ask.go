package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go-deepsearch/internal/agents/coordinator/handler"
	"go-deepsearch/pkg/events"
	"go-deepsearch/pkg/models"
)

func askCMD(cfgPath *string) *cobra.Command {
	var (
		questionContext string
		maxIterations   int
	)
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Research a question and print the narration to the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.closeLogged()

			p := newPrinter(os.Stdout)
			_, err = a.coordinator.Run(ctx, handler.Input{
				ID:            uuid.NewString(),
				Message:       strings.Join(args, " "),
				Context:       questionContext,
				MaxIterations: maxIterations,
			}, p)
			return err
		},
	}
	ask.Flags().StringVar(&questionContext, "context", "", "additional context for the planner")
	ask.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration budget, at most agent.max_iterations")
	return ask
}

// printer renders run events for a terminal.
type printer struct {
	out      io.Writer
	renderer *glamour.TermRenderer

	phase  lipgloss.Style
	label  lipgloss.Style
	body   lipgloss.Style
	review lipgloss.Style
	err    lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(80),
	)
	return &printer{
		out:      out,
		renderer: renderer,
		phase:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).PaddingTop(1),
		label:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		body:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		review:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")).PaddingLeft(2),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (p *printer) Emit(ctx context.Context, ev models.Event) error {
	if err := ctx.Err(); err != nil {
		return events.ErrClosed
	}
	_, err := fmt.Fprintln(p.out, p.render(ev))
	return err
}

func (p *printer) render(ev models.Event) string {
	switch ev.Type {
	case models.PhaseEvent:
		return p.phase.Render("== " + ev.Content)
	case models.ReviewEvent:
		return p.label.Render("[review]") + "\n" + p.review.Render(ev.Content)
	case models.ErrorEvent:
		return p.err.Render("Error: " + ev.Content)
	case models.FinalAnswerEvent:
		return p.markdown(ev.Content)
	default:
		return p.label.Render("["+string(ev.Type)+"]") + "\n" + p.body.Render(ev.Content)
	}
}

func (p *printer) markdown(s string) string {
	if p.renderer == nil {
		return s
	}
	out, err := p.renderer.Render(s)
	if err != nil {
		return s
	}
	return out
}
