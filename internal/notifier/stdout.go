package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/careminder/internal/constants"
)

var (
	stdoutTimeStyle  = lipgloss.NewStyle().Faint(true)
	stdoutTitleStyle = lipgloss.NewStyle().Bold(true)
)

// StdoutSender prints notifications instead of delivering them. It backs
// the daemon's dry-run mode.
type StdoutSender struct {
	Out io.Writer
	Now func() time.Time
}

func (s *StdoutSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	_, err := fmt.Fprintf(out, "%s  %s  %s\n",
		stdoutTimeStyle.Render(now().Format(constants.DisplayFormat)),
		stdoutTitleStyle.Render(msg.Title),
		msg.Body,
	)
	return err
}
