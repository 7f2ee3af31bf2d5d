package reminders

import (
	"fmt"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/models"
)

// PendingCmd lists the registered notification triggers.
type PendingCmd struct{}

func describe(n models.ScheduledNotification) string {
	switch n.Kind {
	case models.TriggerDaily:
		return fmt.Sprintf("daily %02d:%02d", n.Hour, n.Minute)
	case models.TriggerWeekly:
		return fmt.Sprintf("weekly %s %02d:%02d", n.Weekday, n.Hour, n.Minute)
	default:
		return "once"
	}
}

func (c *PendingCmd) Run(ctx *cli.Context) error {
	pending, err := ctx.Queue.Pending(ctx.Context())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		ctx.Println("No notifications scheduled.")
		return nil
	}

	ctx.Printf("%d notification(s) scheduled:\n\n", len(pending))
	for _, n := range pending {
		line := fmt.Sprintf("  %s  %-16s  %s", n.FireAt.In(ctx.Location).Format(constants.DisplayFormat), describe(n), n.Body)
		if n.Until != nil {
			line += "  (until " + n.Until.In(ctx.Location).Format(constants.DateFormat) + ")"
		}
		ctx.Println(line)
	}
	return nil
}
