package reminders

import (
	"time"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/constants"
)

type ListCmd struct {
	Watch bool `short:"w" help:"Redraw every 30 seconds so past reminders are crossed out as time passes."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	data, err := ctx.Store.LoadAll()
	if err != nil {
		return err
	}
	cli.RenderReminders(ctx.Out, data, ctx.Lang, ctx.Now())
	if !c.Watch {
		return nil
	}

	runCtx := ctx.Context()
	ticker := time.NewTicker(constants.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			return nil
		case <-ticker.C:
			if data, err = ctx.Store.LoadAll(); err != nil {
				return err
			}
			// clear screen and home the cursor
			ctx.Printf("\033[H\033[2J")
			cli.RenderReminders(ctx.Out, data, ctx.Lang, ctx.Now())
		}
	}
}
