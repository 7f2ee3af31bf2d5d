package reminders

import (
	"github.com/julianstephens/careminder/internal/cli"
)

// DeleteAllCmd clears every reminder and scheduled notification.
type DeleteAllCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *DeleteAllCmd) Run(ctx *cli.Context) error {
	t := ctx.Lang.T()
	if !c.Yes {
		ok, err := ctx.Confirm(t.DeleteTitle, t.DeleteMessage, t.DeleteConfirm, t.Cancel)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := ctx.Session.DeleteAll(ctx.Context()); err != nil {
		return err
	}
	ctx.Printf("✓ %s\n", t.AllDeleted)
	return nil
}
