package reminders

import (
	"fmt"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/payload"
)

type ExportCmd struct {
	Scheme string `help:"Deep link prefix to emit." default:"careminder://import"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	data, err := ctx.Store.LoadAll()
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no reminders to export")
	}
	link, err := payload.Encode(*data, c.Scheme)
	if err != nil {
		return fmt.Errorf("failed to encode reminders: %w", err)
	}
	ctx.Println(link)
	return nil
}
