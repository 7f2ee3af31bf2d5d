package reminders

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/julianstephens/careminder/internal/cli"
	apperrors "github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/validation"
)

// ImportCmd loads a scanned QR code or deep link, replacing every stored
// reminder.
type ImportCmd struct {
	Code  string `arg:"" optional:"" help:"Decoded QR text, deep link (careminder://import?data=...) or raw JSON."`
	Stdin bool   `help:"Read the code from standard input."`
}

func (c *ImportCmd) read(ctx *cli.Context) (string, error) {
	if c.Stdin || c.Code == "-" {
		if ctx.In == nil {
			return "", errors.New("no code given")
		}
		raw, err := io.ReadAll(ctx.In)
		if err != nil {
			return "", fmt.Errorf("failed to read code: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	if c.Code == "" {
		return "", errors.New("no code given: pass CODE or --stdin")
	}
	return c.Code, nil
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	raw, err := c.read(ctx)
	if err != nil {
		return err
	}

	t := ctx.Lang.T()
	outcome, err := ctx.Session.Import(ctx.Context(), raw)
	if errors.Is(err, apperrors.ErrInvalidCode) {
		return fmt.Errorf("%s: %w", t.InvalidCode, err)
	}
	if err != nil {
		return err
	}

	ctx.Printf("✓ %s\n", ctx.Lang.Loaded(outcome.Patient.PatientName))
	ctx.Printf("  %d reminders, %d notifications scheduled\n", outcome.Schedule.Reminders, outcome.Schedule.Triggers)

	result := validation.New(ctx.Location).ValidateReminders(outcome.Patient.Reminders, ctx.Now())
	for _, c := range result.Conflicts {
		ctx.Printf("  ⚠ %s\n", c.Description)
	}
	return nil
}
