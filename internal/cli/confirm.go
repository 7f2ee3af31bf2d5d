package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Confirm asks a yes/no question. On a terminal it shows a huh confirm
// dialog; otherwise it reads a y/N answer from In.
func (c *Context) Confirm(title, description, affirmative, negative string) (bool, error) {
	if f, ok := c.In.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		var confirmed bool
		err := huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative(affirmative).
			Negative(negative).
			Value(&confirmed).
			Run()
		if err != nil {
			return false, fmt.Errorf("confirmation aborted: %w", err)
		}
		return confirmed, nil
	}

	if description != "" {
		c.Println(description)
	}
	c.Printf("%s [y/N]: ", title)
	if c.In == nil {
		return false, nil
	}
	response, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && response == "" {
		return false, nil
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
