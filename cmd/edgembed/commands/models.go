package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/reeflabs/edgembed/internal/model"
)

// Models returns the `models` subcommand listing supported model families.
func Models() *cli.Command {
	return &cli.Command{
		Name:   "models",
		Usage:  "List supported model families",
		Action: modelsAction,
	}
}

func modelsAction(_ context.Context, _ *cli.Command) error {
	for _, m := range model.List() {
		marker := " "
		if m.Default {
			marker = "*"
		}
		fmt.Printf("%s %-16s %-22s %dd  %s\n", marker, m.Version, m.Name, m.Dimensions, m.Description)
	}
	return nil
}
