package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/geo-martino/musify/internal/shared"
	"github.com/geo-martino/musify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for library matching.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	collections, err := loadLibrary(cmd.String("file"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/musify-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.ensureEngine(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.engine, collections)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Interactively browse and match a library file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to library JSON file",
				Required: true,
			},
		},
		Action: r.TUI,
	}
}
