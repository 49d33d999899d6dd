package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"booksum/internal/session"
	"booksum/internal/tui"
)

// TUIAction runs the interactive book browser.
func TUIAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppContext(ctx, cmd, appOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer app.Close()

	books, err := app.Catalog.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	sess := session.New(books, app.Config.Summary.Language)
	if app.Config.Summary.TemplatePath != "" {
		if sess.Template, err = app.Template(sess.Language); err != nil {
			return err
		}
	}
	app.Logger.Info("starting tui", "books", len(books), "config", app.ConfigPath)

	m := tui.New(ctx, app.Service, sess, app.Config.Summary.OutputDir)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
