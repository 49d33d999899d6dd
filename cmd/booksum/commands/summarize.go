package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"booksum/internal/domain"
	"booksum/internal/session"
)

// SummarizeAction generates one summary and writes it as markdown.
func SummarizeAction(ctx context.Context, cmd *cli.Command) error {
	progress := func(i, total int, q string) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, total, q)
	}
	if cmd.Bool("quiet") {
		progress = nil
	}
	app, err := newAppContext(ctx, cmd, appOptions{progress: progress})
	if err != nil {
		return err
	}
	defer app.Close()

	books, err := app.Catalog.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	book, err := findBook(books, cmd.String("title"), cmd.String("author"))
	if err != nil {
		return err
	}

	lang := cmd.String("lang")
	if lang == "" {
		lang = app.Config.Summary.Language
	}
	sess := session.New([]domain.BookInfo{book}, lang)
	if _, err := sess.Select(0); err != nil {
		return err
	}
	if app.Config.Summary.TemplatePath != "" {
		if sess.Template, err = app.Template(sess.Language); err != nil {
			return err
		}
	}

	req, err := sess.Request()
	if err != nil {
		return err
	}
	slog.Info("summarising", "title", req.Book.Title, "author", req.Book.Author, "language", req.Language)
	res := app.Service.Summarize(ctx, req)
	sess.Record(res)

	if res.Failed || res.Empty {
		fmt.Fprintln(cmd.Root().ErrWriter, res.Text)
		return cli.Exit("summary not generated", 1)
	}

	out := cmd.String("out")
	if out == "" {
		out = app.Config.Summary.OutputDir
	}
	if out == "-" {
		md, err := sess.Markdown()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.Root().Writer, md)
		return nil
	}
	path, err := sess.SaveMarkdown(out)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	fmt.Fprintf(cmd.Root().Writer, "Summary written to %s (%s)\n", path, res.Duration.Round(1e6))
	return nil
}
