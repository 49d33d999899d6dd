package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"booksum/internal/catalog"
	"booksum/internal/domain"
	"booksum/internal/prompt"
	"booksum/internal/retrieval"
)

// BooksAction lists the catalog, optionally filtered by title and author.
func BooksAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppContext(ctx, cmd, appOptions{offline: true})
	if err != nil {
		return err
	}
	defer app.Close()

	books, err := app.Catalog.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	matches := catalog.Search(books, cmd.String("title"), cmd.String("author"))
	printBooks(cmd.Root().Writer, matches)
	return nil
}

func printBooks(w io.Writer, books []domain.BookInfo) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No matching books.")
		return
	}
	fmt.Fprintf(w, "Found %d matching book(s):\n", len(books))
	for i, b := range books {
		fmt.Fprintf(w, "%3d. %s\n", i+1, b.Label())
	}
}

// QueriesAction prints the retrieval queries for a book without calling any
// provider.
func QueriesAction(ctx context.Context, cmd *cli.Command) error {
	meta := domain.BookInfo{Title: cmd.String("title"), Author: cmd.String("author")}.Metadata()
	queries := retrieval.GenerateQueries(meta)
	if len(queries) == 0 {
		return fmt.Errorf("a non-empty --title is required")
	}
	for _, q := range queries {
		fmt.Fprintln(cmd.Root().Writer, q)
	}
	return nil
}

// TemplateAction prints the default prompt template for a language.
func TemplateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("languages") {
		for _, l := range prompt.Languages() {
			fmt.Fprintln(cmd.Root().Writer, l)
		}
		return nil
	}
	tmpl, err := prompt.DefaultTemplate(cmd.String("lang"))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.Root().Writer, tmpl)
	return nil
}
