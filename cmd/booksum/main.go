package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"booksum/cmd/booksum/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "booksum",
		Usage: "Generate long-form book summaries from a vector search index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to YAML config file (default ./booksum.yaml or ~/.config/booksum/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Environment file path",
				Value: ".env",
			},
		},
		Action: commands.TUIAction,
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Browse the catalog and generate summaries interactively",
				Action: commands.TUIAction,
			},
			{
				Name:  "books",
				Usage: "List catalog books",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Filter by title fragment"},
					&cli.StringFlag{Name: "author", Usage: "Filter by author fragment"},
				},
				Action: commands.BooksAction,
			},
			{
				Name:  "queries",
				Usage: "Print the retrieval queries for a book",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Book title", Required: true},
					&cli.StringFlag{Name: "author", Usage: "Book author"},
				},
				Action: commands.QueriesAction,
			},
			{
				Name:  "summarize",
				Usage: "Generate one summary and write it as markdown",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Book title (or fragment matching one catalog entry)", Required: true},
					&cli.StringFlag{Name: "author", Usage: "Book author"},
					&cli.StringFlag{Name: "lang", Usage: "Summary language (default from config)"},
					&cli.StringFlag{Name: "out", Usage: "Output directory, or - for stdout"},
					&cli.BoolFlag{Name: "quiet", Usage: "Do not print query progress"},
				},
				Action: commands.SummarizeAction,
			},
			{
				Name:  "template",
				Usage: "Print the default prompt template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "lang", Usage: "Template language", Value: "English"},
					&cli.BoolFlag{Name: "languages", Usage: "List supported languages"},
				},
				Action: commands.TemplateAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
