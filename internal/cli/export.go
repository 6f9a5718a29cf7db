package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/scripture/internal/annotations"
	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/database"
	"github.com/mrlokans/scripture/internal/exporters"
)

// ExportCommand writes the annotation store to markdown once.
type ExportCommand struct {
	DatabasePath string
	CorpusDir    string
	Language     string
	OutputDir    string
	Verbose      bool
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.CorpusDir, "corpus", config.DefaultCorpusDir, "Directory holding {language}.json corpora")
	fs.StringVar(&cmd.Language, "lang", "en", "Corpus language used for book names and verse text")
	fs.StringVar(&cmd.OutputDir, "output", "", "Output directory for markdown files (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List the files written")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -output <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export bookmarks, highlights and notes as one markdown file per book.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Export with English verse text:\n")
		fmt.Fprintf(os.Stderr, "  %s export -output ~/Notes/Scripture\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Export with the Simplified Chinese corpus:\n")
		fmt.Fprintf(os.Stderr, "  %s export -lang zh-cn -corpus ./bibles -output ./export\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.OutputDir == "" {
		return fmt.Errorf("required flag -output not provided")
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	fmt.Println("Annotation Export")
	fmt.Println("=================")

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	absOutputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}

	fmt.Printf("Database: %s\n", absDBPath)
	fmt.Printf("Corpus:   %s (%s)\n", cmd.CorpusDir, cmd.Language)

	db, err := database.NewDatabase(absDBPath, database.WithSilentLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	registry := corpus.NewRegistry(cmd.CorpusDir, cmd.Language)
	if _, err := registry.Get(cmd.Language); err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	store := annotations.New(db.Settings(), registry)

	counts := store.Counts()
	if counts.Bookmarks+counts.Highlights+counts.Notes == 0 {
		fmt.Println("\nNo annotations to export")
		return nil
	}

	fmt.Printf("\nExporting to markdown: %s\n", absOutputDir)
	exporter := exporters.NewMarkdownExporter(absOutputDir, cmd.Language, store, func() (exporters.TextSource, error) {
		return registry.Get(cmd.Language)
	})
	result, err := exporter.Export()
	if err != nil {
		return fmt.Errorf("failed to export to markdown: %w", err)
	}

	fmt.Println("\n=== Export Summary ===")
	fmt.Printf("Books:      %d\n", result.BooksProcessed)
	fmt.Printf("Bookmarks:  %d\n", result.BookmarksExported)
	fmt.Printf("Highlights: %d\n", result.HighlightsExported)
	fmt.Printf("Notes:      %d\n", result.NotesExported)
	if result.BooksFailed > 0 {
		fmt.Printf("%d books failed to export\n", result.BooksFailed)
	}
	if cmd.Verbose {
		for _, f := range result.Files {
			fmt.Printf("  -> %s\n", f)
		}
	}

	fmt.Println("\nExport complete!")
	return nil
}
