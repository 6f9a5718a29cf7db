package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/scripture/internal/annotations"
	"github.com/mrlokans/scripture/internal/audit"
	"github.com/mrlokans/scripture/internal/config"
	"github.com/mrlokans/scripture/internal/database"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/kvstore"
)

// MigrateCommand converts legacy per-verse annotations into range records.
type MigrateCommand struct {
	DatabasePath string
	DryRun       bool
	Verbose      bool
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be migrated without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print the annotation counts after migrating")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert legacy bookmarks, highlights and notes to verse-range records.\n")
		fmt.Fprintf(os.Stderr, "Data already at the current schema version is left untouched.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Preview the migration:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate -db ./scripture.db -dry-run\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Migrate in place:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate -db ./scripture.db\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *MigrateCommand) Run() error {
	fmt.Println("Annotation Migration")
	fmt.Println("====================")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	if _, err := os.Stat(absDBPath); os.IsNotExist(err) {
		return fmt.Errorf("database not found: %s", absDBPath)
	}
	fmt.Printf("Database: %s\n", absDBPath)

	db, err := database.NewDatabase(absDBPath, database.WithSilentLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	var kv kvstore.Store = db.Settings()
	if cmd.DryRun {
		kv, err = snapshot(kv)
		if err != nil {
			return err
		}
	}

	report, err := annotations.Migrate(kv)
	if !cmd.DryRun {
		events := audit.NewService(db.Audit())
		events.LogMigration(0, migrationDescription(report, err), err)
		events.Wait()
	}
	if err != nil {
		return fmt.Errorf("migration aborted, legacy data left in place: %w", err)
	}

	fmt.Printf("\n%s\n", report)

	if cmd.Verbose {
		counts := annotations.New(kv, nil).Counts()
		fmt.Println("\n=== Stored Annotations ===")
		fmt.Printf("Bookmarks:  %d\n", counts.Bookmarks)
		fmt.Printf("Highlights: %d\n", counts.Highlights)
		fmt.Printf("Notes:      %d\n", counts.Notes)
	}

	if cmd.DryRun {
		fmt.Println("\nDry run complete. Use without -dry-run to migrate.")
		return nil
	}
	fmt.Println("\nMigration complete!")
	return nil
}

// snapshot copies the annotation keys into memory so a dry run never writes.
func snapshot(kv kvstore.Store) (*kvstore.Memory, error) {
	data := make(map[string]string)
	for _, key := range []string{
		entities.SettingKeyBookmarks,
		entities.SettingKeyHighlights,
		entities.SettingKeyNotes,
		entities.SettingKeySchemaVersion,
	} {
		v, ok, err := kv.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if ok {
			data[key] = v
		}
	}
	return kvstore.NewMemoryFrom(data), nil
}

func migrationDescription(report annotations.MigrationReport, err error) string {
	if err != nil {
		return "legacy migration aborted"
	}
	return report.String()
}
