package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akarpovich/deckport/internal/config"
	"github.com/akarpovich/deckport/internal/database"
	"github.com/akarpovich/deckport/internal/importer"
	"github.com/akarpovich/deckport/internal/vault"
)

// ApkgImportCommand imports one archive from the command line.
type ApkgImportCommand struct {
	ArchivePath  string
	DatabasePath string
	VaultDir     string
	TargetDeck   string
	Verbose      bool
}

func NewApkgImportCommand() *ApkgImportCommand {
	return &ApkgImportCommand{}
}

func (cmd *ApkgImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("apkg-import", flag.ExitOnError)

	fs.StringVar(&cmd.ArchivePath, "file", "", "Path to the .apkg archive to import (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.VaultDir, "vault", "", "Vault directory for markdown notes and attachments (optional)")
	fs.StringVar(&cmd.TargetDeck, "deck", "", "Import everything into this deck instead of mirroring the source hierarchy")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print per-stage progress")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s apkg-import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import an Anki export archive into the local deck database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s apkg-import -file spanish.apkg\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s apkg-import -file spanish.apkg -deck Inbox -vault ~/notes\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ArchivePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ApkgImportCommand) Run() error {
	data, err := os.ReadFile(cmd.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var v vault.Vault
	if cmd.VaultDir != "" {
		dirVault, err := vault.NewDirVault(cmd.VaultDir)
		if err != nil {
			return fmt.Errorf("failed to open vault: %w", err)
		}
		v = dirVault
	}

	buildCfg, opts := importer.FromConfig(config.NewConfig().Import)
	opts.FileName = filepath.Base(cmd.ArchivePath)
	if cmd.TargetDeck != "" {
		opts.TargetDeckName = cmd.TargetDeck
	}

	var progress importer.ProgressFunc
	if cmd.Verbose {
		progress = func(p importer.Progress) {
			if p.Message != "" {
				fmt.Printf("[%3d%%] %s: %s\n", p.Percent, p.Stage, p.Message)
			}
		}
	}

	orchestrator := importer.NewOrchestrator(database.NewStore(db), v, buildCfg, progress)
	result, err := orchestrator.Run(context.Background(), data, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\nImported %d of %d cards", result.Stats.Imported, result.Stats.Total)
	if result.Stats.Failed > 0 {
		fmt.Printf(" (%d failed)", result.Stats.Failed)
	}
	fmt.Println()

	for _, failure := range result.Failures {
		fmt.Printf("  card %d: %s\n", failure.SourceCardID, failure.Reason)
	}
	if cmd.Verbose {
		for _, warning := range result.Warnings {
			fmt.Printf("  warning: %s\n", warning)
		}
	}
	return nil
}
