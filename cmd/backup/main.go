package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookmatch/internal/catalog"
	"bookmatch/internal/config"
	"bookmatch/internal/database"
	"bookmatch/internal/logging"
	"bookmatch/internal/service"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands
type cli struct {
	configPath string
	in         io.Reader
	out        io.Writer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}

	root := &cobra.Command{
		Use:           "backup",
		Short:         "Bookmatch database backup tool",
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `Export and import the bookmatch database as JSON.

The database is chosen the same way as the server: DB_TYPE (sqlite, postgres
or mysql), DB_PATH for SQLite and DATABASE_URL for PostgreSQL or MySQL, or a
YAML file passed with --config.`,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_FILE"), "YAML config file")

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export database to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.export(output)
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	var input string
	var clearData, yes bool
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import database from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.importBackup(input, clearData, yes)
		},
	}
	importCmd.Flags().StringVarP(&input, "input", "i", "", "Input file path (required)")
	importCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before import (WARNING: destructive)")
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the --clear confirmation prompt")
	_ = importCmd.MarkFlagRequired("input")

	catalogCmd := &cobra.Command{
		Use:   "catalog <file>",
		Short: "Validate a book catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Catalog OK: %d books\n", cat.Len())
			return nil
		},
	}

	root.AddCommand(exportCmd, importCmd, catalogCmd)
	return root
}

// open loads configuration, connects and migrates
func (c *cli) open() (*database.DB, error) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (c *cli) export(outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	sum, err := service.NewBackupService(db).ExportFile(outputPath)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Exported %d children, %d reading records, %d games and %d saved sessions to %s (%.2f KB)\n",
		sum.Children, sum.ReadingRecords, sum.Games, sum.SavedSessions, outputPath, float64(info.Size())/1024)
	return nil
}

func (c *cli) importBackup(inputPath string, clearData, yes bool) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if clearData {
		if !yes && !c.confirm("WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
			fmt.Fprintln(c.out, "Import cancelled")
			return nil
		}
		if err := clearDatabase(db); err != nil {
			return err
		}
	}

	sum, err := service.NewBackupService(db).ImportFile(inputPath)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.out, "Imported %d children, %d reading records, %d games and %d saved sessions\n",
		sum.Children, sum.ReadingRecords, sum.Games, sum.SavedSessions)
	return nil
}

func (c *cli) confirm(prompt string) bool {
	fmt.Fprint(c.out, prompt)
	line, _ := bufio.NewReader(c.in).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

// clearDatabase empties every table, children last
func clearDatabase(db *database.DB) error {
	tables := []string{
		"saved_sessions",
		"game_records",
		"reading_records",
		"children",
	}

	return db.WithTx(func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			logging.Info().Str("table", table).Msg("Cleared table")
		}
		return nil
	})
}
