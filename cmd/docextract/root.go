package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/medpal/docextract/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract text, type and medical keywords from uploaded documents",
	Long: `docextract runs the document extraction pipeline outside Cloud Functions.

Every option can also be set through the environment (WORKERS, ENTITY_LIMIT,
SQLITE_PATH, PROJECT_ID, ...).

Examples:
  docextract run scans/*.pdf                 # process local files into SQLite
  docextract show 6f1c...                    # print a stored record
  docextract backfill --prefix uploads/2026/ # process matching GCS objects into Firestore`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var (
	verbose bool
	v       = config.New()
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every pipeline stage")
	rootCmd.PersistentFlags().Int("workers", 4, "Documents processed concurrently")
	rootCmd.PersistentFlags().String("db", "docextract.db", "SQLite file for local records")
	bindFlag(v, "workers", "workers")
	bindFlag(v, "sqlite_path", "db")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(backfillCmd)
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithViper(v)
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
