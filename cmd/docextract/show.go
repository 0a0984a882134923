package main

import (
	"github.com/spf13/cobra"

	"github.com/medpal/docextract/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show [DOCUMENT_ID]",
	Short: "Print stored records from the SQLite file",
	Long:  "Print one record by id, or the most recent records when no id is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var showLimit int

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 10, "Number of recent records to list")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	records, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer records.Close()

	if len(args) == 1 {
		rec, err := records.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	}

	recs, err := records.List(cmd.Context(), showLimit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), recs)
}
