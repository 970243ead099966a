/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ssargent/lwes/pkg/journal"
)

// journalCmd represents the journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect journal files",
}

// journalCatCmd represents the journal cat command
var journalCatCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print the events in a journal",
	Long: `Print every event in a journal file, plain or gzip compressed, with
its receipt headers restored.

Examples:
  lwes journal cat ./events.log
  lwes journal cat ./events.log.gz --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return catJournal(cmd.OutOrStdout(), args[0], limit)
	},
}

func catJournal(out io.Writer, path string, limit int) error {
	r, err := journal.NewReader(journal.ReaderConfig{FilePath: path})
	if err != nil {
		return err
	}
	defer r.Close()

	it := r.Iterator()
	n := 0
	for (limit <= 0 || n < limit) && it.Next() {
		n++
		rec := it.Record()
		e, err := rec.Event(nil)
		if err != nil {
			fmt.Fprintf(out, "# record %d from %s: %v\n", n, rec.SenderIP, err)
			continue
		}
		fmt.Fprintf(out, "%s\n", e)
	}
	return it.Err()
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalCatCmd)
	journalCatCmd.Flags().Int("limit", 0, "Stop after this many records (0 = all)")
}
