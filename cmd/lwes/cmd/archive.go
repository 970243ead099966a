/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"github.com/ssargent/lwes/pkg/event"
	"github.com/ssargent/lwes/pkg/storage"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect event archives",
}

// archiveScanCmd represents the archive scan command
var archiveScanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Print archived events received in a time range",
	Long: `Print the events an archive holds for a time range, oldest first.
Times are RFC 3339; --since is relative to now and overrides --from.

Examples:
  lwes archive scan ./archive --since 1h
  lwes archive scan ./archive --from 2025-01-01T00:00:00Z --to 2025-01-02T00:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		since, _ := cmd.Flags().GetDuration("since")
		idsOnly, _ := cmd.Flags().GetBool("ids")

		to := time.Now().Add(time.Second)
		if toStr != "" {
			var err error
			if to, err = time.Parse(time.RFC3339, toStr); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
		}
		from := to.Add(-24 * time.Hour)
		switch {
		case since > 0:
			from = time.Now().Add(-since)
		case fromStr != "":
			var err error
			if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
		}

		a, err := storage.NewArchive(args[0], storage.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		return scanArchive(cmd.OutOrStdout(), a, from, to, idsOnly)
	},
}

func scanArchive(out io.Writer, a *storage.Archive, from, to time.Time, idsOnly bool) error {
	return a.Scan(from, to, func(id ksuid.KSUID, data []byte) error {
		if idsOnly {
			fmt.Fprintln(out, id)
			return nil
		}
		e, err := event.Decode(data, nil)
		if err != nil {
			fmt.Fprintf(out, "# %s: %v\n", id, err)
			return nil
		}
		fmt.Fprintf(out, "# %s\n%s\n", id, e)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveScanCmd)
	archiveScanCmd.Flags().String("from", "", "Start of the range (RFC 3339, default 24h before --to)")
	archiveScanCmd.Flags().String("to", "", "End of the range, exclusive (RFC 3339, default now)")
	archiveScanCmd.Flags().Duration("since", 0, "Scan events received within this long before now")
	archiveScanCmd.Flags().Bool("ids", false, "Print only the archive ids")
}
