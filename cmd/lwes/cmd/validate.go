/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ssargent/lwes/pkg/esf"
	"github.com/ssargent/lwes/pkg/journal"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <file.esf>",
	Short: "Check an event specification file",
	Long: `Parse an ESF file and report the events it declares. With --journal,
every event in the journal is also checked against the file.

Examples:
  lwes validate events.esf
  lwes validate events.esf --format yaml
  lwes validate events.esf --journal ./events.log`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		journalPath, _ := cmd.Flags().GetString("journal")
		out := cmd.OutOrStdout()

		dict, err := esf.LoadFile(args[0])
		if err != nil {
			return err
		}

		switch format {
		case "yaml":
			if err := dict.WriteYAML(out); err != nil {
				return err
			}
		case "text":
			printDictionary(out, dict)
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		if journalPath == "" {
			return nil
		}
		return validateJournal(out, dict, journalPath)
	},
}

func printDictionary(out io.Writer, dict *esf.Dictionary) {
	events := dict.Events()
	fmt.Fprintf(out, "%d event(s)\n", len(events))
	for _, name := range events {
		fmt.Fprintf(out, "  %s (%d attributes)\n", name, len(dict.Attributes(name)))
	}
}

// validateJournal checks every journalled event against dict
func validateJournal(out io.Writer, dict *esf.Dictionary, path string) error {
	r, err := journal.NewReader(journal.ReaderConfig{FilePath: path})
	if err != nil {
		return err
	}
	defer r.Close()

	var total, invalid int
	it := r.Iterator()
	for it.Next() {
		total++
		rec := it.Record()
		e, err := rec.Event(nil)
		if err == nil {
			err = e.Validate(dict)
		}
		if err != nil {
			invalid++
			fmt.Fprintf(out, "record %d (%s): %v\n", total, rec.Time().UTC().Format("2006-01-02T15:04:05.000Z"), err)
		}
	}
	if err := it.Err(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%d of %d journalled event(s) valid\n", total-invalid, total)
	if invalid > 0 {
		return fmt.Errorf("%d invalid event(s)", invalid)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("format", "text", "Output format (text or yaml)")
	validateCmd.Flags().String("journal", "", "Journal file to check against the schema")
}
