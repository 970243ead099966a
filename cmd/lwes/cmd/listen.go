/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/lwes/pkg/api"
	"github.com/ssargent/lwes/pkg/esf"
	"github.com/ssargent/lwes/pkg/event"
	"github.com/ssargent/lwes/pkg/journal"
	"github.com/ssargent/lwes/pkg/storage"
	"github.com/ssargent/lwes/pkg/transport"
	"go.uber.org/zap"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Receive and print events",
	Long: `Join the configured address, decode every event that arrives and
print it. Received events can also be written to a journal file and a
pebble archive, and counted on an HTTP stats server.

Examples:
  lwes listen
  lwes listen --address 127.0.0.1 --port 9000 --count 10
  lwes listen --journal ./events.log.gz --gzip --quiet
  lwes listen --archive ./archive --metrics --metrics-port 9191`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyListenFlags(cmd)

		count, _ := cmd.Flags().GetInt("count")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runListener(ctx, cmd.OutOrStdout(), count, quiet)
	},
}

// applyListenFlags copies sink flags into the configuration
func applyListenFlags(cmd *cobra.Command) {
	cfg := container.Config()
	flags := cmd.Flags()
	if flags.Changed("journal") {
		cfg.Journal.Path, _ = flags.GetString("journal")
	}
	if flags.Changed("gzip") {
		cfg.Journal.Gzip, _ = flags.GetBool("gzip")
	}
	if flags.Changed("site-id") {
		cfg.Journal.SiteID, _ = flags.GetUint16("site-id")
	}
	if flags.Changed("archive") {
		cfg.Archive.DataDir, _ = flags.GetString("archive")
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
	if flags.Changed("metrics-port") {
		cfg.Metrics.Port, _ = flags.GetInt("metrics-port")
	}
	if flags.Changed("strict") {
		cfg.Schema.Strict, _ = flags.GetBool("strict")
	}
}

// sinks are the optional destinations for received events
type sinks struct {
	journal *journal.Writer
	archive *storage.Archive
	stats   *api.Stats
	schema  *esf.Dictionary
	strict  bool
	log     *zap.Logger
}

// runListener receives until ctx is done or count events were decoded
func runListener(ctx context.Context, out io.Writer, count int, quiet bool) error {
	log, err := container.Logger()
	if err != nil {
		return err
	}
	listener, err := container.Listener()
	if err != nil {
		return err
	}

	s := &sinks{stats: container.Stats(), log: log, strict: container.Config().Schema.Strict}
	if s.schema, err = container.Schema(); err != nil {
		return err
	}
	if s.journal, err = container.JournalWriter(); err != nil {
		return err
	}
	if s.archive, err = container.Archive(); err != nil {
		return err
	}

	if server := container.StatsServer(); server != nil {
		go func() {
			if err := server.ListenAndServe(ctx, log); err != nil {
				log.Error("stats server failed", zap.Error(err))
			}
		}()
	}

	log.Info("listening",
		zap.String("address", container.Config().Transport.Address),
		zap.Int("port", container.Config().Transport.Port))

	decoded := 0
	for count <= 0 || decoded < count {
		e, d, err := listener.Next(ctx)
		switch {
		case errors.Is(err, transport.ErrTimeout):
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case d == nil:
			return err
		}

		s.stats.RecordDatagram(len(d.Data), d.From)
		s.record(d)
		if err != nil {
			s.stats.RecordDecodeFailure(err)
			log.Warn("dropping event", zap.String("sender", d.From.String()), zap.Error(err))
			continue
		}

		s.stats.RecordEvent(e.Name())
		s.check(e)
		s.archiveEvent(e, d)
		decoded++

		if !quiet {
			fmt.Fprintf(out, "%s\n", e)
		}
	}
	return nil
}

// record journals a datagram whether or not it decoded
func (s *sinks) record(d *transport.Datagram) {
	if s.journal == nil {
		return
	}
	_, err := s.journal.Write(&journal.Record{
		ReceiptTime: d.ReceivedAt.UnixMilli(),
		SenderIP:    d.From.Addr(),
		SenderPort:  d.From.Port(),
		Data:        d.Data,
	})
	s.stats.RecordSinkWrite(api.SinkJournal, err)
	if err != nil {
		s.log.Error("journal write failed", zap.Error(err))
	}
}

// check logs schema violations the listener did not already reject
func (s *sinks) check(e *event.Event) {
	if s.schema == nil || s.strict {
		return
	}
	if err := e.Validate(s.schema); err != nil {
		s.log.Warn("event does not match schema", zap.String("event", e.Name()), zap.Error(err))
	}
}

// archiveEvent stores the event with its receipt headers
func (s *sinks) archiveEvent(e *event.Event, d *transport.Datagram) {
	if s.archive == nil {
		return
	}
	data, err := e.MarshalBinary()
	if err == nil {
		_, err = s.archive.Put(data, d.ReceivedAt)
	}
	s.stats.RecordSinkWrite(api.SinkArchive, err)
	if err != nil {
		s.log.Error("archive write failed", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().IntP("count", "n", 0, "Stop after this many events (0 = run until interrupted)")
	listenCmd.Flags().BoolP("quiet", "q", false, "Do not print events")
	listenCmd.Flags().String("journal", "", "Append received events to this journal file")
	listenCmd.Flags().Bool("gzip", false, "Compress the journal")
	listenCmd.Flags().Uint16("site-id", 0, "Site id stamped on journal records")
	listenCmd.Flags().String("archive", "", "Store decoded events in a pebble archive in this directory")
	listenCmd.Flags().Bool("metrics", false, "Serve /health, /stats and /metrics")
	listenCmd.Flags().Int("metrics-port", 9191, "Stats server port")
	listenCmd.Flags().Bool("strict", false, "Reject events that do not match the schema")
}
