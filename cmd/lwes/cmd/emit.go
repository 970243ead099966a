/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/lwes/pkg/event"
	"go.uber.org/zap"
)

// emitCmd represents the emit command
var emitCmd = &cobra.Command{
	Use:   "emit <event-name>",
	Short: "Send an event",
	Long: `Build an event from --attr flags and send it to the configured
address. Attributes are written name:type=value using ESF type names.

Examples:
  lwes emit User::Login --attr user:string=alice --attr attempts:uint16=2
  lwes emit Metrics::Sample --attr "values:int32[]=1,2,3" --count 10 --interval 1s
  lwes emit App::Ping --heartbeat 5s --count 100 --interval 1s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, _ := cmd.Flags().GetStringArray("attr")
		count, _ := cmd.Flags().GetInt("count")
		interval, _ := cmd.Flags().GetDuration("interval")

		if cmd.Flags().Changed("heartbeat") {
			container.Config().Transport.HeartbeatFreq, _ = cmd.Flags().GetDuration("heartbeat")
		}

		ev, err := buildEvent(args[0], attrs)
		if err != nil {
			return err
		}
		if schema, err := container.Schema(); err != nil {
			return err
		} else if schema != nil {
			if err := ev.Validate(schema); err != nil {
				return fmt.Errorf("event does not match schema: %w", err)
			}
		}

		log, err := container.Logger()
		if err != nil {
			return err
		}
		emitter, err := container.Emitter()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := emitter.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := emitter.Close(context.Background()); err != nil {
				log.Warn("failed to close emitter", zap.Error(err))
			}
		}()

		for i := 0; i < count; i++ {
			if i > 0 && interval > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(interval):
				}
			}
			if err := emitter.Emit(ctx, ev); err != nil {
				return fmt.Errorf("failed to emit %s: %w", ev.Name(), err)
			}
		}

		_, _, total := emitter.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "Sent %d %s event(s)\n", total, ev.Name())
		return nil
	},
}

// buildEvent creates an event from name:type=value attribute arguments
func buildEvent(name string, args []string) (*event.Event, error) {
	ev := event.New(name)
	for _, arg := range args {
		attrName, attr, err := parseAttr(arg)
		if err != nil {
			return nil, err
		}
		if attrName == event.EncodingAttr {
			v, ok := event.As[int16](attr)
			if !ok {
				return nil, fmt.Errorf("attribute %q must be int16", attrName)
			}
			if err := ev.SetEncoding(v); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := ev.Set(attrName, attr); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

func init() {
	rootCmd.AddCommand(emitCmd)
	emitCmd.Flags().StringArray("attr", nil, "Attribute as name:type=value (repeatable)")
	emitCmd.Flags().IntP("count", "n", 1, "Number of times to send the event")
	emitCmd.Flags().Duration("interval", 0, "Delay between sends")
	emitCmd.Flags().Duration("heartbeat", 0, "Send System::Heartbeat at this frequency")
}
