package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// watchBuffer sizes the delivery channels of the watch listeners.
const watchBuffer = 32

// CreateWatchCmd creates the watch command.
func CreateWatchCmd(s *Session) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch [device]",
		Short: "Print sample rate and format changes as they happen",
		Long: `Installs sample rate and physical format listeners on a device and prints every change ` +
			`until interrupted. Values dropped because the terminal fell behind are reported too.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := s.System()
			if err != nil {
				return err
			}
			id, err := resolveDevice(sys, deviceArg(args))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			rates := make(chan float64, watchBuffer)
			rateListener := coreaudio.NewRateListener(sys, id, rates)
			if err := rateListener.Register(); err != nil {
				return fmt.Errorf("failed to watch sample rate: %w", err)
			}
			defer rateListener.Close()

			formats := make(chan coreaudio.StreamFormat, watchBuffer)
			formatListener := coreaudio.NewFormatListener(sys, id, formats)
			if err := formatListener.Register(); err != nil {
				return fmt.Errorf("failed to watch format: %w", err)
			}
			defer formatListener.Close()

			var dropped chan events.DeliveryDroppedEvent
			if s.Bus != nil {
				dropped = make(chan events.DeliveryDroppedEvent, watchBuffer)
				unsub := events.SubscribeToChannel(s.Bus, dropped)
				defer unsub()
			}

			out := cmd.OutOrStdout()
			name := deviceLabel(sys, id)
			fmt.Fprintf(out, "watching %s (%d)\n", name, id)

			for {
				select {
				case <-ctx.Done():
					return nil
				case rate := <-rates:
					fmt.Fprintf(out, "%s rate %g Hz\n", time.Now().Format(time.TimeOnly), rate)
				case format := <-formats:
					fmt.Fprintf(out, "%s format %s\n", time.Now().Format(time.TimeOnly), format)
				case ev := <-dropped:
					fmt.Fprintf(out, "%s dropped %s\n", time.Now().Format(time.TimeOnly), ev.Property)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 watches until interrupted)")
	return cmd
}
