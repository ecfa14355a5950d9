package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// CreateSetRateCmd creates the set-rate command.
func CreateSetRateCmd(s *Session) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "set-rate <hz> [device]",
		Short: "Change the nominal sample rate of a device",
		Long: `Requests a new nominal sample rate and waits until the device reports it. ` +
			`Rates must be listed by the device as discrete values.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[0], 64)
			if err != nil || rate <= 0 {
				return fmt.Errorf("invalid sample rate %q", args[0])
			}

			sys, err := s.System()
			if err != nil {
				return err
			}
			id, err := resolveDevice(sys, deviceArg(args[1:]))
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			if err := sys.SetSampleRate(ctx, id, rate); err != nil {
				return fmt.Errorf("failed to set sample rate: %w", err)
			}
			current, err := sys.NominalSampleRate(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %g Hz\n", deviceLabel(sys, id), current)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 uses the convergence timeout only)")
	return cmd
}

// CreateSetFormatCmd creates the set-format command.
func CreateSetFormatCmd(s *Session) *cobra.Command {
	var (
		rate     float64
		channels uint32
		bits     uint32
		float    bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:          "set-format [device]",
		Short:        "Change the physical format of a device",
		Long:         `Requests a packed interleaved linear PCM physical format and waits until the device reports it.`,
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

			// Unset flags keep the current value.
			current, err := sys.PhysicalFormat(id)
			if err != nil {
				return fmt.Errorf("failed to read current format: %w", err)
			}
			if !cmd.Flags().Changed("rate") {
				rate = current.SampleRate
			}
			if !cmd.Flags().Changed("channels") {
				channels = current.ChannelsPerFrame
			}
			if !cmd.Flags().Changed("bits") {
				bits = current.BitsPerChannel
			}
			if !cmd.Flags().Changed("float") {
				float = current.FormatFlags&coreaudio.FlagIsFloat != 0
			}
			target := coreaudio.NewLinearPCMFormat(rate, channels, bits, float)

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			if err := sys.SetPhysicalFormat(ctx, id, target); err != nil {
				return fmt.Errorf("failed to set format: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", deviceLabel(sys, id), target)
			return nil
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "Sample rate in Hz")
	cmd.Flags().Uint32Var(&channels, "channels", 0, "Channels per frame")
	cmd.Flags().Uint32Var(&bits, "bits", 0, "Bits per channel")
	cmd.Flags().BoolVar(&float, "float", false, "Use floating point samples")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 uses the convergence timeout only)")
	return cmd
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(cmd.Context(), timeout)
	}
	return context.WithCancel(cmd.Context())
}

func deviceLabel(sys *coreaudio.System, id coreaudio.DeviceID) string {
	if name, err := sys.DeviceName(id); err == nil && name != "" {
		return name
	}
	return fmt.Sprintf("device %d", id)
}
