package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CreateRatesCmd creates the rates command.
func CreateRatesCmd(s *Session) *cobra.Command {
	return &cobra.Command{
		Use:          "rates [device]",
		Short:        "Show current and available sample rates",
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

			current, err := sys.NominalSampleRate(id)
			if err != nil {
				return fmt.Errorf("failed to read sample rate: %w", err)
			}
			ranges, err := sys.AvailableSampleRates(id)
			if err != nil {
				return fmt.Errorf("failed to list sample rates: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "current: %g Hz\n", current)
			for _, r := range ranges {
				fmt.Fprintf(out, "  %s\n", r)
			}
			return nil
		},
	}
}
