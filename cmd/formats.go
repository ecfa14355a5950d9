package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd(s *Session) *cobra.Command {
	return &cobra.Command{
		Use:          "formats [device]",
		Short:        "List supported physical formats",
		Long:         `Lists the physical stream formats a device offers. The current format is marked with '*'. Without a device the default output is used.`,
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

			formats, err := sys.SupportedPhysicalFormats(id)
			if err != nil {
				return fmt.Errorf("failed to list formats: %w", err)
			}
			current, currentErr := sys.PhysicalFormat(id)

			for _, f := range formats {
				mark := " "
				if currentErr == nil && coreaudio.FormatsEqual(f, current) {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, f)
			}
			return nil
		},
	}
}
