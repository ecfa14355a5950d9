package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/internal/pinning"
)

// CreatePinCmd creates the pin command. The profile path defaults to the
// value resolved from the configuration.
func CreatePinCmd(s *Session, defaultProfile func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "pin [profile]",
		Short: "Apply a device profile once",
		Long: `Brings every device listed in the profile to its pinned sample rate and format, then exits. ` +
			`Run audiohal without a subcommand to keep the profile enforced.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := deviceArg(args)
			if path == "" {
				path = defaultProfile()
			}
			profile, err := config.LoadProfile(path)
			if err != nil {
				return err
			}

			sys, err := s.System()
			if err != nil {
				return err
			}
			enforcer := pinning.New(sys, profile,
				pinning.WithBus(s.Bus),
				pinning.WithProfilePath(path),
				pinning.WithLogger(logging.GetLogger("pinning")))

			result, err := enforcer.Apply(cmd.Context(), pinning.TriggerManual)
			fmt.Fprintf(cmd.OutOrStdout(), "%d devices, %d changed, %d failed\n",
				result.Devices, result.Changed, len(result.Failed))
			return err
		},
	}
}
