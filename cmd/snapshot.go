package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// CreateSnapshotCmd creates the snapshot command.
func CreateSnapshotCmd(s *Session) *cobra.Command {
	var withFormat bool

	cmd := &cobra.Command{
		Use:   "snapshot <profile> [device...]",
		Short: "Write the current device configuration as a profile",
		Long: `Records the current sample rate (and with --format the physical format) of the given ` +
			`devices, or of every named device, into a profile that pin and the daemon can enforce.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := s.System()
			if err != nil {
				return err
			}

			var ids []coreaudio.DeviceID
			if len(args) > 1 {
				for _, arg := range args[1:] {
					id, err := resolveDevice(sys, arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
			} else {
				infos, err := sys.Devices()
				if err != nil {
					return fmt.Errorf("failed to list devices: %w", err)
				}
				for _, info := range infos {
					if info.Name != "" {
						ids = append(ids, info.ID)
					}
				}
			}

			profile := config.Profile{Version: config.ProfileVersion}
			for _, id := range ids {
				entry, err := snapshotDevice(sys, id, withFormat)
				if err != nil {
					return err
				}
				profile.Devices = append(profile.Devices, entry)
			}

			if err := config.SaveProfile(args[0], profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d devices to %s\n", len(profile.Devices), args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&withFormat, "format", false, "Also pin the physical format")
	return cmd
}

func snapshotDevice(sys *coreaudio.System, id coreaudio.DeviceID, withFormat bool) (config.DeviceProfile, error) {
	entry := config.DeviceProfile{}
	if name, err := sys.DeviceName(id); err == nil && name != "" {
		entry.Name = name
	} else {
		entry.ID = uint32(id)
	}

	rate, err := sys.NominalSampleRate(id)
	if err != nil {
		return entry, fmt.Errorf("failed to read sample rate of %s: %w", entry.Label(), err)
	}
	entry.SampleRate = rate

	if withFormat {
		f, err := sys.PhysicalFormat(id)
		if err != nil {
			return entry, fmt.Errorf("failed to read format of %s: %w", entry.Label(), err)
		}
		entry.SampleRate = f.SampleRate
		entry.Format = &config.FormatProfile{
			Channels:       f.ChannelsPerFrame,
			BitsPerChannel: f.BitsPerChannel,
			Float:          f.FormatFlags&coreaudio.FlagIsFloat != 0,
		}
	}
	return entry, nil
}
