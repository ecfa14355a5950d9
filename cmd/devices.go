package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type deviceRow struct {
	ID            uint32  `json:"id"`
	Name          string  `json:"name"`
	SampleRate    float64 `json:"sample_rate,omitempty"`
	DefaultInput  bool    `json:"default_input"`
	DefaultOutput bool    `json:"default_output"`
}

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd(s *Session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:          "devices",
		Short:        "List audio devices",
		Long:         `Lists every audio device with its current nominal sample rate and default input/output role.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := s.System()
			if err != nil {
				return err
			}
			infos, err := sys.Devices()
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			rows := make([]deviceRow, 0, len(infos))
			for _, info := range infos {
				row := deviceRow{
					ID:            uint32(info.ID),
					Name:          info.Name,
					DefaultInput:  info.IsDefaultInput,
					DefaultOutput: info.IsDefaultOutput,
				}
				if rate, rateErr := sys.NominalSampleRate(info.ID); rateErr == nil {
					row.SampleRate = rate
				}
				rows = append(rows, row)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tRATE\tDEFAULT")
			for _, row := range rows {
				role := ""
				switch {
				case row.DefaultInput && row.DefaultOutput:
					role = "input,output"
				case row.DefaultInput:
					role = "input"
				case row.DefaultOutput:
					role = "output"
				}
				fmt.Fprintf(w, "%d\t%s\t%g\t%s\n", row.ID, row.Name, row.SampleRate, role)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print devices as JSON")
	return cmd
}
