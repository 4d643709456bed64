// Package devices implements the devices subcommand: list available
// playback devices.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/jukebox-go/internal/pcmdriver"
)

// Command creates the devices subcommand.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available playback devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := pcmdriver.EnumerateDevices()
			if err != nil {
				return err
			}
			for i, name := range names {
				fmt.Printf("%2d: %s\n", i, name)
			}
			return nil
		},
	}
}
