// root.go viper root command code
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/jukebox-go/cmd/beep"
	"github.com/tphakala/jukebox-go/cmd/devices"
	"github.com/tphakala/jukebox-go/cmd/play"
	"github.com/tphakala/jukebox-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jukebox",
		Short: "jukebox-go music player",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		log.Printf("error setting up flags: %v\n", err)
	}

	rootCmd.AddCommand(
		play.Command(settings),
		devices.Command(),
		beep.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.Device, "device", viper.GetString("audio.device"), "Output device name, empty for system default")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.MemoryProfile, "memory-profile", viper.GetString("audio.memoryprofile"), "Buffer sizing profile, large or small")
	rootCmd.PersistentFlags().BoolVar(&settings.Audio.LowLatency, "low-latency", viper.GetBool("audio.lowlatency"), "Cap buffered audio at 0.25s while playing")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
