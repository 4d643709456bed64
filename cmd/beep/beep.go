// Package beep implements the beep subcommand: synthesize a square wave
// through the PCM buffer engine.
package beep

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/jukebox-go/internal/conf"
	"github.com/tphakala/jukebox-go/internal/pcmbuf"
	"github.com/tphakala/jukebox-go/internal/pcmdriver"
	"github.com/tphakala/jukebox-go/internal/syspower"
)

// Command creates the beep subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		frequency int
		duration  time.Duration
		amplitude int
	)

	cmd := &cobra.Command{
		Use:   "beep",
		Short: "Play a square wave beep",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := pcmdriver.NewMalgoDriver(pcmdriver.MalgoConfig{
				DeviceName: settings.Audio.Device,
				SampleRate: pcmbuf.NativeFrequency,
				Channels:   2,
			})
			if err != nil {
				return err
			}
			defer driver.Close()

			engine := pcmbuf.New(pcmbuf.ConfigFromSettings(settings), driver, nil, syspower.Null{}, nil)
			engine.Beep(frequency, duration, amplitude)

			// One-shot submissions drain asynchronously.
			time.Sleep(duration + 250*time.Millisecond)
			engine.PlayStop()
			return nil
		},
	}

	cmd.Flags().IntVar(&frequency, "frequency", 880, "Beep frequency in Hz")
	cmd.Flags().DurationVar(&duration, "duration", 150*time.Millisecond, "Beep duration")
	cmd.Flags().IntVar(&amplitude, "amplitude", 8000, "Beep amplitude (0..32767)")

	return cmd
}
