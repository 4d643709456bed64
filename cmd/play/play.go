// Package play implements the play subcommand: decode WAV files and play
// them through the PCM buffer engine to a soundcard.
package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/jukebox-go/internal/conf"
	"github.com/tphakala/jukebox-go/internal/decoder"
	"github.com/tphakala/jukebox-go/internal/logging"
	"github.com/tphakala/jukebox-go/internal/observability"
	"github.com/tphakala/jukebox-go/internal/pcmbuf"
	"github.com/tphakala/jukebox-go/internal/pcmdriver"
	"github.com/tphakala/jukebox-go/internal/supervisor"
	"github.com/tphakala/jukebox-go/internal/syspower"
)

// Command creates the play subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [files...]",
		Short: "Play WAV files through the PCM buffer engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Playback.Crossfade = viper.GetString("playback.crossfade")
			settings.Playback.Shuffle = viper.GetBool("playback.shuffle")
			return runPlay(settings, args)
		},
	}

	cmd.Flags().String("crossfade", viper.GetString("playback.crossfade"),
		"Crossfade mode: off, on, shuffle, trackskip, shuffle+trackskip")
	cmd.Flags().Bool("shuffle", viper.GetBool("playback.shuffle"), "Shuffle the playlist")
	_ = viper.BindPFlag("playback.crossfade", cmd.Flags().Lookup("crossfade"))
	_ = viper.BindPFlag("playback.shuffle", cmd.Flags().Lookup("shuffle"))

	return cmd
}

func runPlay(settings *conf.Settings, files []string) error {
	logger := logging.ForService("play")
	if logger == nil {
		logger = slog.Default()
	}

	var obs *observability.Metrics
	if settings.Metrics.Enabled {
		var err error
		obs, err = observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics setup failed: %w", err)
		}
		obs.Serve(settings.Metrics.Addr)
	}

	driver, err := pcmdriver.NewMalgoDriver(pcmdriver.MalgoConfig{
		DeviceName: settings.Audio.Device,
		SampleRate: pcmbuf.NativeFrequency,
		Channels:   2,
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	playlist := supervisor.NewPlaylist(files, settings.Playback.Shuffle)
	power := syspower.NewHost()

	engineCfg := pcmbuf.ConfigFromSettings(settings)
	var engine *pcmbuf.PCMBuf
	if obs != nil {
		engine = pcmbuf.New(engineCfg, driver, playlist, power, obs.PcmBuf)
	} else {
		engine = pcmbuf.New(engineCfg, driver, playlist, power, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer engine.PlayStop()
		playlist.SetPlaying(true)
		defer playlist.SetPlaying(false)

		for track := playlist.Current(); track != ""; track = playlist.Advance() {
			logger.Info("playing track", "path", track)
			src, err := decoder.OpenWAV(track)
			if err != nil {
				logger.Error("skipping unreadable track", "path", track, "error", err)
				continue
			}
			err = src.Stream(ctx, engine)
			_ = src.Close()
			if err != nil {
				return err
			}
			// The outgoing track is fully decoded: arm the transition so
			// the boundary is observed when its last chunk drains.
			engine.StartTrackChange(false)
		}

		// Everything is decoded; wait for the queue to drain.
		for engine.UnplayedBytes() > 0 || driver.IsPlaying() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
		return nil
	})

	g.Go(func() error {
		// Drain track-finished notifications for the log.
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-playlist.Finished():
				logger.Info("track drained", "latency", engine.Latency())
			}
		}
	})

	err = g.Wait()
	if obs != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
