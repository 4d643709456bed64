package main

import (
	"fmt"
	"os"

	"github.com/tphakala/jukebox-go/cmd"
	"github.com/tphakala/jukebox-go/internal/conf"
	"github.com/tphakala/jukebox-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(&logging.FileConfig{
		Path:       settings.Main.Log.Path,
		MaxSizeMB:  settings.Main.Log.MaxSize,
		MaxAgeDays: settings.Main.Log.MaxAge,
		MaxBackups: settings.Main.Log.MaxBackups,
		Compress:   settings.Main.Log.Compress,
	})
	if settings.Debug {
		logging.SetLevel(logging.LevelTrace)
	}

	rootCmd := cmd.RootCommand(settings)
	if rootCmd == nil {
		fmt.Fprintln(os.Stderr, "error building command tree")
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
