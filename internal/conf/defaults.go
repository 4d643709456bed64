// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "jukebox-go")
	viper.SetDefault("main.log.path", "logs/jukebox.log")
	viper.SetDefault("main.log.maxsize", 50)
	viper.SetDefault("main.log.maxage", 30)
	viper.SetDefault("main.log.maxbackups", 5)
	viper.SetDefault("main.log.compress", true)

	viper.SetDefault("audio.device", "")
	viper.SetDefault("audio.memoryprofile", "large")
	viper.SetDefault("audio.lowlatency", false)

	viper.SetDefault("playback.crossfade", "off")
	viper.SetDefault("playback.crossfadefadeindelay", 0.0)
	viper.SetDefault("playback.crossfadefadeinduration", 2.0)
	viper.SetDefault("playback.crossfadefadeoutdelay", 0.0)
	viper.SetDefault("playback.crossfadefadeoutduration", 2.0)
	viper.SetDefault("playback.crossfadefadeoutmixmode", false)
	viper.SetDefault("playback.shuffle", false)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.addr", "localhost:9099")
}
