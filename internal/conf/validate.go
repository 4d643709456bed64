// conf/validate.go settings validation
package conf

import "fmt"

// validateSettings rejects values the playback engine cannot size a buffer for.
func validateSettings(s *Settings) error {
	if _, err := ParseCrossfadeMode(s.Playback.Crossfade); err != nil {
		return fmt.Errorf("playback.crossfade: %w", err)
	}

	switch s.Audio.MemoryProfile {
	case "large", "small":
	default:
		return fmt.Errorf("audio.memoryprofile: must be \"large\" or \"small\", got %q", s.Audio.MemoryProfile)
	}

	for name, v := range map[string]float64{
		"playback.crossfadefadeindelay":     s.Playback.CrossfadeFadeInDelay,
		"playback.crossfadefadeinduration":  s.Playback.CrossfadeFadeInDuration,
		"playback.crossfadefadeoutdelay":    s.Playback.CrossfadeFadeOutDelay,
		"playback.crossfadefadeoutduration": s.Playback.CrossfadeFadeOutDuration,
	} {
		if v < 0 || v > 15 {
			return fmt.Errorf("%s: must be between 0 and 15 seconds, got %g", name, v)
		}
	}

	return nil
}
