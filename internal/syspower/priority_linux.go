//go:build linux

package syspower

import "golang.org/x/sys/unix"

// setProcessPriority maps the playback priority ramp onto nice values.
// PriorityPlaybackMax maps to -10, PriorityPlayback to 0. Raising priority
// usually needs CAP_SYS_NICE; failures are reported to the caller and
// otherwise harmless.
func setProcessPriority(priority int) error {
	if priority < PriorityPlaybackMax {
		priority = PriorityPlaybackMax
	}
	if priority > PriorityPlayback {
		priority = PriorityPlayback
	}
	nice := -10 * (PriorityPlayback - priority) / (PriorityPlayback - PriorityPlaybackMax)
	return unix.Setpriority(unix.PRIO_PROCESS, 0, nice)
}
