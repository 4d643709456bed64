// Package syspower exposes CPU-boost and thread-priority hints to the
// playback engine. On hosts without a usable scheduling facility the hints
// degrade to no-ops.
package syspower

import (
	"log/slog"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/tphakala/jukebox-go/internal/logging"
)

// Playback priority levels. Lower values are more urgent. The engine ramps
// between PriorityPlaybackMax (buffer empty) and PriorityPlayback (0.5 s
// buffered or more).
const (
	PriorityPlaybackMax = 1
	PriorityPlayback    = 16
)

// Manager is the scheduling-hint surface used by the playback engine.
type Manager interface {
	// TriggerCPUBoost asks the host for full CPU clock while buffering.
	TriggerCPUBoost()
	// CancelCPUBoost releases a previous boost request.
	CancelCPUBoost()
	// SetPlaybackPriority adjusts the priority of the decode threads.
	SetPlaybackPriority(priority int)
	// Boosted reports whether a CPU boost is currently requested.
	Boosted() bool
}

// Null is a Manager that ignores every hint.
type Null struct{}

func (Null) TriggerCPUBoost()        {}
func (Null) CancelCPUBoost()         {}
func (Null) SetPlaybackPriority(int) {}
func (Null) Boosted() bool           { return false }

// Host is a best-effort Manager for desktop and SBC hosts. The boost is a
// latch: callers may trigger it repeatedly and a single cancel releases it.
// Priority changes are forwarded to the OS where supported and otherwise
// only tracked.
type Host struct {
	mu       sync.Mutex
	boosted  bool
	priority int
	logger   *slog.Logger
}

// NewHost creates a host power manager and logs the CPU inventory once.
func NewHost() *Host {
	logger := logging.ForService("syspower")
	if logger == nil {
		logger = slog.Default()
	}

	h := &Host{priority: PriorityPlayback, logger: logger}

	if counts, err := cpu.Counts(true); err == nil {
		logger.Info("cpu inventory", "logical_cores", counts)
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		logger.Debug("cpu model", "model", infos[0].ModelName, "mhz", infos[0].Mhz)
	}

	return h
}

// TriggerCPUBoost marks the host as boosted. Desktop governors scale on
// demand, so the request is tracked for the occupancy heuristics only.
func (h *Host) TriggerCPUBoost() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.boosted = true
}

// CancelCPUBoost releases the boost request.
func (h *Host) CancelCPUBoost() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.boosted = false
}

// Boosted reports whether a boost request is outstanding.
func (h *Host) Boosted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.boosted
}

// SetPlaybackPriority forwards the priority hint to the OS scheduler.
func (h *Host) SetPlaybackPriority(priority int) {
	h.mu.Lock()
	if priority == h.priority {
		h.mu.Unlock()
		return
	}
	h.priority = priority
	h.mu.Unlock()

	if err := setProcessPriority(priority); err != nil {
		h.logger.Debug("priority hint not applied", "priority", priority, "error", err)
	}
}

// Priority returns the last priority hint given to SetPlaybackPriority.
func (h *Host) Priority() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.priority
}
