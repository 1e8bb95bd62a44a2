// ABOUTME: Software volume and mute shared by all sinks
// ABOUTME: Scales int32 samples with clipping to the 24-bit range
package output

import (
	"log"
	"sync"

	"github.com/oggplay/oggplay/pkg/audio"
)

// volume holds a sink's software gain. The TUI adjusts it from another
// goroutine while the sink writes.
type volume struct {
	mu    sync.Mutex
	level int
	muted bool
}

// SetVolume sets the volume (0-100)
func (v *volume) SetVolume(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	v.mu.Lock()
	v.level = level
	v.mu.Unlock()
	log.Printf("Volume set to %d", level)
}

// SetMuted sets mute state
func (v *volume) SetMuted(muted bool) {
	v.mu.Lock()
	v.muted = muted
	v.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (v *volume) Volume() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.level
}

// Muted returns mute state
func (v *volume) Muted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.muted
}

func (v *volume) apply(samples []int32) []int32 {
	v.mu.Lock()
	level, muted := v.level, v.muted
	v.mu.Unlock()
	return applyVolume(samples, level, muted)
}

// applyVolume applies volume and mute to samples with clipping protection
func applyVolume(samples []int32, volume int, muted bool) []int32 {
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int32, len(samples))
	if multiplier == 1 {
		copy(result, samples)
		return result
	}
	for i, sample := range samples {
		result[i] = audio.Clamp24(int64(float64(sample) * multiplier))
	}
	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
