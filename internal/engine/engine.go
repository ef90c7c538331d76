// Package engine drives audio playback of a prepared PCM file. The core
// polls it for the live position and commands absolute seeks; everything
// here is safe for that concurrent use.
package engine

// Engine is the playback surface the session and the position poller talk
// to. Implementations clamp their inputs: seek targets to the source range,
// rate to [0.25, 4.0], volume to [0, 100].
type Engine interface {
	Play()
	Pause()
	Stop() error
	IsPlaying() bool
	PositionMs() int64
	DurationMs() int64
	Seek(ms int64)
	SetRate(factor float64)
	Rate() float64
	SetVolume(percent int)
	Volume() int
}

const (
	RateMin = 0.25
	RateMax = 4.0
)

func clampRate(f float64) float64 {
	if f < RateMin {
		return RateMin
	}
	if f > RateMax {
		return RateMax
	}
	return f
}

func clampVolume(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func clampSeek(ms, durationMs int64) int64 {
	if ms < 0 {
		return 0
	}
	if durationMs > 0 && ms > durationMs-1 {
		return durationMs - 1
	}
	return ms
}
