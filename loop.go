package audinux

import (
	"errors"
	"sync"
)

// ErrLoopMarkersEqual is returned when both loop markers land on the same
// millisecond; such a loop would pin the playhead in place. The request is
// rejected before it reaches the controller, so the current loop state is
// untouched.
var ErrLoopMarkersEqual = errors.New("loop markers are at the same position")

// LoopRegion is an A-B repeat range. EndMs is exclusive in the sense that
// reaching it sends the playhead back to StartMs.
type LoopRegion struct {
	StartMs int64
	EndMs   int64
}

// loopController holds the active loop region and decides when the poller
// must seek. Evaluation is level-triggered: every tick past the end point
// requests a jump, so a missed tick self-corrects on the next one.
type loopController struct {
	mu     sync.Mutex
	region *LoopRegion
}

// Set installs a loop between two positions. A pair with startMs >= endMs
// is a disable request, not an error: the loop is cleared.
func (c *loopController) Set(startMs, endMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if startMs >= endMs {
		c.region = nil
		return
	}
	c.region = &LoopRegion{StartMs: startMs, EndMs: endMs}
}

func (c *loopController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = nil
}

func (c *loopController) Region() (LoopRegion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.region == nil {
		return LoopRegion{}, false
	}
	return *c.region, true
}

// Evaluate reports whether playback at curMs must jump, and to where.
// Positions strictly before the end point never trigger.
func (c *loopController) Evaluate(curMs int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.region == nil {
		return 0, false
	}
	if curMs >= c.region.EndMs {
		return c.region.StartMs, true
	}
	return 0, false
}
