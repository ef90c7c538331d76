package audinux

import (
	"sync"
	"time"
)

const (
	playheadInterval = 100 * time.Millisecond
	controlInterval  = 200 * time.Millisecond
)

// poller drives the session's periodic work on two cadences: a fast tick
// for the playhead readout and a slower one for loop evaluation and label
// refresh. Callbacks run on the poller goroutine and must not block.
type poller struct {
	onPlayhead func()
	onControl  func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (p *poller) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
}

func (p *poller) run(stop, done chan struct{}) {
	defer close(done)
	fast := time.NewTicker(playheadInterval)
	defer fast.Stop()
	slow := time.NewTicker(controlInterval)
	defer slow.Stop()
	for {
		select {
		case <-stop:
			return
		case <-fast.C:
			p.onPlayhead()
		case <-slow.C:
			p.onControl()
		}
	}
}

// halt stops the poller and waits for the goroutine to drain, so no
// callback fires after halt returns.
func (p *poller) halt() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
