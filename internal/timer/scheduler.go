package timer

import "time"

// ticker calls fn on a fixed interval until stopped. Calls never overlap
// because they run on a single goroutine; late ticks are coalesced by
// time.Ticker.
type ticker struct {
	stopCh chan struct{}
	done   chan struct{}
}

func startTicker(interval time.Duration, fn func()) *ticker {
	t := &ticker{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.run(interval, fn)
	return t
}

func (t *ticker) run(interval time.Duration, fn func()) {
	defer close(t.done)
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-tick.C:
			fn()
		}
	}
}

// stop halts the loop and waits for an in-flight call to return.
func (t *ticker) stop() {
	if t == nil {
		return
	}
	close(t.stopCh)
	<-t.done
}
