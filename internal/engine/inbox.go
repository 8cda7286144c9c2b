// Released under an MIT license. See LICENSE.

package engine

import (
	"log"
	"sync/atomic"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"

	"github.com/michaelmacinnis/cellar/internal/engine/runner"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

const inboxCapacity = 64

// inbox hands events from the agent's delivery goroutine to the pump.
//
// Each event is enqueued and then one delivery is posted for it, so the
// ring and the run-queue stay in step and events are handled in the order
// they arrived. When the ring is full the producer backs off until the pump
// catches up. The producer must never be the pump goroutine.
type inbox struct {
	closed atomic.Bool
	handle func(event.Session)
	logger *log.Logger
	p      runner.Poster
	ring   lfq.SPSC[event.Session]
}

func newInbox(p runner.Poster, handle func(event.Session), capacity int, logger *log.Logger) *inbox {
	in := &inbox{handle: handle, logger: logger, p: p}
	in.ring.Init(capacity)

	return in
}

// push is the subscriber.
func (in *inbox) push(ev event.Session) {
	var bo iox.Backoff

	for {
		err := in.ring.Enqueue(&ev)
		if err == nil {
			break
		}

		if !iox.IsWouldBlock(err) || in.closed.Load() {
			in.logger.Printf("inbox: dropped %s event: %v", ev.Kind, err)

			return
		}

		bo.Wait()
	}

	in.p.Post(in.deliver)
}

func (in *inbox) deliver() error {
	ev, err := in.ring.Dequeue()
	if err != nil {
		return err
	}

	in.handle(ev)

	return nil
}

// close releases a producer waiting for room that will never come.
func (in *inbox) close() {
	in.closed.Store(true)
}
