// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package eventqueue implements the discrete-event scheduler described in
// spec.md §4.1 and §5: a monotonic simulated-time clock and a min-priority
// queue of pending events, keyed by (fire_time, monotonic_seq), dispatched
// single-threaded and cooperatively. The priority-queue shape follows the
// container/heap idiom used throughout the corpus (LarryRuane-minesim's
// eventlist, go-ethereum's common/prque); the soft-termination "drain mode"
// is this module's own addition per spec.md §4.1.
package eventqueue

import (
	"container/heap"

	"github.com/probechain/netsim/xlog"
)

var log = xlog.Root().New("pkg", "eventqueue")

// Kind enumerates the nine event kinds of spec.md §4.1.
type Kind int

const (
	BlockGenerate Kind = iota
	HashPropagate
	GetRequest
	TimeoutEvent
	BlockPropagate
	BroadcastPrivateChain
	TransactionGenerate
	TransactionPropagate
	FinalizeEvent
)

func (k Kind) String() string {
	switch k {
	case BlockGenerate:
		return "BlockGenerate"
	case HashPropagate:
		return "HashPropagate"
	case GetRequest:
		return "GetRequest"
	case TimeoutEvent:
		return "TimeoutEvent"
	case BlockPropagate:
		return "BlockPropagate"
	case BroadcastPrivateChain:
		return "BroadcastPrivateChain"
	case TransactionGenerate:
		return "TransactionGenerate"
	case TransactionPropagate:
		return "TransactionPropagate"
	case FinalizeEvent:
		return "FinalizeEvent"
	default:
		return "Unknown"
	}
}

// dropped-on-dequeue-in-drain-mode kinds, per spec.md §4.1.
func (k Kind) droppedInDrain() bool {
	switch k {
	case BlockGenerate, TransactionGenerate, TransactionPropagate:
		return true
	default:
		return false
	}
}

// Handler processes one dequeued event. PeerID identifies which peer's state
// the handler is allowed to mutate (spec.md §5: "handlers never mutate
// another peer's state directly").
type Handler func(sched *Scheduler, ev Event)

// Event is one entry in the queue.
type Event struct {
	Kind    Kind
	PeerID  int
	FireAt  float64
	Payload interface{}

	seq int64
}

// heapQueue implements container/heap.Interface, ordering by (FireAt, seq)
// exactly as spec.md §5 requires ("identical fire times processed in
// insertion order").
type heapQueue []*Event

func (h heapQueue) Len() int { return len(h) }
func (h heapQueue) Less(i, j int) bool {
	if h[i].FireAt != h[j].FireAt {
		return h[i].FireAt < h[j].FireAt
	}
	return h[i].seq < h[j].seq
}
func (h heapQueue) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heapQueue) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}
func (h *heapQueue) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler owns the clock, the queue, and dispatch to per-kind handlers.
type Scheduler struct {
	now      float64
	seq      int64
	queue    heapQueue
	handlers map[Kind]Handler
	drain    bool

	dispatched int
	dropped    int
}

// New returns an empty scheduler at simulated time zero.
func New() *Scheduler {
	return &Scheduler{handlers: make(map[Kind]Handler)}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() float64 { return s.now }

// Draining reports whether the scheduler has entered drain mode (spec.md
// §4.1: "Soft-termination protocol").
func (s *Scheduler) Draining() bool { return s.drain }

// OnKind registers the handler invoked whenever an event of this kind is
// dequeued and not dropped.
func (s *Scheduler) OnKind(k Kind, h Handler) {
	s.handlers[k] = h
}

// Schedule inserts an event at now+delay. delay must be >= 0; the scheduler
// does not reorder past-scheduled time (spec.md §5: "Simulated time advances
// only between dequeues").
func (s *Scheduler) Schedule(kind Kind, peerID int, delay float64, payload interface{}) {
	if delay < 0 {
		delay = 0
	}
	ev := &Event{Kind: kind, PeerID: peerID, FireAt: s.now + delay, Payload: payload, seq: s.seq}
	s.seq++
	heap.Push(&s.queue, ev)
}

// ScheduleFinalize is a convenience wrapper for the single FinalizeEvent
// armed at startup, targeting the ringmaster (spec.md §4.1).
func (s *Scheduler) ScheduleFinalize(ringmasterID int, tEnd float64) {
	s.Schedule(FinalizeEvent, ringmasterID, tEnd-s.now, nil)
}

// RunUntil drains the queue, dispatching events to their registered
// handlers, until the queue is empty. It does not read tEnd: the end of
// productive work is set by the FinalizeEvent armed via ScheduleFinalize,
// after which the run always proceeds to an empty queue (spec.md §4.1: "the
// queue is processed to completion"). Without an armed FinalizeEvent,
// self-rescheduling events keep the loop running.
func (s *Scheduler) RunUntil(tEnd float64) {
	for s.queue.Len() > 0 {
		ev := heap.Pop(&s.queue).(*Event)
		s.now = ev.FireAt

		if ev.Kind == FinalizeEvent {
			s.drain = true
		}
		if s.drain && ev.Kind.droppedInDrain() {
			s.dropped++
			continue
		}
		h, ok := s.handlers[ev.Kind]
		if !ok {
			log.Warn("no handler registered", "kind", ev.Kind)
			continue
		}
		s.dispatched++
		h(s, *ev)
	}
}

// Stats reports how many events were actually dispatched vs. dropped during
// drain mode. Purely observational (supplemental, spec_full.md), used by
// cmd/netsim to print a one-line run summary; it never feeds back into
// simulated behavior.
type Stats struct {
	Dispatched int
	Dropped    int
}

func (s *Scheduler) Stats() Stats {
	return Stats{Dispatched: s.dispatched, Dropped: s.dropped}
}
