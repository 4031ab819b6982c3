package eventqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderingByTimeThenSequence(t *testing.T) {
	s := New()
	var order []string

	record := func(name string) Handler {
		return func(_ *Scheduler, _ Event) {
			order = append(order, name)
		}
	}
	s.OnKind(BlockGenerate, record("a"))
	s.OnKind(HashPropagate, record("b"))
	s.OnKind(GetRequest, record("c"))

	s.Schedule(GetRequest, 0, 5, nil)
	s.Schedule(BlockGenerate, 0, 1, nil)
	s.Schedule(HashPropagate, 0, 1, nil) // ties with BlockGenerate at t=1, inserted after

	s.RunUntil(10)

	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDrainModeDropsProductiveEvents(t *testing.T) {
	s := New()
	var ran []Kind
	for _, k := range []Kind{BlockGenerate, TransactionGenerate, TransactionPropagate, HashPropagate, GetRequest, TimeoutEvent, BlockPropagate, BroadcastPrivateChain, FinalizeEvent} {
		k := k
		s.OnKind(k, func(_ *Scheduler, ev Event) { ran = append(ran, ev.Kind) })
	}

	s.Schedule(FinalizeEvent, 0, 5, nil)
	s.Schedule(BlockGenerate, 0, 6, nil)      // after finalize: dropped
	s.Schedule(TransactionGenerate, 0, 6, nil) // after finalize: dropped
	s.Schedule(HashPropagate, 0, 6, nil)       // after finalize: still serviced
	s.Schedule(BlockGenerate, 0, 1, nil)       // before finalize: serviced

	s.RunUntil(5)

	require.Contains(t, ran, FinalizeEvent)
	require.Contains(t, ran, HashPropagate)
	require.Equal(t, 1, countKind(ran, BlockGenerate), "only the pre-finalize BlockGenerate should run")
	require.Equal(t, 0, countKind(ran, TransactionGenerate))

	stats := s.Stats()
	require.Equal(t, 2, stats.Dropped)
}

func countKind(ks []Kind, target Kind) int {
	n := 0
	for _, k := range ks {
		if k == target {
			n++
		}
	}
	return n
}

func TestNoHandlerDoesNotPanic(t *testing.T) {
	s := New()
	s.Schedule(BlockGenerate, 0, 1, nil)
	require.NotPanics(t, func() { s.RunUntil(10) })
}
