package p2p

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceptionAnnounceOrderPreserved(t *testing.T) {
	r := NewReceptionRecord()
	a1 := Announcer{Peer: 1, Channel: ChannelPublic}
	a2 := Announcer{Peer: 2, Channel: ChannelPublic}
	a3 := Announcer{Peer: 3, Channel: ChannelOverlay}

	r.Announce(a1)
	r.Announce(a2)
	r.Announce(a3)

	require.Equal(t, []Announcer{a1, a2, a3}, r.AllSenders)
	require.Equal(t, []Announcer{a1, a2, a3}, r.PassiveSenders)
	require.Empty(t, r.ActiveSenders)
}

func TestReceptionMoveToActiveAndRemove(t *testing.T) {
	r := NewReceptionRecord()
	a1 := Announcer{Peer: 1, Channel: ChannelPublic}
	a2 := Announcer{Peer: 2, Channel: ChannelPublic}
	r.Announce(a1)
	r.Announce(a2)

	r.MoveToActive(a1)
	require.Equal(t, []Announcer{a2}, r.PassiveSenders)
	require.Equal(t, []Announcer{a1}, r.ActiveSenders)

	r.RemoveActive(a1)
	require.Empty(t, r.ActiveSenders)
	require.Equal(t, []Announcer{a1, a2}, r.AllSenders, "AllSenders is the permanent record")
}

func TestInvariant6WithoutCounterMeasure(t *testing.T) {
	r := NewReceptionRecord()
	a1 := Announcer{Peer: 1, Channel: ChannelPublic}
	a2 := Announcer{Peer: 2, Channel: ChannelPublic}
	r.Announce(a1)
	r.Announce(a2)
	r.MoveToActive(a1)
	require.True(t, r.Invariant6(false))

	r.MoveToActive(a2)
	require.False(t, r.Invariant6(false), "more than one active sender without the counter-measure violates invariant 6")
	require.True(t, r.Invariant6(true), "the counter-measure allows multiple concurrent active senders")
}
