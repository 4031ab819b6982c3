package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/netsim/common"
)

func TestSelfishMiningReleaseRule(t *testing.T) {
	// S4 — Selfish mining release: ringmaster mines two blocks privately
	// while honest peers mine one public block; release is deferred until
	// the next externally-added block, per the spec §9 resolution.
	const reward = 50
	ringmaster := common.PeerID(0)
	g := NewGenesis([]common.PeerID{0, 1})
	tree := NewMaliciousBlockTree(g, reward, ringmaster)

	priv1 := mineBlock(g, ringmaster, 1, reward)
	require.True(t, tree.AddOwnMinedBlock(priv1, 1))

	priv2 := mineBlock(priv1, ringmaster, 2, reward)
	require.True(t, tree.AddOwnMinedBlock(priv2, 2))

	require.Equal(t, 2, tree.PrivateChainLen())
	require.True(t, tree.IsPrivateSorted())
	require.Equal(t, g.ID(), tree.Tip(), "the public tree must not advance from private mining")

	// Honest peer mines one public block (depth 1); this is an
	// externally-produced block from the ringmaster's point of view.
	honestBlock := mineBlock(g, 1, 1, reward)
	res, shouldRelease, releaseID := tree.AddBlock(honestBlock, 3, false)
	require.True(t, res.Accepted)
	require.True(t, shouldRelease, "private depth 2 <= honest depth 1 + 1")
	require.Equal(t, priv2.ID(), releaseID)

	released := tree.ReleasePrefix(releaseID)
	require.Len(t, released, 2)
	require.Equal(t, 0, tree.PrivateChainLen())
}

func TestMaliciousTreeTieBreakFavorsRingmaster(t *testing.T) {
	const reward = 50
	ringmaster := common.PeerID(0)
	g := NewGenesis([]common.PeerID{0, 1})
	tree := NewMaliciousBlockTree(g, reward, ringmaster)

	honest := mineBlock(g, 1, 1, reward)
	res1, _, _ := tree.AddBlock(honest, 1, false)
	require.True(t, res1.Accepted)
	require.Equal(t, honest.ID(), tree.Tip())

	rm := mineBlock(g, ringmaster, 1, reward)
	res2, _, _ := tree.AddBlock(rm, 2, false)
	require.True(t, res2.Accepted)
	require.Equal(t, rm.ID(), tree.Tip(), "equal depth must favor the ringmaster's block")
}

func TestBroadcastSeenNeverOverlapsPrivate(t *testing.T) {
	const reward = 50
	ringmaster := common.PeerID(0)
	g := NewGenesis([]common.PeerID{0})
	tree := NewMaliciousBlockTree(g, reward, ringmaster)

	b := mineBlock(g, ringmaster, 1, reward)
	require.True(t, tree.AddOwnMinedBlock(b, 1))
	require.False(t, tree.IsBroadcastSeen(b.ID()))

	tree.ReleasePrefix(b.ID())
	require.True(t, tree.IsBroadcastSeen(b.ID()))
	require.Equal(t, 0, tree.PrivateChainLen())
}

func TestGetLastBlkPrefersDeeperPrivateTip(t *testing.T) {
	const reward = 50
	ringmaster := common.PeerID(0)
	g := NewGenesis([]common.PeerID{0})
	tree := NewMaliciousBlockTree(g, reward, ringmaster)

	id, depth := tree.GetLastBlk()
	require.Equal(t, g.ID(), id)
	require.Equal(t, 0, depth)

	priv := mineBlock(g, ringmaster, 1, reward)
	tree.AddOwnMinedBlock(priv, 1)

	id2, depth2 := tree.GetLastBlk()
	require.Equal(t, priv.ID(), id2)
	require.Equal(t, 1, depth2)
}
