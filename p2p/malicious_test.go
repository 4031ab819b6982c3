package p2p

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
)

func newColluder(id common.PeerID, ringmaster common.PeerID, isRingmaster, removeEclipse bool) *MaliciousPeer {
	core := NewPeer(id, NetworkFast, CPUHigh, 0)
	return NewMaliciousPeer(core, genesisFor(id, ringmaster), 50, ringmaster, isRingmaster, removeEclipse)
}

func TestMaliciousForwardingWithholdsRingmasterBlocksOnPublic(t *testing.T) {
	m := newColluder(1, 9, false, false)
	m.PublicLinks[2] = LinkParams{SpeedKbps: 100}
	m.OverlayLinks[3] = LinkParams{SpeedKbps: 100}

	fromRingmaster := m.ChannelsToForwardTo(9)
	require.Len(t, fromRingmaster, 1, "only the overlay neighbor gets the ringmaster's hash")
	require.Equal(t, ChannelOverlay, fromRingmaster[0].Channel)

	fromOther := m.ChannelsToForwardTo(2)
	require.Len(t, fromOther, 2, "a non-ringmaster creator's hash reaches both public and overlay neighbors")
}

func TestMaliciousServeGetEclipseRule(t *testing.T) {
	m := newColluder(1, 9, false, false)

	require.False(t, m.ServeGet(9, ChannelPublic, false), "eclipse active: withhold the ringmaster's block on public")
	require.True(t, m.ServeGet(2, ChannelPublic, false), "a non-ringmaster creator's block is always served")
	require.True(t, m.ServeGet(9, ChannelOverlay, false), "colluders always share over the overlay")
	require.True(t, m.ServeGet(9, ChannelPublic, true), "remove_eclipse disables the withhold")
}

func TestMaliciousAddBlockSurfacesReleaseTrigger(t *testing.T) {
	ringmasterID := common.PeerID(9)
	m := newColluder(1, ringmasterID, false, true)

	g := m.Tree.Tip()
	gBlock, _ := m.Tree.Block(g)

	private := &blockchain.Block{
		Creator:     ringmasterID,
		ParentID:    g,
		Depth:       1,
		StartMining: 1,
		Txns:        []*blockchain.Transaction{{ID: 0, Sender: -1, Receiver: ringmasterID, Amount: *uint256.NewInt(50)}},
	}
	require.True(t, m.Tree.AddOwnMinedBlock(private, 1))

	honestBlock := &blockchain.Block{
		Creator:     2,
		ParentID:    gBlock.ID(),
		Depth:       1,
		StartMining: 2,
		Txns:        []*blockchain.Transaction{{ID: 1, Sender: -1, Receiver: 2, Amount: *uint256.NewInt(50)}},
	}
	out := m.AddBlock(honestBlock, 2)
	require.True(t, out.Accepted)
	require.True(t, out.ShouldBroadcast, "private depth 1 <= honest depth (1) + 1 triggers release")
	require.Equal(t, private.ID(), out.ReleaseBlockID)
}
