package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/p2p"
	"github.com/probechain/netsim/topology"
)

func TestWriteAllProducesExpectedFiles(t *testing.T) {
	genesis := blockchain.NewGenesis([]common.PeerID{0, 1})
	a := p2p.NewHonestPeer(p2p.NewPeer(0, p2p.NetworkFast, p2p.CPUHigh, 0.5), genesis, 50)
	b := p2p.NewHonestPeer(p2p.NewPeer(1, p2p.NetworkFast, p2p.CPUHigh, 0), genesis, 50)
	peers := map[common.PeerID]p2p.NodeKind{0: a, 1: b}

	spec := &topology.Spec{
		Peers: []topology.PeerSpec{
			{ID: 0, Malicious: false, Fast: true, HighCPU: true, HashPower: 0.5},
			{ID: 1, Malicious: false, Fast: true, HighCPU: false, HashPower: 0},
		},
		PublicEdges: []topology.EdgeSpec{{A: 0, B: 1, PropagationMs: 10, SpeedKbps: 100}},
	}

	dir := t.TempDir()
	require.NoError(t, WriteAll(dir, spec, peers, false, true))

	for _, name := range []string{"Node_info.csv", "networkGraph.csv", "overlayGraph.csv", "Peer_0.csv", "Peer_1.csv", "config.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should exist", name)
	}

	cfgBytes, err := os.ReadFile(filepath.Join(dir, "config.txt"))
	require.NoError(t, err)
	require.Equal(t, "remove_eclipse=false\ncounter_measure=true\n", string(cfgBytes))
}

func TestPeerHistoryRowsSortedByArrival(t *testing.T) {
	genesis := blockchain.NewGenesis([]common.PeerID{0})
	peer := p2p.NewHonestPeer(p2p.NewPeer(0, p2p.NetworkFast, p2p.CPUHigh, 0), genesis, 50)

	coinbase := func() []*blockchain.Transaction {
		return []*blockchain.Transaction{{ID: 0, Sender: blockchain.CoinbaseSender, Receiver: 0, Amount: *uint256.NewInt(50)}}
	}
	b1 := &blockchain.Block{Creator: 0, ParentID: genesis.ID(), Depth: 1, StartMining: 2, Txns: coinbase()}
	b2 := &blockchain.Block{Creator: 0, ParentID: genesis.ID(), Depth: 1, StartMining: 1, Txns: coinbase()}
	require.True(t, peer.AddBlock(b1, 5.0).Accepted)
	// b2 arrives "earlier" in logical time than b1 despite being added second.
	require.True(t, peer.AddBlock(b2, 1.0).Accepted)

	rows := peer.VerifiedInArrivalOrder()
	require.GreaterOrEqual(t, len(rows), 2)
	require.LessOrEqual(t, peer.ArrivalTime(rows[0].ID()), peer.ArrivalTime(rows[len(rows)-1].ID()))
}
