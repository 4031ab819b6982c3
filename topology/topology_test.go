package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/config"
	"github.com/probechain/netsim/p2p"
)

const sampleTOML = `
[[peer]]
id = 0
malicious = false
fast = true
high_cpu = true
hash_power = 0.4

[[peer]]
id = 1
malicious = true
fast = true
high_cpu = false
hash_power = 0.6

[[peer]]
id = 2
malicious = true
fast = false
high_cpu = false
hash_power = 0

[[public_edge]]
a = 0
b = 1
propagation_ms = 20
speed_kbps = 100

[[overlay_edge]]
a = 1
b = 2
propagation_ms = 5
speed_kbps = 100
`

func TestDecodeAndRingmasterID(t *testing.T) {
	spec, err := Decode(strings.NewReader(sampleTOML))
	require.NoError(t, err)
	require.Len(t, spec.Peers, 3)

	id, ok := spec.RingmasterID()
	require.True(t, ok)
	require.EqualValues(t, 1, id, "the lowest-id colluder becomes ringmaster")
}

func TestBuildPeersWiresLinksAndRoles(t *testing.T) {
	spec, err := Decode(strings.NewReader(sampleTOML))
	require.NoError(t, err)

	cfg := &config.Config{MiningReward: 50}
	peers, ringmasterID := BuildPeers(spec, cfg)
	require.EqualValues(t, 1, ringmasterID)
	require.Len(t, peers, 3)

	honest, ok := peers[0].(*p2p.HonestPeer)
	require.True(t, ok)
	require.Contains(t, honest.PublicLinks, common.PeerID(1))

	ringmaster, ok := peers[1].(*p2p.MaliciousPeer)
	require.True(t, ok)
	require.True(t, ringmaster.IsRingmaster())
	require.Contains(t, ringmaster.OverlayLinks, common.PeerID(2))

	colluder, ok := peers[2].(*p2p.MaliciousPeer)
	require.True(t, ok)
	require.False(t, colluder.IsRingmaster())
}
