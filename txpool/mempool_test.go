package txpool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
)

func tx(id common.TxID) *blockchain.Transaction {
	return &blockchain.Transaction{ID: id, Sender: 0, Receiver: 1, Amount: *uint256.NewInt(1)}
}

func TestWatermarkAdvancesOnContiguousRun(t *testing.T) {
	w := NewWatermark()
	require.False(t, w.Check(1))

	w.Mark(2) // out of order
	require.True(t, w.Check(2))
	require.False(t, w.Check(1))

	w.Mark(1) // completes the run through 2
	require.True(t, w.Check(1))
	require.True(t, w.Check(2))
	require.True(t, w.Check(0), "threshold monotonically covers everything below it")
}

func TestMempoolReconcile(t *testing.T) {
	m := New()
	m.Add(tx(1))
	m.Add(tx(2))

	toRemove := map[common.TxID]*blockchain.Transaction{1: tx(1)}
	toReadd := map[common.TxID]*blockchain.Transaction{3: tx(3)}
	m.Reconcile(toReadd, toRemove)

	require.False(t, m.Has(1))
	require.True(t, m.Has(2))
	require.True(t, m.Has(3))
}

func TestSortedIDsDeterministic(t *testing.T) {
	m := New()
	m.Add(tx(5))
	m.Add(tx(1))
	m.Add(tx(3))
	require.Equal(t, []common.TxID{1, 3, 5}, m.SortedIDs())
}
