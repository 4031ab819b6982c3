package blockchain

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/probechain/netsim/common"
)

func coinbase(creator common.PeerID, reward uint64) *Transaction {
	return &Transaction{ID: common.TxID(creator) * 1000, Sender: CoinbaseSender, Receiver: creator, Amount: *uint256.NewInt(reward)}
}

func mineBlock(parent *Block, creator common.PeerID, startMining float64, reward uint64, extra ...*Transaction) *Block {
	txns := append([]*Transaction{coinbase(creator, reward)}, extra...)
	return &Block{
		Creator:     creator,
		Txns:        txns,
		ParentID:    parent.ID(),
		Depth:       parent.Depth + 1,
		StartMining: startMining,
	}
}

func TestAddBlockSimpleChain(t *testing.T) {
	g := NewGenesis([]common.PeerID{0, 1})
	tree := NewBlockTree(g, 50)

	b1 := mineBlock(g, 0, 1, 50)
	res := tree.AddBlock(b1, 1, false)
	require.True(t, res.Accepted)
	require.True(t, res.TipChanged)
	require.Equal(t, b1.ID(), tree.Tip())
	require.Equal(t, 1, tree.Depth(b1.ID()))
}

func TestDuplicateAddIsNoop(t *testing.T) {
	g := NewGenesis([]common.PeerID{0})
	tree := NewBlockTree(g, 50)
	b1 := mineBlock(g, 0, 1, 50)

	first := tree.AddBlock(b1, 1, false)
	second := tree.AddBlock(b1, 2, false)
	require.True(t, first.Accepted)
	require.False(t, second.Accepted)
}

func TestDanglingReorder(t *testing.T) {
	// S2 — Dangling reorder: three blocks arrive out of order, converge to
	// the same verified set regardless.
	g := NewGenesis([]common.PeerID{0})
	tree := NewBlockTree(g, 50)

	b1 := mineBlock(g, 0, 1, 50)
	b2 := mineBlock(b1, 0, 2, 50)
	b3 := mineBlock(b2, 0, 3, 50)

	r3 := tree.AddBlock(b3, 3, false)
	require.True(t, r3.Dangling)
	r2 := tree.AddBlock(b2, 2, false)
	require.True(t, r2.Dangling)
	r1 := tree.AddBlock(b1, 1, false)
	require.True(t, r1.Accepted)

	require.True(t, tree.IsVerified(b1.ID()))
	require.True(t, tree.IsVerified(b2.ID()))
	require.True(t, tree.IsVerified(b3.ID()))
	require.Equal(t, 1, tree.Depth(b1.ID()))
	require.Equal(t, 2, tree.Depth(b2.ID()))
	require.Equal(t, 3, tree.Depth(b3.ID()))
	require.Equal(t, b3.ID(), tree.Tip())
}

func TestOverspendRejectedAndSubtreeDiscarded(t *testing.T) {
	// S3 — Overspend rejection.
	g := NewGenesis([]common.PeerID{0, 1})
	const reward = 100
	tree := NewBlockTree(g, reward)

	// block1: peer0 mines, earning a coinbase of 100.
	block1 := mineBlock(g, 0, 1, reward)
	tree.AddBlock(block1, 1, false)

	// block2: peer0 mines again and pays its entire prior balance (100) to
	// peer1, validated against block1's snapshot.
	block2 := mineBlock(block1, 0, 2, reward, &Transaction{ID: 1, Sender: 0, Receiver: 1, Amount: *uint256.NewInt(100)})
	tree.AddBlock(block2, 2, false)
	require.Equal(t, uint256.NewInt(100).Uint64(), bal(tree, block2.ID(), 1))

	// bad: peer1 tries to spend 101 against block2's snapshot, where it
	// only has 100.
	bad := mineBlock(block2, 0, 3, reward, &Transaction{ID: 2, Sender: 1, Receiver: 0, Amount: *uint256.NewInt(101)})
	res := tree.AddBlock(bad, 3, false)
	require.True(t, res.Rejected)
	require.False(t, tree.HasSeen(bad.ID()))

	child := mineBlock(bad, 0, 4, reward)
	childRes := tree.AddBlock(child, 4, false)
	require.False(t, childRes.Accepted)
	require.False(t, tree.HasSeen(child.ID()))
}

func bal(tree *BlockTree, blockID string, peer common.PeerID) uint64 {
	b, ok := tree.Block(blockID)
	if !ok {
		return 0
	}
	v := b.Balances[peer]
	return v.Uint64()
}

func TestTieKeepsIncumbentOnHonestTree(t *testing.T) {
	g := NewGenesis([]common.PeerID{0, 1})
	tree := NewBlockTree(g, 50)

	a := mineBlock(g, 0, 1, 50)
	b := mineBlock(g, 1, 1, 50)
	tree.AddBlock(a, 1, false)
	firstTip := tree.Tip()
	tree.AddBlock(b, 1, false)
	require.Equal(t, firstTip, tree.Tip(), "ties must keep the incumbent")
}

func TestLCAAndGetTxnSet(t *testing.T) {
	g := NewGenesis([]common.PeerID{0})
	// give peer 0 a starting balance so both branches' spends validate.
	g.Balances[0] = *uint256.NewInt(100)
	tree := NewBlockTree(g, 50)

	a1 := mineBlock(g, 0, 1, 50, &Transaction{ID: 1, Sender: 0, Receiver: 0, Amount: *uint256.NewInt(1)})
	tree.AddBlock(a1, 1, false)
	a2 := mineBlock(a1, 0, 2, 50, &Transaction{ID: 2, Sender: 0, Receiver: 0, Amount: *uint256.NewInt(1)})
	tree.AddBlock(a2, 2, false)

	b1 := mineBlock(g, 0, 1, 50, &Transaction{ID: 3, Sender: 0, Receiver: 0, Amount: *uint256.NewInt(1)})
	tree.AddBlock(b1, 3, false)

	lca := tree.LCA(a2.ID(), b1.ID())
	require.Equal(t, g.ID(), lca)

	orphaned := tree.GetTxnSet(b1.ID(), lca)
	require.Len(t, orphaned, 1)
	require.Contains(t, orphaned, common.TxID(3))
}
