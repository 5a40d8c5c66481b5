package analysis

import (
	"sort"

	"laundering-ring-detector/internal/domain/entity"
)

// Graph is the immutable account graph of a single run. Accounts are
// addressed by a dense index assigned in first-seen order over the
// time-sorted transactions.
type Graph struct {
	// Transactions sorted ascending by timestamp (stable).
	Transactions []entity.Transaction

	ids   []string
	index map[string]int32
	nodes []*entity.AccountNode

	// adjacency keeps one receiver per transaction (multi-edges preserved)
	adjacency [][]int32
	// successors holds distinct receivers in first-seen order, used by searches
	successors [][]int32

	// outTx / inTx are time-ordered indexes into Transactions
	outTx [][]int
	inTx  [][]int

	edgeVolume map[uint64]float64
}

// BuildGraph sorts the transactions and builds the graph.
// The input slice is not modified.
func BuildGraph(txs []entity.Transaction) *Graph {
	sorted := make([]entity.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	g := &Graph{
		Transactions: sorted,
		index:        make(map[string]int32, len(sorted)),
		edgeVolume:   make(map[uint64]float64, len(sorted)),
	}

	for i, tx := range sorted {
		from := g.ensureNode(tx.SenderID)
		to := g.ensureNode(tx.ReceiverID)

		if !g.hasSuccessor(from, to) {
			g.successors[from] = append(g.successors[from], to)
		}
		g.adjacency[from] = append(g.adjacency[from], to)
		g.edgeVolume[edgeKey(from, to)] += tx.Amount
		g.outTx[from] = append(g.outTx[from], i)
		g.inTx[to] = append(g.inTx[to], i)

		sender := g.nodes[from]
		sender.OutDegree++
		sender.TotalOutVolume += tx.Amount
		sender.Transactions = append(sender.Transactions, i)

		receiver := g.nodes[to]
		receiver.InDegree++
		receiver.TotalInVolume += tx.Amount
		if !tx.IsSelfTransfer() {
			receiver.Transactions = append(receiver.Transactions, i)
		}
	}

	return g
}

func (g *Graph) ensureNode(id string) int32 {
	if idx, ok := g.index[id]; ok {
		return idx
	}
	idx := int32(len(g.ids))
	g.index[id] = idx
	g.ids = append(g.ids, id)
	g.nodes = append(g.nodes, &entity.AccountNode{
		ID:       id,
		Patterns: []entity.PatternType{},
		RingIDs:  []string{},
	})
	g.adjacency = append(g.adjacency, nil)
	g.successors = append(g.successors, nil)
	g.outTx = append(g.outTx, nil)
	g.inTx = append(g.inTx, nil)
	return idx
}

func (g *Graph) hasSuccessor(from, to int32) bool {
	_, ok := g.edgeVolume[edgeKey(from, to)]
	return ok
}

func edgeKey(from, to int32) uint64 {
	return (uint64(uint32(from)) << 32) | uint64(uint32(to))
}

// Len returns the number of accounts.
func (g *Graph) Len() int { return len(g.ids) }

// ID returns the account id of a dense index.
func (g *Graph) ID(idx int32) string { return g.ids[idx] }

// Index returns the dense index of an account id.
func (g *Graph) Index(id string) (int32, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

// Node returns the account node of a dense index.
func (g *Graph) Node(idx int32) *entity.AccountNode { return g.nodes[idx] }

// Nodes returns all account nodes in index order.
func (g *Graph) Nodes() []*entity.AccountNode { return g.nodes }

// Adjacency returns receiver ids per sender, one entry per transaction.
func (g *Graph) Adjacency() map[string][]string {
	out := make(map[string][]string, len(g.adjacency))
	for from, tos := range g.adjacency {
		if len(tos) == 0 {
			continue
		}
		ids := make([]string, len(tos))
		for i, to := range tos {
			ids[i] = g.ids[to]
		}
		out[g.ids[from]] = ids
	}
	return out
}

// EdgeVolume returns the summed amount of all transactions from -> to.
func (g *Graph) EdgeVolume(from, to int32) float64 {
	return g.edgeVolume[edgeKey(from, to)]
}

// pathVolume sums edge volumes along path, closing the loop when cyclic is set.
func (g *Graph) pathVolume(path []int32, cyclic bool) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += g.EdgeVolume(path[i], path[i+1])
	}
	if cyclic && len(path) > 1 {
		total += g.EdgeVolume(path[len(path)-1], path[0])
	}
	return total
}

func (g *Graph) memberIDs(path []int32) []string {
	ids := make([]string, len(path))
	for i, idx := range path {
		ids[i] = g.ids[idx]
	}
	return ids
}

func (g *Graph) totalDegree(idx int32) int {
	return g.nodes[idx].TotalDegree()
}
