package analysis

import (
	"context"
	"fmt"
	"time"

	"laundering-ring-detector/internal/domain/entity"
)

// StructuringDetector reports fan-in / fan-out bursts inside a rolling
// forward-anchored time window.
type StructuringDetector struct {
	threshold  int
	window     time.Duration
	allWindows bool
}

// NewStructuringDetector creates a structuring detector from the engine config
func NewStructuringDetector(cfg Config) *StructuringDetector {
	return &StructuringDetector{
		threshold:  cfg.FanThreshold,
		window:     cfg.StructuringWindow,
		allWindows: cfg.ReportAllWindows,
	}
}

func (d *StructuringDetector) Name() string { return "structuring" }

// burst is one matched window: the counterparties in first-seen order, the
// summed amount sent to them, and the last transaction position scanned.
type burst struct {
	counterparties []string
	volume         float64
	end            int
}

// Detect scans every hub in index order; fan-out is checked before fan-in.
// The scan is linear in the hub's transactions per anchor, so it runs
// without a visit budget and only observes cancellation between hubs.
func (d *StructuringDetector) Detect(ctx context.Context, g *Graph) ([]*entity.FraudRing, bool) {
	var rings []*entity.FraudRing
	seen := make(map[string]struct{}, d.threshold*2)

	for idx := int32(0); int(idx) < g.Len(); idx++ {
		if ctx.Err() != nil {
			return rings, true
		}
		node := g.Node(idx)

		if node.OutDegree >= d.threshold {
			for _, b := range d.scan(g, g.outTx[idx], receiverOf, seen) {
				rings = append(rings, newRing(
					entity.PatternFanOut,
					append([]string{node.ID}, b.counterparties...),
					StructuringRisk,
					b.volume,
					fmt.Sprintf("Fan-Out: %d recipients in %s", len(b.counterparties), formatWindow(d.window)),
				))
			}
		}

		if node.InDegree >= d.threshold {
			for _, b := range d.scan(g, g.inTx[idx], senderOf, seen) {
				rings = append(rings, newRing(
					entity.PatternFanIn,
					append([]string{node.ID}, b.counterparties...),
					StructuringRisk,
					b.volume,
					fmt.Sprintf("Fan-In: %d senders in %s", len(b.counterparties), formatWindow(d.window)),
				))
			}
		}
	}
	return rings, false
}

func receiverOf(tx entity.Transaction) string { return tx.ReceiverID }
func senderOf(tx entity.Transaction) string   { return tx.SenderID }

// scan walks the hub's time-ordered transactions. Each position is tried as
// a window anchor; the window includes every transaction whose timestamp is
// at most d.window after the anchor.
func (d *StructuringDetector) scan(g *Graph, positions []int,
	counterparty func(entity.Transaction) string, seen map[string]struct{}) []burst {

	var found []burst
	for i := 0; i < len(positions); i++ {
		anchor := g.Transactions[positions[i]].Timestamp
		clear(seen)
		order := make([]string, 0, d.threshold)
		var volume float64
		end := i

		for j := i; j < len(positions); j++ {
			tx := g.Transactions[positions[j]]
			if tx.Timestamp.Sub(anchor) > d.window {
				break
			}
			end = j
			if tx.IsSelfTransfer() && !CountSelfTransferCounterparty {
				continue
			}
			cp := counterparty(tx)
			volume += tx.Amount
			if _, ok := seen[cp]; !ok {
				seen[cp] = struct{}{}
				order = append(order, cp)
			}
		}

		if len(order) < d.threshold {
			continue
		}
		found = append(found, burst{counterparties: order, volume: volume, end: end})
		if !d.allWindows {
			break
		}
		i = end
	}
	return found
}

func formatWindow(w time.Duration) string {
	if w%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(w/time.Hour))
	}
	return w.String()
}
