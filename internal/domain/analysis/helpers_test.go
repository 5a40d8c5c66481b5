package analysis

import (
	"fmt"
	"time"

	"laundering-ring-detector/internal/domain/entity"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func tx(id, from, to string, amount float64, at time.Time) entity.Transaction {
	return entity.Transaction{ID: id, SenderID: from, ReceiverID: to, Amount: amount, Timestamp: at}
}

// scenarioCycle is A -> B -> C -> D -> A one hour apart.
func scenarioCycle() []entity.Transaction {
	return []entity.Transaction{
		tx("T1", "A", "B", 5000, t0),
		tx("T2", "B", "C", 4800, t0.Add(1*time.Hour)),
		tx("T3", "C", "D", 4600, t0.Add(2*time.Hour)),
		tx("T4", "D", "A", 4500, t0.Add(3*time.Hour)),
	}
}

// scenarioFanIn is 12 distinct senders paying M within ten minutes, then M
// forwarding one transfer.
func scenarioFanIn() []entity.Transaction {
	var txs []entity.Transaction
	for i := 1; i <= 12; i++ {
		txs = append(txs, tx(fmt.Sprintf("IN%02d", i), fmt.Sprintf("S%02d", i), "M", 400, t0.Add(time.Duration(i*50)*time.Second)))
	}
	return append(txs, tx("OUT", "M", "X", 4500, t0.Add(time.Hour)))
}

// chain links the accounts in order, one transfer per hop.
func chain(accounts ...string) []entity.Transaction {
	var txs []entity.Transaction
	for i := 0; i+1 < len(accounts); i++ {
		txs = append(txs, tx(fmt.Sprintf("C%d", i), accounts[i], accounts[i+1], 1000, t0.Add(time.Duration(i)*time.Hour)))
	}
	return txs
}

func ringsOf(rings []*entity.FraudRing, pattern entity.PatternType) []*entity.FraudRing {
	var out []*entity.FraudRing
	for _, r := range rings {
		if r.PatternType == pattern {
			out = append(out, r)
		}
	}
	return out
}

func ringIDs(rings []*entity.FraudRing) []string {
	ids := make([]string, len(rings))
	for i, r := range rings {
		ids[i] = r.RingID
	}
	return ids
}
