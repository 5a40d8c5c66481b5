package analysis

import "context"

// ctxCheckEvery is how many visits pass between context polls.
const ctxCheckEvery = 1024

// budget bounds the work of one detector. Once exhausted it stays exhausted
// and the detector unwinds, keeping what it found so far.
type budget struct {
	ctx       context.Context
	remaining int
	ticks     int
	exhausted bool
}

func newBudget(ctx context.Context, maxVisits int) *budget {
	return &budget{ctx: ctx, remaining: maxVisits}
}

// visit consumes one unit and reports whether the search may continue.
func (b *budget) visit() bool {
	if b.exhausted {
		return false
	}
	b.remaining--
	b.ticks++
	if b.remaining < 0 {
		b.exhausted = true
		return false
	}
	if b.ticks >= ctxCheckEvery {
		b.ticks = 0
		if b.ctx.Err() != nil {
			b.exhausted = true
			return false
		}
	}
	return true
}

// truncated reports whether the search was cut short.
func (b *budget) truncated() bool { return b.exhausted }
