package events

const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
	aliasRatioRange     = float64(aliasRatioRangeHigh - aliasRatioRangeLow)
)

// allowedAliasRatio is the share of events that may come from alias replay,
// scaled down from 99% for small documents to 10% for very large ones.
func allowedAliasRatio(total int) float64 {
	switch {
	case total <= aliasRatioRangeLow:
		return 0.99
	case total >= aliasRatioRangeHigh:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(total-aliasRatioRangeLow)/aliasRatioRange)
	}
}

// replayGuard tracks alias expansion for one parse. It refuses aliases that
// point into their own anchored node and documents that expand out of
// proportion to their size.
type replayGuard[N comparable] struct {
	open     map[N]bool
	depth    int
	total    int
	replayed int
}

func newReplayGuard[N comparable]() *replayGuard[N] {
	return &replayGuard[N]{open: make(map[N]bool)}
}

func (g *replayGuard[N]) enter(n N) {
	g.open[n] = true
}

func (g *replayGuard[N]) leave(n N) {
	delete(g.open, n)
}

// recursive reports whether n is still being walked.
func (g *replayGuard[N]) recursive(n N) bool {
	return g.open[n]
}

// count records one emitted event.
func (g *replayGuard[N]) count() error {
	g.total++
	if g.depth > 0 {
		g.replayed++
	}
	if g.replayed > 100 && g.total > 1000 && float64(g.replayed)/float64(g.total) > allowedAliasRatio(g.total) {
		return ErrExcessiveAliasing
	}
	return nil
}
