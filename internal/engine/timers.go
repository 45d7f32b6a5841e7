package engine

import "time"

type timerKind int

const (
	timerTick timerKind = iota
	timerReveal
	timerAdvance
	timerOpponent
	timerCardDraw
	timerActiveExpire
	timerScoreExpire
)

// timer is a callback scheduled on the game's virtual clock
type timer struct {
	seq      uint64
	at       time.Duration
	kind     timerKind
	playerID string
	key      string
}

// timerQueue holds pending timers. Games rarely have more than a handful, so a
// slice with linear scans is enough.
type timerQueue struct {
	seq     uint64
	pending []*timer
}

func (q *timerQueue) schedule(t *timer) {
	q.seq++
	t.seq = q.seq
	q.pending = append(q.pending, t)
}

// next returns the earliest timer, ties going to the one scheduled first
func (q *timerQueue) next() (*timer, int) {
	best := -1
	for i, t := range q.pending {
		if best < 0 || t.at < q.pending[best].at || (t.at == q.pending[best].at && t.seq < q.pending[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return nil, -1
	}
	return q.pending[best], best
}

// popDue removes and returns the earliest timer due at or before now
func (q *timerQueue) popDue(now time.Duration) *timer {
	t, i := q.next()
	if t == nil || t.at > now {
		return nil
	}
	q.pending = append(q.pending[:i], q.pending[i+1:]...)
	return t
}

func (q *timerQueue) cancel(match func(*timer) bool) {
	kept := q.pending[:0]
	for _, t := range q.pending {
		if !match(t) {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(q.pending); i++ {
		q.pending[i] = nil
	}
	q.pending = kept
}

func (q *timerQueue) cancelKind(kinds ...timerKind) {
	q.cancel(func(t *timer) bool {
		for _, k := range kinds {
			if t.kind == k {
				return true
			}
		}
		return false
	})
}

func (q *timerQueue) cancelPlayer(kind timerKind, playerID string) {
	q.cancel(func(t *timer) bool {
		return t.kind == kind && t.playerID == playerID
	})
}

func (q *timerQueue) has(kind timerKind) bool {
	for _, t := range q.pending {
		if t.kind == kind {
			return true
		}
	}
	return false
}

func (q *timerQueue) len() int {
	return len(q.pending)
}
