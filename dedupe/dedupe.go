// Package dedupe merges outcome branches that lead to equivalent positions
// by the same action, summing their probabilities.
package dedupe

import (
	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/outcome"
)

type Options struct {
	// IgnoreHP merges positions that differ only in exact HP, as long as
	// the same creatures are fainted.
	IgnoreHP bool
}

// Merge collapses branches with the same action string and equivalent
// positions. The first branch of each group is kept as the representative,
// and groups keep the order of their first appearance. Total probability
// mass is unchanged, and merging an already merged set is a no-op.
func Merge(branches []outcome.Branch, opts Options) []outcome.Branch {
	eq := battle.EqualOptions{IgnoreHP: opts.IgnoreHP}
	buckets := make(map[uint64][]int, len(branches))
	out := make([]outcome.Branch, 0, len(branches))
	var buf []byte
	for _, b := range branches {
		action := b.Action.String()
		buf = append(buf[:0], action...)
		buf = append(buf, 0)
		buf = b.Position.AppendKey(buf, eq)
		h := xxhash.Sum64(buf)

		merged := false
		for _, idx := range buckets[h] {
			rep := &out[idx]
			if rep.Action.String() == action && battle.Equal(rep.Position, b.Position, eq) {
				rep.Prob += b.Prob
				merged = true
				break
			}
		}
		if !merged {
			buckets[h] = append(buckets[h], len(out))
			out = append(out, b)
		}
	}
	log.Trace().Int("in", len(branches)).Int("out", len(out)).Msg("branches-merged")
	return out
}
