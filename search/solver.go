// Package search picks an action by depth-limited expectimax over the
// belief state. Own actions are maximised; opponent replies and random
// outcomes are averaged by their probabilities.
package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/floats"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/config"
	"github.com/domino14/foresight/dedupe"
	"github.com/domino14/foresight/dex"
	"github.com/domino14/foresight/engine"
	"github.com/domino14/foresight/outcome"
	"github.com/domino14/foresight/reward"
)

var (
	ErrNoLegalAction = errors.New("no legal action")
)

type ActionValue struct {
	Action battle.Action
	Value  float64
}

type Result struct {
	Action battle.Action
	Value  float64
	// Values holds every viable root action, best first.
	Values    []ActionValue
	Nodes     uint64
	Truncated bool
	Elapsed   time.Duration
}

type Solver struct {
	cfg      *config.Config
	rules    engine.RulesEngine
	outcomes *outcome.Enumerator

	side    battle.Side
	plies   int
	threads int
	budget  uint64
	workers *semaphore.Weighted

	nodes     atomic.Uint64
	truncated atomic.Bool
}

// Init initializes the solver from the config. The rules engine and damage
// calculator must be safe for concurrent use.
func (s *Solver) Init(cfg *config.Config, d dex.Dex, rules engine.RulesEngine, damage engine.DamageCalculator) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.rules = rules
	s.outcomes = outcome.NewEnumerator(cfg, d, rules, damage)
	s.side = battle.Own
	s.plies = cfg.Plies
	s.SetThreads(cfg.Threads)
	s.SetNodeBudget(cfg.NodeBudget)
	return nil
}

func (s *Solver) SetThreads(threads int) {
	s.threads = max(1, threads)
}

func (s *Solver) SetPlies(plies int) {
	s.plies = max(0, plies)
}

// SetSide sets the side whose value is maximised.
func (s *Solver) SetSide(side battle.Side) {
	s.side = side
}

// SetNodeBudget caps the number of nodes a search may expand. Zero sizes
// the budget from the configured fraction of system memory.
func (s *Solver) SetNodeBudget(budget uint64) {
	if budget > 0 {
		s.budget = budget
		return
	}
	total := memory.TotalMemory()
	n := uint64(s.cfg.MemoryFraction * float64(total) / float64(max(1, s.cfg.ApproxNodeBytes)))
	if n == 0 {
		n = math.MaxUint64
	}
	log.Debug().Uint64("total-memory", total).Uint64("node-budget", n).Msg("node-budget-derived")
	s.budget = n
}

func (s *Solver) NodeBudget() uint64 {
	return s.budget
}

// exhausted reports whether the search must stop expanding nodes.
func (s *Solver) exhausted(ctx context.Context) bool {
	if ctx.Err() != nil || s.nodes.Load() >= s.budget {
		s.truncated.Store(true)
		return true
	}
	return false
}

// Solve searches pos for the side set by SetSide and returns the best
// action. pos is not modified. If the side has no viable action the result
// is the forfeit action with value -Inf and a nil error. While the other
// side must bring in a creature that has not been seen, the only action is
// to pass and the position is scored as it stands. Knowledge-base
// errors are returned with a zero Result.
func (s *Solver) Solve(ctx context.Context, pos *battle.Position) (Result, error) {
	tstart := time.Now()
	root := s.rules.Clone(pos)
	s.nodes.Store(0)
	s.truncated.Store(false)
	s.workers = semaphore.NewWeighted(int64(s.threads - 1))
	log.Debug().Int("plies", s.plies).Int("threads", s.threads).
		Uint64("budget", s.budget).Str("side", s.side.String()).Msg("search-config")

	legal := root.LegalActions(s.side)
	if len(legal) == 0 {
		return s.forfeit(), nil
	}
	plies := s.plies
	if plies == 0 || root.AwaitingReveal() {
		if len(legal) == 1 {
			v := reward.Evaluate(root, s.side)
			return Result{
				Action:  legal[0],
				Value:   v,
				Values:  []ActionValue{{legal[0], v}},
				Elapsed: time.Since(tstart),
			}, nil
		}
		plies = 1
	}

	g := &errgroup.Group{}
	done := make(chan bool)
	interval := s.cfg.ProgressInterval
	if interval <= 0 {
		interval = time.Second
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	var values []ActionValue
	g.Go(func() error {
		defer close(done)
		var err error
		values, err = s.actionValues(ctx, root, plies)
		return err
	})

	err := g.Wait()
	if err != nil {
		log.Err(err).Msg("search-failed")
		return Result{}, err
	}
	if len(values) == 0 {
		return s.forfeit(), nil
	}
	res := Result{
		Action:    values[0].Action,
		Value:     values[0].Value,
		Values:    values,
		Nodes:     s.nodes.Load(),
		Truncated: s.truncated.Load(),
		Elapsed:   time.Since(tstart),
	}
	log.Info().
		Str("action", res.Action.String()).
		Float64("value", res.Value).
		Uint64("nodes", res.Nodes).
		Bool("truncated", res.Truncated).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Msg("search-returning")
	return res, nil
}

func (s *Solver) forfeit() Result {
	log.Warn().Err(ErrNoLegalAction).Str("side", s.side.String()).Msg("search-exhausted")
	return Result{Action: battle.ForfeitAction, Value: math.Inf(-1)}
}

// value is the expected value of pos with depth plies left. Leaves, decided
// battles, nodes past the budget and forced switches into unseen slots are
// scored statically.
func (s *Solver) value(ctx context.Context, pos *battle.Position, depth int) (float64, error) {
	s.nodes.Add(1)
	if depth == 0 || pos.Over() || pos.AwaitingReveal() || s.exhausted(ctx) {
		return reward.Evaluate(pos, s.side), nil
	}
	values, err := s.actionValues(ctx, pos, depth)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return reward.Evaluate(pos, s.side), nil
	}
	return values[0].Value, nil
}

// actionValues scores every legal action of the searching side, best
// first. Ties keep legal-action order. Actions whose outcomes were all
// rejected are left out.
func (s *Solver) actionValues(ctx context.Context, pos *battle.Position, depth int) ([]ActionValue, error) {
	legal := pos.LegalActions(s.side)
	values := make([]ActionValue, 0, len(legal))
	for _, a := range legal {
		branches, err := s.outcomes.Expand(pos, s.side, a)
		if errors.Is(err, outcome.ErrNoBranches) {
			log.Debug().Err(err).Str("action", a.String()).Msg("action-dropped")
			continue
		} else if err != nil {
			return nil, err
		}
		branches = dedupe.Merge(branches, dedupe.Options{IgnoreHP: s.cfg.DedupeIgnoreHP})
		v, err := s.expectation(ctx, branches, depth)
		if err != nil {
			return nil, err
		}
		values = append(values, ActionValue{a, v})
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Value > values[j].Value
	})
	return values, nil
}

// expectation sums each branch's probability times its blended value: the
// discounted lookahead value plus the branch's immediate reward. Children
// run on their own goroutine while worker slots are free, and inline
// otherwise.
func (s *Solver) expectation(ctx context.Context, branches []outcome.Branch, depth int) (float64, error) {
	contrib := make([]float64, len(branches))
	g, gctx := errgroup.WithContext(ctx)
	var inlineErr error
	for i := range branches {
		b := &branches[i]
		eval := func() error {
			v, err := s.value(gctx, b.Position, depth-1)
			if err != nil {
				return err
			}
			contrib[i] = b.Prob * (s.cfg.LookaheadWeight*v + reward.Evaluate(b.Position, s.side))
			return nil
		}
		if depth > 1 && s.workers.TryAcquire(1) {
			g.Go(func() error {
				defer s.workers.Release(1)
				return eval()
			})
			continue
		}
		if inlineErr = eval(); inlineErr != nil {
			break
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if inlineErr != nil {
		return 0, inlineErr
	}
	return floats.Sum(contrib), nil
}
