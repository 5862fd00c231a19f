package contractor

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"osmch/pkg/format"
)

// initialHopLimit bounds the witness search's settled-node count in
// the first rounds; it decays as contraction progresses since the
// remaining graph gets sparser and shortcuts get longer anyway.
const initialHopLimit = 5

// Result is the output of Contract: the final contracted edge set,
// per-node contraction level (-1 for nodes left in the core), and a
// bitmap marking which nodes are core (never contracted).
type Result struct {
	Edges  []ContractedEdge
	Levels []int32
	Core   []bool
}

// Contract runs parallel contraction-hierarchy construction over the
// edge-based graph until the live node count falls to (1-coreFactor) of
// the original — coreFactor=1.0 contracts everything, coreFactor=0.0
// contracts nothing — or no node can be safely contracted this round.
//
// Each round: recompute priorities for all live nodes (parallel),
// pick an independent set of locally-minimal-priority nodes, simulate
// and recheck each candidate's shortcuts in parallel, then commit
// sequentially (shortcut insertion and neighbor bookkeeping mutate
// shared state and stay cheap relative to simulation).
func Contract(log *zap.Logger, nodeCount int, edges []format.EdgeBasedEdge, coreFactor float64, workers int) Result {
	return contract(log, nodeCount, edges, coreFactor, workers, nil)
}

// ContractCached runs the same construction but never recomputes the
// node-importance heuristic: cachedPriority (typically a previous
// run's `.level` file) dictates contraction order outright, matching
// --use-cached-priority's "read an existing node-levels file instead
// of recomputing" contract. The shortcut set is still built fresh —
// only the order nodes get offered for contraction is frozen.
func ContractCached(log *zap.Logger, nodeCount int, edges []format.EdgeBasedEdge, coreFactor float64, workers int, cachedPriority []int32) Result {
	seed := make([]float64, nodeCount)
	for i, lvl := range cachedPriority {
		seed[i] = float64(lvl)
	}
	return contract(log, nodeCount, edges, coreFactor, workers, seed)
}

func contract(log *zap.Logger, nodeCount int, edges []format.EdgeBasedEdge, coreFactor float64, workers int, frozenPriority []float64) Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g := NewGraph(nodeCount, edges)
	live := make([]bool, nodeCount)
	for i := range live {
		live[i] = true
	}
	liveCount := nodeCount
	coreTarget := int((1.0 - coreFactor) * float64(nodeCount))
	hopLimit := initialHopLimit
	frozen := frozenPriority != nil

	priorities := make([]float64, nodeCount)
	if frozen {
		copy(priorities, frozenPriority)
	} else {
		recomputeAll(g, live, priorities, hopLimit, workers)
	}

	round := int32(0)
	for liveCount > coreTarget {
		selected := independentSet(g, live, priorities)
		if len(selected) == 0 {
			log.Warn("contraction stalled: no independent candidate", zap.Int("liveRemaining", liveCount))
			break
		}

		rechecked := make([]bool, len(selected))
		fresh := make([][]shortcut, len(selected))
		sem := semaphore.NewWeighted(int64(workers))
		eg, ctx := errgroup.WithContext(context.Background())
		for i, v := range selected {
			i, v := i, v
			eg.Go(func() error {
				if err := sem.Acquire(ctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
				p, sc := priority(g, v, hopLimit)
				fresh[i] = sc
				rechecked[i] = frozen || p <= priorities[v]
				return nil
			})
		}
		_ = eg.Wait()

		contractedThisRound := 0
		for i, v := range selected {
			if !rechecked[i] {
				continue
			}
			commit(g, v, fresh[i], round)
			live[v] = false
			liveCount--
			contractedThisRound++
			if liveCount <= coreTarget {
				break
			}
		}
		log.Info("contraction round complete",
			zap.Int32("round", round),
			zap.Int("contracted", contractedThisRound),
			zap.Int("liveRemaining", liveCount),
		)
		if contractedThisRound == 0 {
			break
		}

		if !frozen {
			recomputeAll(g, live, priorities, hopLimit, workers)
		}
		round++
		if hopLimit > 2 {
			hopLimit--
		}
	}

	edgesOut := mergeBidirectional(g.finalEdges())
	core := make([]bool, nodeCount)
	for v := 0; v < nodeCount; v++ {
		core[v] = live[v]
	}
	return Result{Edges: edgesOut, Levels: g.level, Core: core}
}

// recomputeAll recomputes every live node's priority in parallel.
func recomputeAll(g *Graph, live []bool, priorities []float64, hopLimit, workers int) {
	sem := semaphore.NewWeighted(int64(workers))
	eg, ctx := errgroup.WithContext(context.Background())
	for v := range live {
		if !live[v] {
			continue
		}
		v := uint32(v)
		eg.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			p, _ := priority(g, v, hopLimit)
			priorities[v] = p
			return nil
		})
	}
	_ = eg.Wait()
}

// independentSet picks every live node that is strictly better
// (lower priority, ties broken by node id) than all of its live
// two-hop neighbors, so no two selected nodes ever share an edge.
func independentSet(g *Graph, live []bool, priorities []float64) []uint32 {
	var selected []uint32
	for v := range live {
		if !live[v] {
			continue
		}
		v := uint32(v)
		isLocalMin := true
		for _, w := range g.twoHopNeighborhood(v) {
			if !live[w] {
				continue
			}
			if better(priorities[w], w, priorities[v], v) {
				isLocalMin = false
				break
			}
		}
		if isLocalMin {
			selected = append(selected, v)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
	return selected
}

// better reports whether (priorityA, idA) sorts before (priorityB, idB).
func better(priorityA float64, idA uint32, priorityB float64, idB uint32) bool {
	if priorityA != priorityB {
		return priorityA < priorityB
	}
	return idA < idB
}

// commit applies v's shortcuts to the graph and marks v contracted.
func commit(g *Graph, v uint32, shortcuts []shortcut, round int32) {
	for _, sc := range shortcuts {
		g.addShortcut(sc.from, sc.to, sc.weight, sc.hops, v)
	}
	g.contracted[v] = true
	g.level[v] = round
	for _, w := range g.neighbors(v) {
		if g.depth[v]+1 > g.depth[w] {
			g.depth[w] = g.depth[v] + 1
		}
	}
}
