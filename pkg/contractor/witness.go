package contractor

import "osmch/pkg/datastructure"

// hasWitness runs a bounded forward Dijkstra from "from", ignoring the
// node currently being contracted, and reports whether some path to
// "to" no longer than acceptedWeight exists without it. A witness
// means the shortcut from->to is redundant. The search is pruned both
// by cost (never explores past acceptedWeight) and by a hop budget on
// the number of settled nodes, mirroring the original single-threaded
// witness search but capped so many of these can run concurrently.
func hasWitness(g *Graph, from, to, ignore uint32, acceptedWeight int32, hopLimit int) bool {
	if from == to {
		return true
	}
	dist := map[uint32]int32{from: 0}
	pq := datastructure.NewFibonacciHeap[uint32]()
	entries := map[uint32]*datastructure.Entry[uint32]{}
	entries[from] = pq.Insert(from, 0)

	settled := 0
	for pq.Size() > 0 {
		top := pq.ExtractMin()
		u := top.GetElem()
		d := int32(top.GetPriority())
		if d > dist[u] {
			continue
		}
		if u == to {
			return true
		}
		settled++
		if settled > hopLimit {
			return false
		}
		if d > acceptedWeight {
			return false
		}
		for _, e := range g.out[u] {
			v := e.target
			if v == ignore || g.contracted[v] {
				continue
			}
			nd := d + e.weight
			if nd > acceptedWeight {
				continue
			}
			old, seen := dist[v]
			if !seen || nd < old {
				dist[v] = nd
				if entry, ok := entries[v]; ok {
					if float64(nd) < entry.GetPriority() {
						pq.DecreaseKey(entry, float64(nd))
					}
				} else {
					entries[v] = pq.Insert(v, float64(nd))
				}
			}
		}
	}
	return false
}
