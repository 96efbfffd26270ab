// Package community detects clusters in a substrate's knowledge graph
// by weighted label propagation, and scores a detected partition
// against a ground-truth labeling via normalized mutual information.
// Used to evaluate whether the self-organized Hebbian graph recovers
// topic structure that wasn't given to it directly. Grounded on
// phago-runtime/src/community.rs, including its adaptive edge-weight
// threshold and deterministic per-iteration node shuffle.
package community

import (
	"math"
	"sort"

	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/topology"
)

const (
	lcgMultiplier uint64 = 6364136223846793005
	lcgIncrement  uint64 = 1442695040888963407
)

// Community is one detected cluster.
type Community struct {
	ID      int
	Members []string
	Size    int
}

// Result is the outcome of one detect_communities run.
type Result struct {
	Communities    []Community
	Assignments    map[string]int // node label -> community id
	TotalNodes     int
	NumCommunities int
}

// Detect runs weighted label propagation for up to maxIterations
// rounds, converging early if a full pass changes no label. Only edges
// at or above an adaptively chosen weight threshold count during
// neighbor voting: dense graphs (density > 0.05) prune to the 90th
// percentile edge weight, sparse graphs to the 75th, so weak
// cross-topic edges don't blur community boundaries.
func Detect(sub *substrate.Substrate, maxIterations int) Result {
	graph := sub.Graph()
	nodeList := graph.AllNodes()
	if len(nodeList) == 0 {
		return Result{Assignments: map[string]int{}}
	}

	weightThreshold := adaptiveThreshold(sub, len(nodeList))

	labels := make(map[ids.NodeID]int, len(nodeList))
	for i, id := range nodeList {
		labels[id] = i
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		order := shuffledOrder(len(nodeList), uint64(iter))

		for _, idx := range order {
			nid := nodeList[idx]
			neighbors := graph.Neighbors(nid)
			if len(neighbors) == 0 {
				continue
			}

			labelWeights := make(map[int]float64)
			for _, nbr := range neighbors {
				if nbr.Edge.Weight < weightThreshold {
					continue
				}
				if label, ok := labels[nbr.ID]; ok {
					labelWeights[label] += nbr.Edge.Weight
				}
			}
			if len(labelWeights) == 0 {
				continue
			}

			best, bestWeight := labels[nid], -1.0
			bestLabels := make([]int, 0, len(labelWeights))
			for l := range labelWeights {
				bestLabels = append(bestLabels, l)
			}
			sort.Ints(bestLabels)
			for _, l := range bestLabels {
				if labelWeights[l] > bestWeight {
					best, bestWeight = l, labelWeights[l]
				}
			}

			if best != labels[nid] {
				labels[nid] = best
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return buildResult(graph, nodeList, labels)
}

func adaptiveThreshold(sub *substrate.Substrate, nodeCount int) float64 {
	edges := sub.Graph().AllEdges()
	if len(edges) == 0 {
		return 0
	}
	weights := make([]float64, len(edges))
	for i, e := range edges {
		weights[i] = e.Edge.Weight
	}
	sort.Float64s(weights)

	n := float64(nodeCount)
	density := 0.0
	if n > 1 {
		density = (2.0 * float64(len(edges))) / (n * (n - 1))
	}
	percentile := 75
	if density > 0.05 {
		percentile = 90
	}
	idx := len(weights) * percentile / 100
	if idx >= len(weights) {
		idx = len(weights) - 1
	}
	return weights[idx]
}

// shuffledOrder deterministically permutes [0,n) via Fisher-Yates. The
// seed is iter*multiplier+increment with the LCG constants the colony's
// genome mutation uses; each step then multiplies by the same multiplier
// and adds 1. Seeding from the iteration number means every run over the
// same graph state reproduces the same ordering.
func shuffledOrder(n int, iter uint64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	seed := iter*lcgMultiplier + lcgIncrement
	for i := n - 1; i > 0; i-- {
		seed = seed*lcgMultiplier + 1
		j := int((seed >> 33) % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func buildResult(graph *topology.Graph, nodeList []ids.NodeID, labels map[ids.NodeID]int) Result {
	members := make(map[int][]string)
	assignments := make(map[string]int, len(nodeList))

	for _, nid := range nodeList {
		label, ok := labels[nid]
		if !ok {
			continue
		}
		n, err := graph.GetNode(nid)
		if err != nil {
			continue
		}
		members[label] = append(members[label], n.Label)
		assignments[n.Label] = label
	}

	oldIDs := make([]int, 0, len(members))
	for id := range members {
		oldIDs = append(oldIDs, id)
	}
	sort.Ints(oldIDs)
	renumber := make(map[int]int, len(oldIDs))
	for i, old := range oldIDs {
		renumber[old] = i
	}

	communities := make([]Community, 0, len(members))
	for old, mem := range members {
		sort.Strings(mem)
		communities = append(communities, Community{ID: renumber[old], Members: mem, Size: len(mem)})
	}
	sort.Slice(communities, func(i, j int) bool {
		if communities[i].Size != communities[j].Size {
			return communities[i].Size > communities[j].Size
		}
		return communities[i].ID < communities[j].ID
	})

	for label, id := range assignments {
		assignments[label] = renumber[id]
	}

	return Result{
		Communities:    communities,
		Assignments:    assignments,
		TotalNodes:     len(nodeList),
		NumCommunities: len(communities),
	}
}

// NMI computes the normalized mutual information between a detected
// assignment (node label -> community id) and a ground-truth labeling
// (node label -> category name), in [0,1] where 1 is a perfect match.
func NMI(assignments map[string]int, groundTruth map[string]string) float64 {
	gtLabels := make(map[string]int)
	gtAssignments := make(map[string]int, len(groundTruth))
	next := 0
	for node, category := range groundTruth {
		id, ok := gtLabels[category]
		if !ok {
			id = next
			gtLabels[category] = id
			next++
		}
		gtAssignments[node] = id
	}

	var common []string
	for node := range assignments {
		if _, ok := gtAssignments[node]; ok {
			common = append(common, node)
		}
	}
	if len(common) == 0 {
		return 0
	}
	n := float64(len(common))

	detectedCounts := make(map[int]float64)
	gtCounts := make(map[int]float64)
	jointCounts := make(map[[2]int]float64)
	for _, node := range common {
		d := assignments[node]
		g := gtAssignments[node]
		detectedCounts[d]++
		gtCounts[g]++
		jointCounts[[2]int{d, g}]++
	}

	var mi float64
	for key, nij := range jointCounts {
		if nij <= 0 {
			continue
		}
		ni := detectedCounts[key[0]]
		nj := gtCounts[key[1]]
		mi += (nij / n) * math.Log((n*nij)/(ni*nj))
	}

	entropy := func(counts map[int]float64) float64 {
		var h float64
		for _, c := range counts {
			if c > 0 {
				h += -(c / n) * math.Log(c/n)
			}
		}
		return h
	}
	hDetected := entropy(detectedCounts)
	hGT := entropy(gtCounts)

	denom := hDetected + hGT
	if denom < 1e-10 {
		return 0
	}
	nmi := 2 * mi / denom
	if nmi < 0 {
		return 0
	}
	if nmi > 1 {
		return 1
	}
	return nmi
}
