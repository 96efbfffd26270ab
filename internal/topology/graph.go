// Package topology implements the persistent undirected weighted
// multigraph over concept/document/insight/anomaly nodes: weight dynamics
// (Hebbian wiring, decay, pruning) and structural queries (shortest path,
// betweenness, bridge nodes, connected components).
//
// Grounded on the teacher's internal/topology/graph.go (mutex-guarded
// map-of-structs, ID-keyed edge lookup, snapshot/stats idiom), reshaped
// from a directed agent-mesh into an undirected knowledge graph, plus the
// Dijkstra pattern from katalvlaran-lvlath/graph/dijkstra.go.
package topology

import (
	"container/heap"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/perrors"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// edgeKey canonicalizes an undirected pair so (a,b) and (b,a) hash the
// same way; from/to are interchangeable per the specification.
type edgeKey struct {
	A, B ids.NodeID
}

func canonical(a, b ids.NodeID) edgeKey {
	if a.String() <= b.String() {
		return edgeKey{A: a, B: b}
	}
	return edgeKey{A: b, B: a}
}

// Graph is the knowledge graph. All mutation happens during the Colony's
// Act/Decay/Lifecycle phases, which are guaranteed exclusive by the
// scheduler; the mutex exists as defensive API safety matching the
// teacher's style, not because the core is reentrant (see DESIGN.md).
type Graph struct {
	mu    sync.RWMutex
	nodes map[ids.NodeID]*substratetypes.NodeData
	edges map[edgeKey]*substratetypes.EdgeData
	adj   map[ids.NodeID]map[ids.NodeID]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[ids.NodeID]*substratetypes.NodeData),
		edges: make(map[edgeKey]*substratetypes.EdgeData),
		adj:   make(map[ids.NodeID]map[ids.NodeID]struct{}),
	}
}

// AddNode inserts a node and returns its id; a zero ID on the input is
// filled in. No label deduplication — callers must dedupe if desired.
func (g *Graph) AddNode(data substratetypes.NodeData) ids.NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if data.ID == (ids.NodeID{}) {
		data.ID = ids.NewNodeID()
	}
	cp := data
	g.nodes[data.ID] = &cp
	if _, ok := g.adj[data.ID]; !ok {
		g.adj[data.ID] = make(map[ids.NodeID]struct{})
	}
	return data.ID
}

// GetNode returns a copy of the node record, or an error if unknown.
func (g *Graph) GetNode(id ids.NodeID) (substratetypes.NodeData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return substratetypes.NodeData{}, perrors.NodeNotFoundErr(id.String())
	}
	return *n, nil
}

// TouchNode bumps access_count by one; used when Wire or a query touches
// a node.
func (g *Graph) TouchNode(id ids.NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[id]; ok {
		n.AccessCount++
	}
}

// MutateNode applies fn to the node's stored record under the write lock.
func (g *Graph) MutateNode(id ids.NodeID, fn func(*substratetypes.NodeData)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return perrors.NodeNotFoundErr(id.String())
	}
	fn(n)
	return nil
}

func clampWeight(w float64) float64 {
	if w <= 0 {
		return 0.0001
	}
	if w > 1 {
		return 1.0
	}
	return w
}

func (g *Graph) link(a, b ids.NodeID) {
	if g.adj[a] == nil {
		g.adj[a] = make(map[ids.NodeID]struct{})
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[ids.NodeID]struct{})
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

func (g *Graph) unlink(a, b ids.NodeID) {
	delete(g.adj[a], b)
	delete(g.adj[b], a)
}

// SetEdge is an idempotent upsert: subsequent calls overwrite the record.
// For Hebbian strengthening use ReinforcePair below.
func (g *Graph) SetEdge(from, to ids.NodeID, data substratetypes.EdgeData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[from]; !ok {
		return perrors.NodeNotFoundErr(from.String())
	}
	if _, ok := g.nodes[to]; !ok {
		return perrors.NodeNotFoundErr(to.String())
	}
	data.Weight = clampWeight(data.Weight)
	key := canonical(from, to)
	cp := data
	g.edges[key] = &cp
	g.link(from, to)
	return nil
}

// GetEdge looks up the edge between from and to; the two are interchangeable.
func (g *Graph) GetEdge(from, to ids.NodeID) (substratetypes.EdgeData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[canonical(from, to)]
	if !ok {
		return substratetypes.EdgeData{}, perrors.EdgeNotFoundErr(from.String(), to.String())
	}
	return *e, nil
}

// RemoveEdge removes the edge in both directions; a no-op if absent.
func (g *Graph) RemoveEdge(from, to ids.NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, canonical(from, to))
	g.unlink(from, to)
}

// Neighbor pairs a neighbor id with its edge data.
type Neighbor struct {
	ID   ids.NodeID
	Edge substratetypes.EdgeData
}

// Neighbors lists nodes directly connected to id, sorted by id string so
// the order is deterministic for a given graph state.
func (g *Graph) Neighbors(id ids.NodeID) []Neighbor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Neighbor, 0, len(g.adj[id]))
	for nbr := range g.adj[id] {
		if e, ok := g.edges[canonical(id, nbr)]; ok {
			out = append(out, Neighbor{ID: nbr, Edge: *e})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// AllNodes returns every node id, sorted for deterministic enumeration.
func (g *Graph) AllNodes() []ids.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ids.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// EdgeEntry names the endpoints alongside the edge record.
type EdgeEntry struct {
	From, To ids.NodeID
	Edge     substratetypes.EdgeData
}

// AllEdges enumerates every undirected edge exactly once, sorted for
// determinism.
func (g *Graph) AllEdges() []EdgeEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]EdgeEntry, 0, len(g.edges))
	for k, e := range g.edges {
		out = append(out, EdgeEntry{From: k.A, To: k.B, Edge: *e})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From.String() != out[j].From.String() {
			return out[i].From.String() < out[j].From.String()
		}
		return out[i].To.String() < out[j].To.String()
	})
	return out
}

// NodeCount and EdgeCount report graph size.
func (g *Graph) NodeCount() int { g.mu.RLock(); defer g.mu.RUnlock(); return len(g.nodes) }
func (g *Graph) EdgeCount() int { g.mu.RLock(); defer g.mu.RUnlock(); return len(g.edges) }

// FindNodesByLabel returns nodes whose label contains substr.
func (g *Graph) FindNodesByLabel(substr string) []ids.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []ids.NodeID
	for id, n := range g.nodes {
		if strings.Contains(n.Label, substr) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// FindNodesByExactLabel returns every node whose label matches exactly
// (labels may repeat across nodes).
func (g *Graph) FindNodesByExactLabel(label string) []ids.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []ids.NodeID
	for id, n := range g.nodes {
		if n.Label == label {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ReinforcePair applies the Hebbian rule to a single unordered pair:
// create at tentativeWeight if absent, otherwise add reinforcementBoost
// capped at 1.0 and bump co_activations. Updates last_activated_tick on
// the edge and access_count on both endpoints.
func (g *Graph) ReinforcePair(a, b ids.NodeID, tentativeWeight, reinforcementBoost float64, now substratetypes.Tick) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[a]; !ok {
		return perrors.NodeNotFoundErr(a.String())
	}
	if _, ok := g.nodes[b]; !ok {
		return perrors.NodeNotFoundErr(b.String())
	}
	key := canonical(a, b)
	e, ok := g.edges[key]
	if !ok {
		e = &substratetypes.EdgeData{
			Weight:            clampWeight(tentativeWeight),
			CoActivations:     1,
			CreatedTick:       now,
			LastActivatedTick: now,
		}
		g.edges[key] = e
		g.link(a, b)
	} else {
		e.Weight = clampWeight(e.Weight + reinforcementBoost)
		e.CoActivations++
		e.LastActivatedTick = now
	}
	g.nodes[a].AccessCount++
	g.nodes[b].AccessCount++
	return nil
}

// activityFactor increases with staleness (ticks since last activation)
// and decreases with accumulated co-activations: a heavily reinforced
// edge decays slowly, a stale single-touch edge decays fast.
func activityFactor(staleness float64, coActivations uint64, stalenessFactor float64) float64 {
	base := 1.0 + stalenessFactor*math.Log1p(staleness)
	return base / (1.0 + math.Log1p(float64(coActivations)))
}

// DecayEdges multiplies every mature edge's weight by (1 - rate *
// activityFactor), then removes edges below pruneThreshold. Edges younger
// than maturationTicks are exempt. Returns the pruned edges for audit.
func (g *Graph) DecayEdges(rate, pruneThreshold, stalenessFactor float64, maturationTicks uint64, now substratetypes.Tick) []substratetypes.PrunedConnection {
	g.mu.Lock()
	defer g.mu.Unlock()

	var pruned []substratetypes.PrunedConnection
	for key, e := range g.edges {
		age := now - e.CreatedTick
		if age < maturationTicks {
			continue
		}
		staleness := float64(now - e.LastActivatedTick)
		factor := activityFactor(staleness, e.CoActivations, stalenessFactor)
		e.Weight = clampWeight(e.Weight * (1 - rate*factor))
		if e.Weight < pruneThreshold {
			pruned = append(pruned, substratetypes.PrunedConnection{From: key.A, To: key.B, Edge: *e})
			delete(g.edges, key)
			g.unlink(key.A, key.B)
		}
	}
	sort.Slice(pruned, func(i, j int) bool {
		if pruned[i].From.String() != pruned[j].From.String() {
			return pruned[i].From.String() < pruned[j].From.String()
		}
		return pruned[i].To.String() < pruned[j].To.String()
	})
	return pruned
}

// PruneToMaxDegree drops the weakest excess edges of any node whose degree
// exceeds cap, ties broken by lowest last_activated_tick then
// lexicographically by neighbor id.
func (g *Graph) PruneToMaxDegree(cap int) []substratetypes.PrunedConnection {
	g.mu.Lock()
	defer g.mu.Unlock()

	var pruned []substratetypes.PrunedConnection
	nodeIDs := make([]ids.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i].String() < nodeIDs[j].String() })

	for _, id := range nodeIDs {
		neighbors := g.adj[id]
		if len(neighbors) <= cap {
			continue
		}
		type cand struct {
			nbr  ids.NodeID
			edge *substratetypes.EdgeData
		}
		cands := make([]cand, 0, len(neighbors))
		for nbr := range neighbors {
			if e, ok := g.edges[canonical(id, nbr)]; ok {
				cands = append(cands, cand{nbr: nbr, edge: e})
			}
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].edge.Weight != cands[j].edge.Weight {
				return cands[i].edge.Weight < cands[j].edge.Weight
			}
			if cands[i].edge.LastActivatedTick != cands[j].edge.LastActivatedTick {
				return cands[i].edge.LastActivatedTick < cands[j].edge.LastActivatedTick
			}
			return cands[i].nbr.String() < cands[j].nbr.String()
		})
		excess := len(cands) - cap
		for i := 0; i < excess; i++ {
			key := canonical(id, cands[i].nbr)
			if e, ok := g.edges[key]; ok {
				pruned = append(pruned, substratetypes.PrunedConnection{From: key.A, To: key.B, Edge: *e})
				delete(g.edges, key)
				g.unlink(key.A, key.B)
			}
		}
	}
	return pruned
}

// --- Structural queries ---

type nodeItem struct {
	id       ids.NodeID
	priority float64
}

type nodePQ []nodeItem

func (pq nodePQ) Len() int           { return len(pq) }
func (pq nodePQ) Less(i, j int) bool { return pq[i].priority < pq[j].priority }
func (pq nodePQ) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) {
	*pq = append(*pq, x.(nodeItem))
}
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

func edgeCost(weight float64) float64 {
	const floor = 1e-4
	cost := 1.0 - weight
	if cost < floor {
		return floor
	}
	return cost
}

// ShortestPath runs Dijkstra over the inverse-weight metric (cost = 1 -
// weight, floored so near-1.0 weights don't produce zero-cost shortcuts),
// returning the node path and its total cost. Grounded on
// katalvlaran-lvlath/graph/dijkstra.go's heap.Interface idiom.
func (g *Graph) ShortestPath(from, to ids.NodeID) ([]ids.NodeID, float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[from]; !ok {
		return nil, 0, false
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, 0, false
	}

	dist := map[ids.NodeID]float64{from: 0}
	prev := map[ids.NodeID]ids.NodeID{}
	visited := map[ids.NodeID]bool{}

	pq := &nodePQ{{id: from, priority: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		if cur.id == to {
			break
		}
		for nbr := range g.adj[cur.id] {
			e, ok := g.edges[canonical(cur.id, nbr)]
			if !ok {
				continue
			}
			nd := dist[cur.id] + edgeCost(e.Weight)
			if existing, ok := dist[nbr]; !ok || nd < existing {
				dist[nbr] = nd
				prev[nbr] = cur.id
				heap.Push(pq, nodeItem{id: nbr, priority: nd})
			}
		}
	}

	total, ok := dist[to]
	if !ok {
		return nil, 0, false
	}
	path := []ids.NodeID{to}
	for cur := to; cur != from; {
		p, ok := prev[cur]
		if !ok {
			return nil, 0, false
		}
		path = append(path, p)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, total, true
}

// CentralityScore pairs a node with its approximate betweenness.
type CentralityScore struct {
	ID    ids.NodeID
	Score float64
}

// BetweennessCentrality approximates betweenness with Brandes' algorithm
// run from a bounded sample of source nodes rather than every node,
// returning scores sorted descending with ties broken by node id.
func (g *Graph) BetweennessCentrality(sampleSize int) []CentralityScore {
	g.mu.RLock()
	defer g.mu.RUnlock()

	allNodes := make([]ids.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		allNodes = append(allNodes, id)
	}
	sort.Slice(allNodes, func(i, j int) bool { return allNodes[i].String() < allNodes[j].String() })

	if sampleSize <= 0 || sampleSize > len(allNodes) {
		sampleSize = len(allNodes)
	}
	sources := allNodes[:sampleSize]

	scores := make(map[ids.NodeID]float64, len(allNodes))
	for _, id := range allNodes {
		scores[id] = 0
	}
	for _, s := range sources {
		g.brandesFrom(s, scores)
	}

	out := make([]CentralityScore, 0, len(allNodes))
	for _, id := range allNodes {
		out = append(out, CentralityScore{ID: id, Score: scores[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// brandesFrom accumulates a single-source pass of Brandes' algorithm into
// scores, using edge weight as connection strength: stronger edges count
// as shorter hops, mirroring ShortestPath's inverse-weight metric.
func (g *Graph) brandesFrom(s ids.NodeID, scores map[ids.NodeID]float64) {
	sigma := map[ids.NodeID]float64{s: 1}
	dist := map[ids.NodeID]float64{s: 0}
	var order []ids.NodeID
	preds := map[ids.NodeID][]ids.NodeID{}

	pq := &nodePQ{{id: s, priority: 0}}
	heap.Init(pq)
	visited := map[ids.NodeID]bool{}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		order = append(order, cur.id)
		for nbr := range g.adj[cur.id] {
			e, ok := g.edges[canonical(cur.id, nbr)]
			if !ok {
				continue
			}
			nd := dist[cur.id] + edgeCost(e.Weight)
			if d, ok := dist[nbr]; !ok || nd < d-1e-12 {
				dist[nbr] = nd
				sigma[nbr] = sigma[cur.id]
				preds[nbr] = []ids.NodeID{cur.id}
				heap.Push(pq, nodeItem{id: nbr, priority: nd})
			} else if ok && math.Abs(nd-d) < 1e-12 {
				sigma[nbr] += sigma[cur.id]
				preds[nbr] = append(preds[nbr], cur.id)
			}
		}
	}

	delta := map[ids.NodeID]float64{}
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range preds[w] {
			if sigma[w] == 0 {
				continue
			}
			delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
		}
		if w != s {
			scores[w] += delta[w]
		}
	}
}

// BridgeNodes approximates the k nodes whose removal would most fragment
// the graph, scoring each candidate by how many of its neighbor pairs have
// no direct edge to each other (those pairs rely on the candidate as
// their local bridge), weighted by the product of the two incident edge
// weights. Ties broken lexicographically by node id.
func (g *Graph) BridgeNodes(k int) []ids.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	type scored struct {
		id    ids.NodeID
		score float64
	}
	var all []scored
	for id, neighbors := range g.adj {
		if len(neighbors) < 2 {
			continue
		}
		all = append(all, scored{id: id, score: g.localFragility(id, neighbors)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id.String() < all[j].id.String()
	})
	if k > len(all) {
		k = len(all)
	}
	out := make([]ids.NodeID, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, all[i].id)
	}
	return out
}

func (g *Graph) localFragility(id ids.NodeID, neighbors map[ids.NodeID]struct{}) float64 {
	nbrList := make([]ids.NodeID, 0, len(neighbors))
	for n := range neighbors {
		nbrList = append(nbrList, n)
	}
	sort.Slice(nbrList, func(i, j int) bool { return nbrList[i].String() < nbrList[j].String() })

	var fragility float64
	for i := 0; i < len(nbrList); i++ {
		for j := i + 1; j < len(nbrList); j++ {
			a, b := nbrList[i], nbrList[j]
			if _, directlyConnected := g.adj[a][b]; directlyConnected {
				continue
			}
			ea := g.edges[canonical(id, a)]
			eb := g.edges[canonical(id, b)]
			if ea == nil || eb == nil {
				continue
			}
			fragility += ea.Weight * eb.Weight
		}
	}
	return fragility
}

// ConnectedComponents counts weakly connected components via union-find
// over the edge list.
func (g *Graph) ConnectedComponents() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	parent := make(map[ids.NodeID]ids.NodeID, len(g.nodes))
	for id := range g.nodes {
		parent[id] = id
	}
	var find func(ids.NodeID) ids.NodeID
	find = func(x ids.NodeID) ids.NodeID {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b ids.NodeID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for key := range g.edges {
		union(key.A, key.B)
	}
	roots := make(map[ids.NodeID]struct{})
	for id := range g.nodes {
		roots[find(id)] = struct{}{}
	}
	return len(roots)
}
