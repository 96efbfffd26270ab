// Package query implements the hybrid TF-IDF + graph-structural
// retrieval engine: lexical scoring over node labels blended with
// structural scoring over edge weight, co-activation, degree, and access
// frequency, with an optional reinforcement pass that strengthens the
// paths a query actually traverses. Grounded on phago-rag/src/hybrid.rs's
// scoring formula and on the teacher's internal/topology package for the
// shortest-path/centrality structural queries this package thinly wraps.
package query

import (
	"math"
	"sort"

	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/perrors"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
	"github.com/phagocyte/substrate/internal/tokenize"
)

// Config tunes one hybrid_query call; the zero value is invalid. This
// package has no default constructor: callers supply values bounded to
// the same ranges internal/config validates (e.g. config.Default's
// Hybrid* fields).
type Config struct {
	Alpha               float64 // weight on tfidf_norm vs graph_score, in [0,1]
	MaxResults          int
	CandidateMultiplier int
}

// Result is one scored candidate, with every sub-score the specification
// documents plus the node id so a caller (Colony, session export) can
// chain further graph operations without a second label lookup.
type Result struct {
	Label      string
	NodeID     ids.NodeID
	TFIDFScore float64
	GraphScore float64
	FinalScore float64
}

// Engine answers hybrid and structural queries against a substrate's
// knowledge graph.
type Engine struct {
	sub *substrate.Substrate
}

// New constructs an Engine over the given substrate.
func New(sub *substrate.Substrate) *Engine {
	return &Engine{sub: sub}
}

// Hybrid runs the eight-step algorithm without reinforcement.
func (e *Engine) Hybrid(queryText string, cfg Config) ([]Result, error) {
	return e.run(queryText, cfg, 0)
}

// HybridReinforce runs the same algorithm, then strengthens by delta
// every edge on the shortest path from whichever seed is cheapest to
// reach each returned result, bumping that edge's last_activated_tick to
// the substrate's current tick — the mechanism by which the index learns
// from being queried.
func (e *Engine) HybridReinforce(queryText string, cfg Config, delta float64) ([]Result, error) {
	return e.run(queryText, cfg, delta)
}

func (e *Engine) run(queryText string, cfg Config, reinforceDelta float64) ([]Result, error) {
	queryTokens := tokenize.Tokens(queryText)
	if len(queryTokens) == 0 {
		return nil, perrors.EmptyQueryErr()
	}
	if cfg.MaxResults <= 0 || cfg.CandidateMultiplier <= 0 {
		return nil, perrors.InvalidQueryParamsErr("max_results and candidate_multiplier must be positive")
	}

	graph := e.sub.Graph()
	allNodes := graph.AllNodes()
	if len(allNodes) == 0 {
		return nil, nil
	}

	queryTokenSet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		queryTokenSet[t] = struct{}{}
	}

	type nodeInfo struct {
		id     ids.NodeID
		label  string
		tokens []string
	}
	infos := make([]nodeInfo, 0, len(allNodes))
	df := make(map[string]int, len(queryTokens))
	for _, id := range allNodes {
		n, err := graph.GetNode(id)
		if err != nil {
			continue
		}
		toks := tokenize.Tokens(n.Label)
		infos = append(infos, nodeInfo{id: id, label: n.Label, tokens: toks})
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			seen[t] = struct{}{}
		}
		for q := range queryTokenSet {
			if _, ok := seen[q]; ok {
				df[q]++
			}
		}
	}
	totalNodes := float64(len(infos))

	type scored struct {
		info nodeInfo
		raw  float64
	}
	rawScores := make([]scored, 0, len(infos))
	for _, info := range infos {
		var raw float64
		tf := make(map[string]int, len(info.tokens))
		for _, t := range info.tokens {
			tf[t]++
		}
		for _, q := range queryTokens {
			d := df[q]
			if d == 0 {
				continue
			}
			raw += float64(tf[q]) * (math.Log(totalNodes/float64(d)) + 1)
		}
		if _, exact := queryTokenSet[info.label]; exact {
			raw += 10
		}
		if raw > 0 {
			rawScores = append(rawScores, scored{info: info, raw: raw})
		}
	}
	if len(rawScores) == 0 {
		return nil, nil
	}

	sort.Slice(rawScores, func(i, j int) bool {
		if rawScores[i].raw != rawScores[j].raw {
			return rawScores[i].raw > rawScores[j].raw
		}
		return rawScores[i].info.id.String() < rawScores[j].info.id.String()
	})

	poolSize := cfg.CandidateMultiplier * cfg.MaxResults
	if poolSize > len(rawScores) {
		poolSize = len(rawScores)
	}
	candidates := rawScores[:poolSize]

	maxRaw := candidates[0].raw
	if maxRaw <= 0 {
		maxRaw = 1
	}

	// Seed nodes: every node (not just the candidate pool) whose exact
	// label matches a query token.
	seedSet := make(map[ids.NodeID]struct{})
	for token := range queryTokenSet {
		for _, id := range graph.FindNodesByExactLabel(token) {
			seedSet[id] = struct{}{}
		}
	}
	seeds := make([]ids.NodeID, 0, len(seedSet))
	for id := range seedSet {
		seeds = append(seeds, id)
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		tfidfNorm := c.raw / maxRaw
		graphScore := e.graphScore(c.info.id, seeds)
		final := cfg.Alpha*tfidfNorm + (1-cfg.Alpha)*graphScore
		results = append(results, Result{
			Label:      c.info.label,
			NodeID:     c.info.id,
			TFIDFScore: tfidfNorm,
			GraphScore: graphScore,
			FinalScore: final,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].Label < results[j].Label
	})
	if len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}

	if reinforceDelta > 0 {
		tick := e.sub.CurrentTick()
		for _, r := range results {
			e.reinforcePath(seeds, r.NodeID, reinforceDelta, tick)
		}
	}
	return results, nil
}

// graphScore computes the weighted structural score against the seed
// set, capped at 1.0 per the specification.
func (e *Engine) graphScore(candidate ids.NodeID, seeds []ids.NodeID) float64 {
	graph := e.sub.Graph()

	var maxWeight float64
	var totalCoActivations uint64
	for _, seed := range seeds {
		if seed == candidate {
			continue
		}
		edge, err := graph.GetEdge(candidate, seed)
		if err != nil {
			continue
		}
		if edge.Weight > maxWeight {
			maxWeight = edge.Weight
		}
		totalCoActivations += edge.CoActivations
	}

	node, err := graph.GetNode(candidate)
	if err != nil {
		return 0
	}
	degree := len(graph.Neighbors(candidate))

	score := 0.4*maxWeight +
		0.1*math.Log1p(float64(totalCoActivations)) +
		0.2*math.Min(1, math.Log1p(float64(degree))/5) +
		0.3*math.Min(1, math.Log1p(float64(node.AccessCount))/5)
	if score > 1 {
		score = 1
	}
	return score
}

// reinforcePath finds whichever seed is cheapest to reach the target and
// strengthens every edge on that path by delta.
func (e *Engine) reinforcePath(seeds []ids.NodeID, target ids.NodeID, delta float64, tick substratetypes.Tick) {
	graph := e.sub.Graph()

	var bestPath []ids.NodeID
	bestCost := math.Inf(1)
	for _, seed := range seeds {
		if seed == target {
			continue
		}
		path, cost, ok := graph.ShortestPath(seed, target)
		if ok && cost < bestCost {
			bestPath, bestCost = path, cost
		}
	}
	for i := 0; i+1 < len(bestPath); i++ {
		a, b := bestPath[i], bestPath[i+1]
		edge, err := graph.GetEdge(a, b)
		if err != nil {
			continue
		}
		edge.Weight += delta
		edge.LastActivatedTick = tick
		_ = graph.SetEdge(a, b, edge)
	}
}

// --- Structural queries, thin wraps over topology.Graph ---

// ShortestPathByLabel resolves both labels to their first (lexicographically
// smallest id) matching node and runs Dijkstra between them, returning
// the label path.
func (e *Engine) ShortestPathByLabel(labelA, labelB string) ([]string, float64, error) {
	graph := e.sub.Graph()
	a, err := e.resolveLabel(labelA)
	if err != nil {
		return nil, 0, err
	}
	b, err := e.resolveLabel(labelB)
	if err != nil {
		return nil, 0, err
	}
	path, cost, ok := graph.ShortestPath(a, b)
	if !ok {
		return nil, 0, perrors.QueryNoResultsErr()
	}
	labels := make([]string, 0, len(path))
	for _, id := range path {
		n, err := graph.GetNode(id)
		if err != nil {
			continue
		}
		labels = append(labels, n.Label)
	}
	return labels, cost, nil
}

func (e *Engine) resolveLabel(label string) (ids.NodeID, error) {
	matches := e.sub.Graph().FindNodesByExactLabel(label)
	if len(matches) == 0 {
		return ids.NodeID{}, perrors.NodeNotFoundErr(label)
	}
	return matches[0], nil
}

// CentralityResult pairs a label with its approximate betweenness.
type CentralityResult struct {
	Label string
	Score float64
}

// BetweennessCentrality returns the top-scoring nodes by approximate
// betweenness, labeled for external consumption.
func (e *Engine) BetweennessCentrality(sampleSize, k int) []CentralityResult {
	scores := e.sub.Graph().BetweennessCentrality(sampleSize)
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]CentralityResult, 0, k)
	for i := 0; i < k; i++ {
		n, err := e.sub.Graph().GetNode(scores[i].ID)
		if err != nil {
			continue
		}
		out = append(out, CentralityResult{Label: n.Label, Score: scores[i].Score})
	}
	return out
}

// BridgeNodes returns the labels of the k most fragility-critical nodes.
func (e *Engine) BridgeNodes(k int) []string {
	nodeIDs := e.sub.Graph().BridgeNodes(k)
	out := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		n, err := e.sub.Graph().GetNode(id)
		if err != nil {
			continue
		}
		out = append(out, n.Label)
	}
	return out
}

// ConnectedComponents reports how many weakly connected components the
// graph currently has.
func (e *Engine) ConnectedComponents() int {
	return e.sub.Graph().ConnectedComponents()
}
