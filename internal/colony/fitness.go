package colony

import "github.com/phagocyte/substrate/internal/ids"

// fitnessSample is the raw tally a FitnessTracker accumulates per agent
// between spawn-policy evaluations.
type fitnessSample struct {
	outputs      uint64 // useful outputs produced (productivity)
	novelTerms   int    // presented labels no graph node carried yet (novelty)
	rejections   uint64 // capability transfers rejected as incompatible (quality, inverted)
	transfers    uint64 // capability transfers attempted (quality denominator)
	connectivity float64
}

// FitnessTracker accumulates the inputs to the spawn policy's fitness
// formula: 0.3*productivity + 0.3*novelty + 0.2*quality + 0.2*connectivity,
// each normalized into [0,1] before weighting.
type FitnessTracker struct {
	samples map[ids.AgentID]*fitnessSample
}

// NewFitnessTracker creates an empty tracker.
func NewFitnessTracker() *FitnessTracker {
	return &FitnessTracker{samples: make(map[ids.AgentID]*fitnessSample)}
}

func (f *FitnessTracker) sample(id ids.AgentID) *fitnessSample {
	s, ok := f.samples[id]
	if !ok {
		s = &fitnessSample{}
		f.samples[id] = s
	}
	return s
}

// RecordOutput tallies one useful output and how many of its labels were
// new to the graph.
func (f *FitnessTracker) RecordOutput(id ids.AgentID, novelLabels int) {
	s := f.sample(id)
	s.outputs++
	s.novelTerms += novelLabels
}

// RecordTransfer tallies one capability-transfer attempt and whether it
// was rejected.
func (f *FitnessTracker) RecordTransfer(id ids.AgentID, rejected bool) {
	s := f.sample(id)
	s.transfers++
	if rejected {
		s.rejections++
	}
}

// SetConnectivity records the agent's current structural contribution
// (e.g. the degree of nodes it has touched), already normalized to
// [0,1] by the caller.
func (f *FitnessTracker) SetConnectivity(id ids.AgentID, normalized float64) {
	f.sample(id).connectivity = normalized
}

// Score computes the weighted fitness formula. Productivity and novelty
// are squashed with a simple saturating curve (x/(x+k)) since raw counts
// are unbounded; quality is the transfer acceptance rate.
func (f *FitnessTracker) Score(id ids.AgentID) float64 {
	s, ok := f.samples[id]
	if !ok {
		return 0
	}
	productivity := saturate(float64(s.outputs), 10)
	novelty := saturate(float64(s.novelTerms), 20)
	quality := 1.0
	if s.transfers > 0 {
		quality = 1.0 - float64(s.rejections)/float64(s.transfers)
	}
	return 0.3*productivity + 0.3*novelty + 0.2*quality + 0.2*s.connectivity
}

func saturate(x, k float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (x + k)
}
