// Package substrate is the shared environment every agent perceives and
// acts on: the knowledge graph, the signal field agents emit and sense,
// the trace map agents deposit into and read from, the document pool
// awaiting digestion, and the single monotonic tick counter. Grounded on
// phago-runtime/src/substrate_impl.rs's concrete storage choices: a flat
// slice for signals (filtered by linear scan, since the signal count per
// tick is small and a spatial index would be premature), and a trace map
// keyed by SubstrateLocation.Key() so spatial and graph-node deposits
// never collide.
package substrate

import (
	"sync"

	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/perrors"
	"github.com/phagocyte/substrate/internal/substratetypes"
	"github.com/phagocyte/substrate/internal/topology"
)

// Substrate bundles the graph with the signal/trace/document stores and
// the tick clock. All mutation is expected to happen from the Colony's
// tick loop; the mutex exists for the same defensive reason as in
// internal/topology.
type Substrate struct {
	mu sync.RWMutex

	graph *topology.Graph

	signals []substratetypes.Signal
	traces  map[any][]substratetypes.Trace

	documents map[ids.DocumentID]*substratetypes.Document
	docOrder  []ids.DocumentID // first-seen order, for deterministic undigested iteration

	tick substratetypes.Tick
}

// New creates an empty substrate wrapping a fresh graph.
func New() *Substrate {
	return &Substrate{
		graph:     topology.New(),
		traces:    make(map[any][]substratetypes.Trace),
		documents: make(map[ids.DocumentID]*substratetypes.Document),
	}
}

// Graph exposes the underlying knowledge graph for read/write access.
func (s *Substrate) Graph() *topology.Graph { return s.graph }

// CurrentTick returns the substrate's clock value.
func (s *Substrate) CurrentTick() substratetypes.Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// AdvanceTick increments the clock by one and returns the new value. The
// Colony calls this exactly once per tick, after the Lifecycle phase.
func (s *Substrate) AdvanceTick() substratetypes.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	return s.tick
}

// SetTick forces the clock to an exact value, used only by session
// restore to reproduce a saved tick count without replaying history.
func (s *Substrate) SetTick(tick substratetypes.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = tick
}

// --- Signals ---

// EmitSignal appends a signal to the field.
func (s *Substrate) EmitSignal(sig substratetypes.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
}

// SignalsNear returns every signal within radius of pos, filtered by a
// linear scan over the flat signal slice: the signal population is
// bounded by agent count and decay rate, not by corpus size, so no
// spatial index is warranted.
func (s *Substrate) SignalsNear(pos geometry.Position, radius float64) []substratetypes.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []substratetypes.Signal
	for _, sig := range s.signals {
		if sig.Position.WithinRadius(pos, radius) {
			out = append(out, sig)
		}
	}
	return out
}

// DecaySignals multiplies every signal's intensity by (1-rate) and drops
// any that fall below threshold.
func (s *Substrate) DecaySignals(rate, threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.signals[:0]
	for i := range s.signals {
		s.signals[i].Decay(rate)
		if !s.signals[i].BelowThreshold(threshold) {
			kept = append(kept, s.signals[i])
		}
	}
	s.signals = kept
}

// --- Traces ---

// DepositTrace stores a trace at the given location, appending to any
// existing traces at that cell/node.
func (s *Substrate) DepositTrace(loc substratetypes.SubstrateLocation, tr substratetypes.Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.Key()
	s.traces[key] = append(s.traces[key], tr)
}

// TracesAt returns the traces deposited at the given location, or nil.
func (s *Substrate) TracesAt(loc substratetypes.SubstrateLocation) []substratetypes.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]substratetypes.Trace(nil), s.traces[loc.Key()]...)
}

// DecayTraces multiplies every trace's intensity by (1-rate) in place and
// drops any that fall below threshold, across every location.
func (s *Substrate) DecayTraces(rate, threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, list := range s.traces {
		kept := list[:0]
		for i := range list {
			list[i].Intensity *= 1 - rate
			if list[i].Intensity < 0 {
				list[i].Intensity = 0
			}
			if list[i].Intensity >= threshold {
				kept = append(kept, list[i])
			}
		}
		if len(kept) == 0 {
			delete(s.traces, key)
		} else {
			s.traces[key] = kept
		}
	}
}

// --- Documents ---

// AddDocument inserts an undigested document.
func (s *Substrate) AddDocument(doc substratetypes.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Digested = false
	cp := doc
	s.documents[doc.ID] = &cp
	s.docOrder = append(s.docOrder, doc.ID)
}

// GetDocument returns a copy of the document, or an error if unknown.
func (s *Substrate) GetDocument(id ids.DocumentID) (substratetypes.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return substratetypes.Document{}, perrors.DocumentNotFoundErr(id.String())
	}
	return *d, nil
}

// UndigestedDocuments returns every document not yet consumed, in
// first-seen order.
func (s *Substrate) UndigestedDocuments() []substratetypes.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []substratetypes.Document
	for _, id := range s.docOrder {
		if d := s.documents[id]; d != nil && !d.Digested {
			out = append(out, *d)
		}
	}
	return out
}

// ConsumeDocument marks a document digested exactly once; a second call
// on the same id returns DocumentAlreadyDigestedErr, enforcing the
// exactly-once consumption invariant.
func (s *Substrate) ConsumeDocument(id ids.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return perrors.DocumentNotFoundErr(id.String())
	}
	if d.Digested {
		return perrors.DocumentAlreadyDigestedErr(id.String())
	}
	d.Digested = true
	return nil
}

// AllDocuments returns every document (digested or not) in first-seen
// order.
func (s *Substrate) AllDocuments() []substratetypes.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]substratetypes.Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		out = append(out, *s.documents[id])
	}
	return out
}

// DocumentCount reports how many documents have been ingested in total.
func (s *Substrate) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
