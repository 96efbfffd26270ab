package agents

import (
	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// Sentinel performs the Negate primitive: negative-selection anomaly
// detection modeled on immune self/non-self discrimination. During its
// maturity window it passively builds a self-model from the node labels
// it observes; once mature, it classifies newly-presented fragments
// against that self-model and emits an anomaly signal for anything
// sufficiently unlike what it has learned to recognize as normal.
type Sentinel struct {
	state      State
	logger     *zap.Logger
	selfModel  map[string]struct{}
	maturityAt uint64 // distinct self-model labels at which the sentinel is considered mature
}

// NewSentinel constructs a Sentinel; maturityCount is the number of
// distinct labels the self-model must absorb before classification
// begins.
func NewSentinel(id ids.AgentID, pos geometry.Position, spawnTick substratetypes.Tick, maturityCount int, logger *zap.Logger) *Sentinel {
	return &Sentinel{
		state:      newState(id, KindSentinel, pos, spawnTick),
		logger:     scopedLogger(logger, id, KindSentinel),
		selfModel:  make(map[string]struct{}),
		maturityAt: uint64(maturityCount),
	}
}

func (s *Sentinel) ID() ids.AgentID { return s.state.ID }
func (s *Sentinel) Kind() Kind      { return KindSentinel }
func (s *Sentinel) State() State    { return s.state }

// Observe folds a label into the self-model; called by the Colony for
// every fragment a Digester presents, regardless of which Sentinel
// eventually classifies it — the self-model represents the substrate's
// collective normal vocabulary, not one Sentinel's private experience.
func (s *Sentinel) Observe(label string) {
	s.selfModel[label] = struct{}{}
}

// Mature reports whether the self-model has absorbed enough of the
// substrate's vocabulary to classify reliably.
func (s *Sentinel) Mature() bool {
	return uint64(len(s.selfModel)) >= s.maturityAt
}

// Classify compares a label set (e.g. a freshly presented fragment
// batch) against the self-model using Jaccard similarity; below
// jaccardThreshold the observation is flagged non-self, with Deviation
// set to 1 - similarity. Before the self-model is mature, a verdict
// would be drawn from too little vocabulary to mean anything, so
// Classify reports Unknown rather than guessing IsSelf or NonSelf.
func (s *Sentinel) Classify(labels []string, jaccardThreshold float64) substratetypes.Classification {
	if !s.Mature() {
		return substratetypes.Classification{Unknown: true}
	}
	if len(labels) == 0 {
		return substratetypes.Classification{IsSelf: true}
	}

	observed := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		observed[l] = struct{}{}
	}

	intersection := 0
	for l := range observed {
		if _, ok := s.selfModel[l]; ok {
			intersection++
		}
	}
	union := len(s.selfModel) + len(observed) - intersection
	similarity := 0.0
	if union > 0 {
		similarity = float64(intersection) / float64(union)
	}

	if similarity >= jaccardThreshold {
		return substratetypes.Classification{IsSelf: true}
	}
	return substratetypes.Classification{IsSelf: false, Unknown: false, Deviation: 1 - similarity}
}

// Act senses nearby Anomaly signals and, if it finds one, re-emits an
// Anomaly signal of the same intensity at its own position; it does not
// check maturity. The Colony is responsible for calling Classify
// against each tick's newly wired fragments, emitting the anomaly
// signal for a non-self verdict, and folding the labels in via Observe.
func (s *Sentinel) Act(sub *substrate.Substrate, cfg *config.Config, tick substratetypes.Tick) substratetypes.Action {
	s.state.TicksAlive++

	if s.state.Health.ShouldDie() {
		return substratetypes.Action{Kind: substratetypes.ActionApoptose}
	}

	nearby := sub.SignalsNear(s.state.Position, cfg.DigesterSenseRadius)
	for _, sig := range nearby {
		if sig.Type != substratetypes.SignalAnomaly {
			continue
		}
		s.state.UsefulOutputs++
		return substratetypes.Action{
			Kind: substratetypes.ActionEmit,
			EmitSignal: substratetypes.Signal{
				Type:         substratetypes.SignalAnomaly,
				Intensity:    sig.Intensity,
				Position:     s.state.Position,
				Emitter:      s.state.ID,
				EmissionTick: tick,
			},
		}
	}

	s.state.IdleTicks++
	s.state.Health = EvaluateHealth(s.state.Health, s.state.IdleTicks, s.state.UsefulOutputs, cfg.DigesterMaxIdle)
	return substratetypes.Idle()
}
