package agents

import (
	"sort"

	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
	"github.com/phagocyte/substrate/internal/tokenize"
)

// minFragmentBudget is the floor on how many top-ranked terms a
// Digester presents per document, regardless of length: short
// documents should still surface every distinct term they contain
// rather than being truncated to an arbitrary small constant.
// maxFragmentBudget caps the other end, so a very long document still
// presents a manageable number of fragments in one tick.
const (
	minFragmentBudget = 6
	maxFragmentBudget = 20
)

// Digester performs the Digest primitive: phagocytosing nearby
// undigested documents and presenting the salient fragments extracted
// from them. Idling past DigesterMaxIdle ticks walks it down the health
// ladder toward apoptosis, the digital equivalent of starving.
type Digester struct {
	state  State
	logger *zap.Logger
	known  map[string]struct{} // vocabulary this digester has already surfaced
}

// NewDigester constructs a Digester at the given position.
func NewDigester(id ids.AgentID, pos geometry.Position, spawnTick substratetypes.Tick, logger *zap.Logger) *Digester {
	return &Digester{
		state:  newState(id, KindDigester, pos, spawnTick),
		logger: scopedLogger(logger, id, KindDigester),
		known:  make(map[string]struct{}),
	}
}

func (d *Digester) ID() ids.AgentID { return d.state.ID }
func (d *Digester) Kind() Kind      { return KindDigester }
func (d *Digester) State() State    { return d.state }

// Act senses for the nearest undigested document within sense radius; if
// found, it extracts and presents the top fragments and resets its idle
// counter, otherwise it idles and its health may degrade.
func (d *Digester) Act(sub *substrate.Substrate, cfg *config.Config, tick substratetypes.Tick) substratetypes.Action {
	d.state.TicksAlive++

	if d.state.Health.ShouldDie() {
		return substratetypes.Action{Kind: substratetypes.ActionApoptose}
	}

	doc, ok := d.nearestUndigested(sub, cfg.DigesterSenseRadius)
	if !ok {
		d.state.IdleTicks++
		d.state.Health = EvaluateHealth(d.state.Health, d.state.IdleTicks, d.state.UsefulOutputs, cfg.DigesterMaxIdle)
		return substratetypes.Idle()
	}

	d.state.IdleTicks = 0
	fragments := d.extractFragments(doc, cfg)
	for _, f := range fragments {
		d.known[f.Label] = struct{}{}
	}
	d.state.UsefulOutputs++
	d.state.Health = EvaluateHealth(d.state.Health, d.state.IdleTicks, d.state.UsefulOutputs, cfg.DigesterMaxIdle)

	d.logger.Debug("presenting fragments",
		zap.String("document", doc.ID.String()),
		zap.Int("count", len(fragments)),
	)

	return substratetypes.Action{
		Kind:       substratetypes.ActionPresentFragments,
		DocumentID: doc.ID,
		Fragments:  fragments,
	}
}

func (d *Digester) nearestUndigested(sub *substrate.Substrate, radius float64) (substratetypes.Document, bool) {
	var best substratetypes.Document
	bestDist := radius
	found := false
	for _, doc := range sub.UndigestedDocuments() {
		dist := d.state.Position.DistanceTo(doc.Position)
		if dist <= radius && (!found || dist < bestDist) {
			best, bestDist, found = doc, dist, true
		}
	}
	return best, found
}

// extractFragments tokenizes the document, scores each distinct term by
// frequency with a boost for vocabulary this digester has already
// learned to recognize, and returns the top-K terms as
// FragmentPresentations, each tagged as a Concept node. K is derived
// from the document's token count via fragmentBudget rather than fixed,
// so a short document still surfaces all of its distinct terms and a
// long one is still bounded to a manageable presentation.
func (d *Digester) extractFragments(doc substratetypes.Document, cfg *config.Config) []substratetypes.FragmentPresentation {
	tokens := tokenize.Tokens(doc.Content)
	counts, order := tokenize.Frequencies(tokens)

	type scored struct {
		term  string
		score float64
	}
	ranked := make([]scored, 0, len(order))
	for _, term := range order {
		score := float64(counts[term])
		if _, known := d.known[term]; known {
			score *= cfg.KeywordBoost
		}
		ranked = append(ranked, scored{term: term, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := fragmentBudget(len(tokens))
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]substratetypes.FragmentPresentation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, substratetypes.FragmentPresentation{
			Label:     ranked[i].term,
			SourceDoc: doc.ID,
			Position:  doc.Position,
			NodeType:  substratetypes.NodeConcept,
		})
	}
	return out
}

// fragmentBudget derives K, the number of top-ranked terms to present,
// from the document's filtered token count (after stopword and
// short-token removal, repeats included): K grows with document length
// but never drops below minFragmentBudget, so a short document is
// fully represented rather than truncated to a handful of terms, and
// never exceeds maxFragmentBudget, so a long document doesn't flood a
// single tick's presentation.
func fragmentBudget(tokenCount int) int {
	k := (tokenCount + 1) / 2
	if k < minFragmentBudget {
		k = minFragmentBudget
	}
	if k > maxFragmentBudget {
		k = maxFragmentBudget
	}
	return k
}

// ExportCapability packages this digester's learned vocabulary as a
// transferable capability.
func (d *Digester) ExportCapability(capID substratetypes.CapabilityID) substratetypes.Capability {
	vocab := make([]string, 0, len(d.known))
	for term := range d.known {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	return substratetypes.Capability{
		Descriptor: substratetypes.CapabilityDescriptor{
			ID:     capID,
			Origin: d.state.ID,
			Terms:  len(vocab),
		},
		Vocabulary: vocab,
	}
}

// ImportCapability evaluates and, if accepted, merges a foreign
// capability's vocabulary into this digester's known terms.
func (d *Digester) ImportCapability(cap substratetypes.Capability) (substratetypes.Compatibility, substratetypes.RejectionReason) {
	verdict, reason := EvaluateForeignCapability(d.state.AcceptedOrigins, d.known, cap)
	if verdict == substratetypes.CompatibilityAccept {
		d.state.AcceptedOrigins[cap.Descriptor.Origin] = struct{}{}
		for _, term := range cap.Vocabulary {
			d.known[term] = struct{}{}
		}
	}
	return verdict, reason
}
