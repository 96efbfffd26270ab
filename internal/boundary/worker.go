// Package boundary is the only place external collaborators (a Kafka
// document feed, a WebSocket dashboard, a CLI or HTTP front end) are
// permitted to touch a Colony. Per spec.md §5, the core runs
// single-threaded and is not reentrant: Worker is the dedicated thread
// that owns the Colony and drains a command channel, so every other
// goroutine in the process reaches the tick loop only by sending a
// command and waiting on its reply channel. Grounded on the teacher's
// internal/messaging (Kafka adapter) and web/server.go (WebSocket hub),
// both rewritten around a single serializing worker loop instead of the
// teacher's direct concurrent access to its topology struct.
package boundary

import (
	"context"

	"github.com/phagocyte/substrate/internal/colony"
	"github.com/phagocyte/substrate/internal/query"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// IngestRequest asks the worker to hand a document to the Colony.
type IngestRequest struct {
	Document substratetypes.Document
}

// TickRequest asks the worker to advance the Colony by n ticks and
// return the Colony's Stats afterwards.
type TickRequest struct {
	N int
}

// TickReply carries the outcome of a TickRequest.
type TickReply struct {
	Stats colony.Stats
}

// QueryRequest asks the worker to run a hybrid query against the
// Colony's current substrate.
type QueryRequest struct {
	Text string
	Cfg  query.Config
}

// QueryReply carries the outcome of a QueryRequest.
type QueryReply struct {
	Results []query.Result
	Err     error
}

// SnapshotRequest asks the worker for the Colony's substrate (the live
// instance, not a copy) and its current Stats, for checkpointing or
// metrics reporting without letting the caller touch the Colony directly.
type SnapshotRequest struct{}

// SnapshotReply carries the substrate pointer and colony stats as of
// the moment the worker processed the request. The substrate itself
// guards its own fields with a mutex, so callers may safely read it
// after the reply arrives even though the worker goroutine has moved
// on to other commands.
type SnapshotReply struct {
	Substrate *substrate.Substrate
	Stats     colony.Stats
}

// command is the internal envelope the Worker's loop selects over; only
// one field is ever non-nil.
type command struct {
	ingest   *IngestRequest
	tick     *TickRequest
	query    *QueryRequest
	snapshot *SnapshotRequest
	reply    chan any
}

// Worker owns a Colony exclusively and serializes every external
// interaction through cmds, whose buffer size the caller sets at
// construction; Run never touches the
// Colony from more than one goroutine at a time.
type Worker struct {
	col  *colony.Colony
	cmds chan command
}

// NewWorker constructs a Worker around col with a command channel of
// the given buffer size.
func NewWorker(col *colony.Colony, bufferSize int) *Worker {
	return &Worker{col: col, cmds: make(chan command, bufferSize)}
}

// Run drains the command channel until ctx is cancelled. It must run on
// exactly one goroutine for the lifetime of the Worker.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-w.cmds:
			w.dispatch(cmd)
		}
	}
}

func (w *Worker) dispatch(cmd command) {
	switch {
	case cmd.ingest != nil:
		w.col.IngestDocument(cmd.ingest.Document)
		if cmd.reply != nil {
			cmd.reply <- struct{}{}
		}
	case cmd.tick != nil:
		w.col.Run(cmd.tick.N)
		if cmd.reply != nil {
			cmd.reply <- TickReply{Stats: w.col.Stats()}
		}
	case cmd.query != nil:
		engine := query.New(w.col.Substrate())
		results, err := engine.Hybrid(cmd.query.Text, cmd.query.Cfg)
		if cmd.reply != nil {
			cmd.reply <- QueryReply{Results: results, Err: err}
		}
	case cmd.snapshot != nil:
		if cmd.reply != nil {
			cmd.reply <- SnapshotReply{Substrate: w.col.Substrate(), Stats: w.col.Stats()}
		}
	}
}

// Ingest hands a document to the Colony and blocks until it has been
// applied.
func (w *Worker) Ingest(doc substratetypes.Document) {
	reply := make(chan any, 1)
	w.cmds <- command{ingest: &IngestRequest{Document: doc}, reply: reply}
	<-reply
}

// Tick advances the Colony by n ticks and returns the resulting Stats.
func (w *Worker) Tick(n int) colony.Stats {
	reply := make(chan any, 1)
	w.cmds <- command{tick: &TickRequest{N: n}, reply: reply}
	return (<-reply).(TickReply).Stats
}

// Query runs a hybrid query against the Colony's current substrate.
func (w *Worker) Query(text string, cfg query.Config) ([]query.Result, error) {
	reply := make(chan any, 1)
	w.cmds <- command{query: &QueryRequest{Text: text, Cfg: cfg}, reply: reply}
	r := (<-reply).(QueryReply)
	return r.Results, r.Err
}

// Snapshot returns the Colony's substrate and current Stats, for
// checkpointing or metrics reporting from another goroutine.
func (w *Worker) Snapshot() (*substrate.Substrate, colony.Stats) {
	reply := make(chan any, 1)
	w.cmds <- command{snapshot: &SnapshotRequest{}, reply: reply}
	r := (<-reply).(SnapshotReply)
	return r.Substrate, r.Stats
}
