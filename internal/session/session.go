// Package session implements save/restore of a substrate's knowledge
// graph under relabeling: node and edge ids are never persisted, labels
// are the cross-session identifier, and a fresh id space is minted on
// every load. Grounded on spec.md's §4.6 session file format and on the
// teacher's internal/state package for the storage-backend split
// (FileStore here plays the role the teacher's in-memory/Redis split
// plays for agent and proposal records).
package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/perrors"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// FormatVersion is bumped whenever the document shape changes in a way
// that breaks a prior Load.
const FormatVersion = "1"

// Metadata carries the document-wide bookkeeping fields.
type Metadata struct {
	Version      string   `json:"version"`
	SessionID    string   `json:"session_id"`
	Tick         uint64   `json:"tick"`
	NodeCount    int      `json:"node_count"`
	EdgeCount    int      `json:"edge_count"`
	FilesIndexed []string `json:"files_indexed"`
}

// Node is the label-addressed serialization of one graph node; ids are
// deliberately absent.
type Node struct {
	Label       string  `json:"label"`
	NodeType    string  `json:"node_type"`
	AccessCount uint64  `json:"access_count"`
	PositionX   float64 `json:"position_x"`
	PositionY   float64 `json:"position_y"`
}

// Edge is the label-addressed serialization of one undirected edge.
type Edge struct {
	FromLabel     string  `json:"from_label"`
	ToLabel       string  `json:"to_label"`
	Weight        float64 `json:"weight"`
	CoActivations uint64  `json:"co_activations"`
}

// Document is the full structured record written to and read from
// storage. Field order mirrors spec.md §6's session file format.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
}

// Save walks a substrate's current graph into a Document; the document
// pool is not read. filesIndexed is the caller-supplied list of ingested
// document titles; the substrate itself does not track "files", only
// Document values, so the caller names which title field populates it.
func Save(sub *substrate.Substrate, sessionID string, filesIndexed []string) Document {
	graph := sub.Graph()
	allNodes := graph.AllNodes()

	nodes := make([]Node, 0, len(allNodes))
	for _, id := range allNodes {
		n, err := graph.GetNode(id)
		if err != nil {
			continue
		}
		nodes = append(nodes, Node{
			Label:       n.Label,
			NodeType:    string(n.Type),
			AccessCount: n.AccessCount,
			PositionX:   n.Position.X,
			PositionY:   n.Position.Y,
		})
	}

	labelByID := make(map[ids.NodeID]string, len(allNodes))
	for _, id := range allNodes {
		if n, err := graph.GetNode(id); err == nil {
			labelByID[id] = n.Label
		}
	}

	allEdges := graph.AllEdges()
	edges := make([]Edge, 0, len(allEdges))
	for _, e := range allEdges {
		edges = append(edges, Edge{
			FromLabel:     labelByID[e.From],
			ToLabel:       labelByID[e.To],
			Weight:        e.Edge.Weight,
			CoActivations: e.Edge.CoActivations,
		})
	}

	return Document{
		Metadata: Metadata{
			Version:      FormatVersion,
			SessionID:    sessionID,
			Tick:         uint64(sub.CurrentTick()),
			NodeCount:    len(nodes),
			EdgeCount:    len(edges),
			FilesIndexed: filesIndexed,
		},
		Nodes: nodes,
		Edges: edges,
	}
}

// Restore rebuilds a fresh substrate's graph from a Document, minting
// new node ids and reconnecting edges through a label→id map. Agent
// populations are never restored here; per spec.md §4.6 they are
// reconstructed from external policy (a Colony's SpawnPolicy), not from
// the session document.
func Restore(doc Document) (*substrate.Substrate, error) {
	if doc.Metadata.Version != FormatVersion {
		return nil, perrors.VersionMismatchErr(FormatVersion, doc.Metadata.Version)
	}

	sub := substrate.New()
	graph := sub.Graph()

	byLabel := make(map[string]ids.NodeID, len(doc.Nodes))
	for _, n := range doc.Nodes {
		id := graph.AddNode(substratetypes.NodeData{
			Label:       n.Label,
			Type:        substratetypes.NodeType(n.NodeType),
			Position:    geometry.NewPosition(n.PositionX, n.PositionY),
			AccessCount: n.AccessCount,
		})
		byLabel[n.Label] = id
	}

	for _, e := range doc.Edges {
		from, ok := byLabel[e.FromLabel]
		if !ok {
			return nil, perrors.SessionCorruptErr(fmt.Sprintf("edge references unknown label %q", e.FromLabel))
		}
		to, ok := byLabel[e.ToLabel]
		if !ok {
			return nil, perrors.SessionCorruptErr(fmt.Sprintf("edge references unknown label %q", e.ToLabel))
		}
		if err := graph.SetEdge(from, to, substratetypes.EdgeData{
			Weight:        e.Weight,
			CoActivations: e.CoActivations,
		}); err != nil {
			return nil, perrors.SessionCorruptErr(err.Error())
		}
	}

	sub.SetTick(substratetypes.Tick(doc.Metadata.Tick))
	return sub, nil
}

// Store persists and retrieves session Documents by session id. Both
// FileStore and RedisStore implement it; callers that don't care which
// backend is behind a Colony's checkpoint schedule code against this
// interface.
type Store interface {
	SaveSession(id string, doc Document) error
	LoadSession(id string) (Document, error)
}

// FileStore persists one JSON file per session under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore constructs a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (fs *FileStore) path(id string) string {
	return fs.Dir + "/" + id + ".json"
}

// SaveSession writes doc as indented JSON to <dir>/<id>.json.
func (fs *FileStore) SaveSession(id string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return perrors.WrapSaveFailed(fs.path(id), err)
	}
	if err := os.WriteFile(fs.path(id), data, 0o644); err != nil {
		return perrors.WrapSaveFailed(fs.path(id), err)
	}
	return nil
}

// LoadSession reads and decodes <dir>/<id>.json.
func (fs *FileStore) LoadSession(id string) (Document, error) {
	data, err := os.ReadFile(fs.path(id))
	if err != nil {
		return Document{}, perrors.WrapLoadFailed(fs.path(id), err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, perrors.WrapLoadFailed(fs.path(id), err)
	}
	return doc, nil
}
