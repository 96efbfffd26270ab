// Package ids defines the opaque 128-bit identifiers shared across the
// substrate: agents, graph nodes, and documents.
package ids

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// seedNamespace anchors the deterministic seed constructors so that two
// runs asking for the same seed always mint the same id.
var seedNamespace = uuid.MustParse("6f9c2f1a-6c1e-4e1b-9a0a-9b2b9f0a2d11")

// AgentID identifies an agent for its entire lifetime. Ids are never reused.
type AgentID uuid.UUID

// NodeID identifies a node in the knowledge graph.
type NodeID uuid.UUID

// DocumentID identifies an ingested document.
type DocumentID uuid.UUID

// NewAgentID mints a fresh random agent id.
func NewAgentID() AgentID { return AgentID(uuid.New()) }

// NewNodeID mints a fresh random node id.
func NewNodeID() NodeID { return NodeID(uuid.New()) }

// NewDocumentID mints a fresh random document id.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// AgentIDFromSeed deterministically derives an agent id from an integer
// seed, for reproducible tests and deterministic genome lineages.
func AgentIDFromSeed(seed uint64) AgentID {
	return AgentID(seededUUID(seed, "agent"))
}

// NodeIDFromSeed deterministically derives a node id from an integer seed.
func NodeIDFromSeed(seed uint64) NodeID {
	return NodeID(seededUUID(seed, "node"))
}

// DocumentIDFromSeed deterministically derives a document id from a seed.
func DocumentIDFromSeed(seed uint64) DocumentID {
	return DocumentID(seededUUID(seed, "document"))
}

func seededUUID(seed uint64, kind string) uuid.UUID {
	buf := make([]byte, 8+len(kind))
	binary.BigEndian.PutUint64(buf, seed)
	copy(buf[8:], kind)
	return uuid.NewSHA1(seedNamespace, buf)
}

func (a AgentID) String() string    { return uuid.UUID(a).String() }
func (n NodeID) String() string     { return uuid.UUID(n).String() }
func (d DocumentID) String() string { return uuid.UUID(d).String() }

// Less provides the strict total order the Colony's Act phase relies on
// (actions are applied in ascending AgentId order).
func (a AgentID) Less(other AgentID) bool {
	return uuid.UUID(a).String() < uuid.UUID(other).String()
}
