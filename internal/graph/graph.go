// Package graph implements the system graph: a directed multigraph of
// architecture components whose technical debt spreads along dependencies.
//
// Nodes live in an arena and are addressed by dense NodeIDs. Nodes are never
// removed, so an ID stays valid for the lifetime of the graph. A name index is
// maintained alongside the arena for lookups by component name.
package graph

import (
	"errors"
	"fmt"

	"github.com/nvandessel/archsim/internal/models"
)

var (
	// ErrNodeNotFound is returned when an edge endpoint is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned by AddNodeUnique when the name is taken.
	ErrDuplicateNode = errors.New("duplicate node name")
)

// NodeID identifies a node within one SystemGraph.
type NodeID int

// Arc is a directed edge between two nodes.
type Arc struct {
	From NodeID
	To   NodeID
	Edge models.Edge
}

// SystemGraph owns the nodes and edges of one simulated architecture.
// It is not safe for concurrent use; a tick mutates it in place.
type SystemGraph struct {
	nodes    []models.Node
	arcs     []Arc
	incoming [][]int // node -> indices into arcs
	outgoing [][]int
	index    map[string]NodeID
}

// New creates an empty graph.
func New() *SystemGraph {
	return &SystemGraph{
		index: make(map[string]NodeID),
	}
}

// AddNode inserts a node and indexes it by name.
//
// If the name is already indexed the index entry is overwritten and the
// earlier node stays in the graph, reachable only by ID. Use AddNodeUnique to
// reject duplicates instead.
func (g *SystemGraph) AddNode(node models.Node) NodeID {
	id := NodeID(len(g.nodes))
	node.Health = models.ClampPercent(node.Health)
	node.TechDebt = models.ClampPercent(node.TechDebt)
	g.nodes = append(g.nodes, node.Clone())
	g.incoming = append(g.incoming, nil)
	g.outgoing = append(g.outgoing, nil)
	g.index[node.Name] = id
	return id
}

// AddNodeUnique inserts a node, failing with ErrDuplicateNode if a node with
// the same name already exists.
func (g *SystemGraph) AddNodeUnique(node models.Node) (NodeID, error) {
	if _, exists := g.index[node.Name]; exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateNode, node.Name)
	}
	return g.AddNode(node), nil
}

// AddEdge inserts a directed edge between two named nodes. Both endpoints
// must already exist; the graph is left unchanged otherwise.
func (g *SystemGraph) AddEdge(from, to string, edge models.Edge) error {
	fromID, ok := g.index[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	toID, ok := g.index[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	g.addArc(fromID, toID, edge)
	return nil
}

// AddEdgeByID inserts a directed edge between two node IDs.
func (g *SystemGraph) AddEdgeByID(from, to NodeID, edge models.Edge) error {
	if !g.valid(from) {
		return fmt.Errorf("%w: id %d", ErrNodeNotFound, from)
	}
	if !g.valid(to) {
		return fmt.Errorf("%w: id %d", ErrNodeNotFound, to)
	}
	g.addArc(from, to, edge)
	return nil
}

func (g *SystemGraph) addArc(from, to NodeID, edge models.Edge) {
	i := len(g.arcs)
	g.arcs = append(g.arcs, Arc{From: from, To: to, Edge: edge})
	g.outgoing[from] = append(g.outgoing[from], i)
	g.incoming[to] = append(g.incoming[to], i)
}

func (g *SystemGraph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// NodeCount returns the number of nodes, including nodes orphaned from the
// name index by duplicate names.
func (g *SystemGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *SystemGraph) EdgeCount() int { return len(g.arcs) }

// Node returns a pointer to the node for in-place updates. Callers that
// change Health or TechDebt should go through SetHealth/SetTechDebt so the
// values stay clamped.
func (g *SystemGraph) Node(id NodeID) (*models.Node, bool) {
	if !g.valid(id) {
		return nil, false
	}
	return &g.nodes[id], true
}

// Lookup returns the ID indexed under name.
func (g *SystemGraph) Lookup(name string) (NodeID, bool) {
	id, ok := g.index[name]
	return id, ok
}

// NodeByName returns the node indexed under name.
func (g *SystemGraph) NodeByName(name string) (*models.Node, bool) {
	id, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// NodeIDs returns all node IDs in insertion order.
func (g *SystemGraph) NodeIDs() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i := range ids {
		ids[i] = NodeID(i)
	}
	return ids
}

// Nodes returns a copy of every node in insertion order.
func (g *SystemGraph) Nodes() []models.Node {
	out := make([]models.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Arcs returns a copy of every edge in insertion order.
func (g *SystemGraph) Arcs() []Arc {
	return append([]Arc(nil), g.arcs...)
}

// Incoming returns the edges whose target is id.
func (g *SystemGraph) Incoming(id NodeID) []Arc {
	if !g.valid(id) {
		return nil
	}
	return g.collect(g.incoming[id])
}

// Outgoing returns the edges whose source is id.
func (g *SystemGraph) Outgoing(id NodeID) []Arc {
	if !g.valid(id) {
		return nil
	}
	return g.collect(g.outgoing[id])
}

func (g *SystemGraph) collect(indices []int) []Arc {
	out := make([]Arc, 0, len(indices))
	for _, i := range indices {
		out = append(out, g.arcs[i])
	}
	return out
}

// SetHealth sets a node's health, clamped into [0, 100].
func (g *SystemGraph) SetHealth(id NodeID, v float64) {
	if g.valid(id) {
		g.nodes[id].Health = models.ClampPercent(v)
	}
}

// SetTechDebt sets a node's tech debt, clamped into [0, 100].
func (g *SystemGraph) SetTechDebt(id NodeID, v float64) {
	if g.valid(id) {
		g.nodes[id].TechDebt = models.ClampPercent(v)
	}
}

// Name returns the name of node id, or "" for an unknown ID.
func (g *SystemGraph) Name(id NodeID) string {
	if !g.valid(id) {
		return ""
	}
	return g.nodes[id].Name
}
