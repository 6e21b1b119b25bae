package datastructure

import (
	"sort"
	"sync"

	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/util"
)

type Index uint32

type Node struct {
	lat  float64
	lon  float64
	id   Index
	name string
}

func NewNode(id Index, lat, lon float64, name string) *Node {
	return &Node{
		id:   id,
		lat:  lat,
		lon:  lon,
		name: name,
	}
}

func (n *Node) GetID() Index {
	return n.id
}

func (n *Node) GetLat() float64 {
	return n.lat
}

func (n *Node) GetLon() float64 {
	return n.lon
}

func (n *Node) GetName() string {
	return n.name
}

func (n *Node) ToCoordinate() geo.Coordinate {
	return geo.NewCoordinate(n.lat, n.lon)
}

// OutEdge is one direction of an undirected road segment. The segment
// always exists as two OutEdges with identical attributes, one in each
// node's adjacency list. Entries are immutable once published: an upsert
// replaces the pointer, it never writes through it.
type OutEdge struct {
	dist     float64 // km
	traffic  float64 // congestion multiplier, >= 1.0
	quality  float64 // surface quality factor, (0.0, 1.0]
	head     Index
	roadName string
}

func NewOutEdge(head Index, dist, traffic, quality float64, roadName string) *OutEdge {
	return &OutEdge{
		head:     head,
		dist:     dist,
		traffic:  traffic,
		quality:  quality,
		roadName: roadName,
	}
}

func (e *OutEdge) GetHead() Index {
	return e.head
}

func (e *OutEdge) GetDist() float64 {
	return e.dist
}

func (e *OutEdge) GetTraffic() float64 {
	return e.traffic
}

func (e *OutEdge) GetQuality() float64 {
	return e.quality
}

func (e *OutEdge) GetRoadName() string {
	return e.roadName
}

// RoadGraph owns the delivery road network: every node of the network and
// a copy-on-write adjacency list per node. Mutations (AddEdge/RemoveEdge)
// take the write lock and bump the version counter so caches layered above
// can detect staleness. Readers take the read lock; published adjacency
// slices are never modified in place, so a slice obtained under the read
// lock stays consistent after release.
type RoadGraph struct {
	mu       sync.RWMutex
	nodes    map[Index]*Node
	adj      map[Index][]*OutEdge
	numEdges int // undirected segment count
	version  uint64
}

func NewRoadGraph() *RoadGraph {
	return &RoadGraph{
		nodes: make(map[Index]*Node),
		adj:   make(map[Index][]*OutEdge),
	}
}

// AddNode registers a node. Node ids are never reused, re-adding an
// existing id fails.
func (g *RoadGraph) AddNode(node *Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[node.GetID()]; ok {
		return util.WrapErrorf(nil, util.ErrConflict, "node id %d already registered", node.GetID())
	}
	g.nodes[node.GetID()] = node
	g.adj[node.GetID()] = nil
	return nil
}

// AddEdge inserts the undirected segment (a,b) as two directed adjacency
// entries under one critical section. Re-adding an existing segment
// overwrites its attributes in both directions.
func (g *RoadGraph) AddEdge(a, b Index, dist, traffic, quality float64, roadName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[a]; !ok {
		return util.WrapErrorf(nil, util.ErrInvalidMutation, "add edge: node %d not in graph", a)
	}
	if _, ok := g.nodes[b]; !ok {
		return util.WrapErrorf(nil, util.ErrInvalidMutation, "add edge: node %d not in graph", b)
	}
	if a == b {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "add edge: self loop on node %d", a)
	}
	if dist < 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "add edge (%d,%d): negative distance %f", a, b, dist)
	}
	if traffic < 1.0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "add edge (%d,%d): traffic multiplier %f below 1.0", a, b, traffic)
	}
	if quality <= 0.0 || quality > 1.0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "add edge (%d,%d): quality %f outside (0.0, 1.0]", a, b, quality)
	}

	isNew := g.upsertDirected(a, b, dist, traffic, quality, roadName)
	g.upsertDirected(b, a, dist, traffic, quality, roadName)
	if isNew {
		g.numEdges++
	}
	g.version++
	return nil
}

func (g *RoadGraph) upsertDirected(tail, head Index, dist, traffic, quality float64, roadName string) bool {
	entry := NewOutEdge(head, dist, traffic, quality, roadName)

	old := g.adj[tail]
	next := make([]*OutEdge, len(old))
	copy(next, old)
	for i, e := range next {
		if e.head == head {
			next[i] = entry
			g.adj[tail] = next
			return false
		}
	}
	g.adj[tail] = append(next, entry)
	return true
}

// RemoveEdge deletes both directed entries of segment (a,b). Removing an
// absent segment is a no-op, not an error. Reports whether a segment was
// actually removed.
func (g *RoadGraph) RemoveEdge(a, b Index) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[a]; !ok {
		return false, util.WrapErrorf(nil, util.ErrInvalidMutation, "remove edge: node %d not in graph", a)
	}
	if _, ok := g.nodes[b]; !ok {
		return false, util.WrapErrorf(nil, util.ErrInvalidMutation, "remove edge: node %d not in graph", b)
	}

	removedAB := g.removeDirected(a, b)
	removedBA := g.removeDirected(b, a)
	if removedAB != removedBA {
		// one-sided entries cannot be produced by this type, only by a
		// corrupted snapshot load
		panic("road graph: adjacency lists out of sync")
	}
	if removedAB {
		g.numEdges--
		g.version++
	}
	return removedAB, nil
}

func (g *RoadGraph) removeDirected(tail, head Index) bool {
	old := g.adj[tail]
	for i, e := range old {
		if e.head == head {
			next := make([]*OutEdge, 0, len(old)-1)
			next = append(next, old[:i]...)
			next = append(next, old[i+1:]...)
			g.adj[tail] = next
			return true
		}
	}
	return false
}

// Neighbors returns the adjacency entries of nodeId. An isolated node
// yields an empty slice, an unknown node fails, the two are different
// conditions. The returned slice is a consistent snapshot and must not be
// modified by the caller.
func (g *RoadGraph) Neighbors(nodeId Index) ([]*OutEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[nodeId]; !ok {
		return nil, util.WrapErrorf(nil, util.ErrInvalidNode, "neighbors: node %d not in graph", nodeId)
	}
	return g.adj[nodeId], nil
}

// EdgeBetween returns the directed entry a -> b when segment (a,b) exists.
func (g *RoadGraph) EdgeBetween(a, b Index) (*OutEdge, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[a]; !ok {
		return nil, false, util.WrapErrorf(nil, util.ErrInvalidNode, "edge between: node %d not in graph", a)
	}
	if _, ok := g.nodes[b]; !ok {
		return nil, false, util.WrapErrorf(nil, util.ErrInvalidNode, "edge between: node %d not in graph", b)
	}
	for _, e := range g.adj[a] {
		if e.head == b {
			return e, true, nil
		}
	}
	return nil, false, nil
}

func (g *RoadGraph) GetNode(nodeId Index) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[nodeId]
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrInvalidNode, "node %d not in graph", nodeId)
	}
	return node, nil
}

func (g *RoadGraph) HasNode(nodeId Index) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[nodeId]
	return ok
}

func (g *RoadGraph) NumberOfNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

func (g *RoadGraph) NumberOfEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.numEdges
}

// Version counts mutations. Any cache keyed on search inputs must also key
// on this value, a stale entry surviving an edge removal is a correctness
// bug, not a performance bug.
func (g *RoadGraph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.version
}

// NodeIDs returns every node id in ascending order.
func (g *RoadGraph) NodeIDs() []Index {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]Index, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ForEachNode visits every node under the read lock in ascending id order.
func (g *RoadGraph) ForEachNode(fn func(node *Node)) {
	for _, id := range g.NodeIDs() {
		g.mu.RLock()
		node := g.nodes[id]
		g.mu.RUnlock()
		fn(node)
	}
}

// ForEachOutEdge visits every directed entry, each undirected segment
// twice. Visit order follows ascending tail id.
func (g *RoadGraph) ForEachOutEdge(fn func(tail Index, edge *OutEdge)) {
	for _, id := range g.NodeIDs() {
		g.mu.RLock()
		entries := g.adj[id]
		g.mu.RUnlock()
		for _, e := range entries {
			fn(id, e)
		}
	}
}
