// Copyright 2020 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package state

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/laser-ethereum/laser/core/laser/smt"
)

// NodeFlag is a bitmask of roles a CFG node can carry.
type NodeFlag uint8

const (
	FuncEntry NodeFlag = 1 << iota
	CallReturn
)

func (f NodeFlag) Has(bit NodeFlag) bool { return f&bit != 0 }

// Node is a CFG vertex: an id, the owning contract and function name, role
// flags, its own constraint set, and the global states that passed through
// it. A GlobalState holds a direct pointer to its Node rather than an id
// into this arena; the resulting Node<->GlobalState cycle is ordinary
// garbage for Go's collector, so there is no need to route through an
// indirection layer to keep it collectible.
type Node struct {
	ID           int
	Contract     string
	FunctionName string
	Flags        NodeFlag
	Constraints  *smt.ConstraintSet
	States       []*GlobalState
}

func (n *Node) SetFlag(f NodeFlag) { n.Flags |= f }

// AddState appends gs to this node's state list.
func (n *Node) AddState(gs *GlobalState) { n.States = append(n.States, gs) }

// JumpType classifies a CFG edge.
type JumpType int

const (
	Unconditional JumpType = iota
	Conditional
	Call
	Return
)

func (j JumpType) String() string {
	switch j {
	case Unconditional:
		return "UNCONDITIONAL"
	case Conditional:
		return "CONDITIONAL"
	case Call:
		return "CALL"
	case Return:
		return "RETURN"
	default:
		return "UNKNOWN"
	}
}

// Edge is a directed CFG edge with an optional branch guard.
type Edge struct {
	Src, Dst  int
	Type      JumpType
	Condition smt.Bool
}

// nodeCacheSize bounds the hot-lookup LRU layer in front of the node arena;
// a full symbolic-execution run can mint far more nodes than are ever
// re-resolved by id, so only the most recently touched ones stay cached.
const nodeCacheSize = 4096

// CFG is the arena of nodes and edges recorded for a session. Recording is
// a no-op (CFG stays empty) unless the engine is configured to build it.
type CFG struct {
	Enabled bool
	nodes   []*Node
	edges   []Edge

	// nodeCache mirrors recently resolved node ids, the way the teacher's
	// trie layers front repeatedly-touched lookups with an LRU cache.
	nodeCache *lru.Cache
}

// NewCFG returns a CFG arena. When enabled is false, NewNode/AddEdge are
// no-ops that return nil, matching the "unreferenced otherwise" invariant.
func NewCFG(enabled bool) *CFG {
	cache, err := lru.New(nodeCacheSize)
	if err != nil {
		panic("state: bad node cache size: " + err.Error())
	}
	return &CFG{Enabled: enabled, nodeCache: cache}
}

// NewNode allocates a fresh node, contract/function name left blank for the
// caller to fill in, and appends it to the arena.
func (c *CFG) NewNode(contract string) *Node {
	if !c.Enabled {
		return nil
	}
	n := &Node{ID: len(c.nodes), Contract: contract, Constraints: smt.NewConstraintSet()}
	c.nodes = append(c.nodes, n)
	c.nodeCache.Add(n.ID, n)
	return n
}

// AddEdge records a directed edge. No-op when recording is disabled.
func (c *CFG) AddEdge(e Edge) {
	if !c.Enabled {
		return
	}
	c.edges = append(c.edges, e)
}

// Node resolves a node by id, consulting the LRU layer before falling back
// to the backing arena slice.
func (c *CFG) Node(id int) *Node {
	if v, ok := c.nodeCache.Get(id); ok {
		return v.(*Node)
	}
	if id < 0 || id >= len(c.nodes) {
		return nil
	}
	n := c.nodes[id]
	c.nodeCache.Add(id, n)
	return n
}

// Nodes returns the full node arena. Callers must not mutate the slice.
func (c *CFG) Nodes() []*Node { return c.nodes }

// Edges returns every recorded edge. Callers must not mutate the slice.
func (c *CFG) Edges() []Edge { return c.edges }
