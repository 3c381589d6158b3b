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

package keccak

import (
	"encoding/hex"

	"github.com/core-coin/uint256"

	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// Result is the (C, D, V, W) tuple the concretisation procedure produces:
// the disjunctive actor guard, the deletion witness, the binding
// conjunction, and the soft-weighted flag booleans.
type Result struct {
	C smt.Bool
	D smt.Bool
	V smt.Bool
	W []smt.Bool
}

// Concretise reconciles every unresolved topological key recorded on
// current against the actor roster, recording each reconciled key on
// returning's topo_keys (once; a key already there is not added again).
// The concrete witness outputs are not added to topo_keys. Both the top-level and the nested
// transaction-end branches call Concretise with current and returning set
// to the same ending GlobalState; the parameters stay distinct because the
// procedure is defined generically over a pair of states.
func (m *Manager) Concretise(current, returning *state.GlobalState) Result {
	actorGuards := make([]smt.Bool, len(m.actors))
	for i := range actorGuards {
		actorGuards[i] = m.factory.BoolVal(true)
	}
	hashCond := m.factory.BoolVal(true)
	v := m.factory.BoolVal(true)
	var w []smt.Bool

	for _, key := range current.TopoKeys {
		if _, concrete := key.Value(); concrete {
			continue
		}
		varCond := m.factory.BoolVal(false)
		parent, hasParent := m.keccakParent[key]

		for ai, actor := range m.actors {
			var chosen *uint256.Int
			ok := true

			if !hasParent || parent == nil {
				chosen, hashCond = m.concretiseIndependent(key, hashCond)
			} else {
				chosen, ok = m.concretiseDerived(key, parent, *actor)
			}
			if !ok {
				continue
			}

			chosenBV := m.factory.BitVecValBytes(chosen.Bytes(), key.Size())
			eq := m.factory.Eq(key, chosenBV)
			varCond = m.factory.Or(varCond, eq)
			actorGuards[ai] = m.factory.And(actorGuards[ai], eq)
			m.rememberStoredVal(key, ai, chosen)
		}

		returning.TopoKeys = appendIfMissing(returning.TopoKeys, key)
		v = m.factory.And(v, m.rewriteFlag(key, varCond, hashCond, &w))
	}
	v = m.factory.And(v, hashCond)

	d := m.applyDeletions(current)

	c := actorGuards[0]
	for _, g := range actorGuards[1:] {
		c = m.factory.Or(c, g)
	}

	return Result{C: c, D: d, V: v, W: w}
}

// concretiseIndependent handles a topo key with no recorded pre-image,
// drawing a fresh witness for this (key, actor) pair and folding the
// function/inverse round-trip into hashCond when the key is 256 bits wide.
func (m *Manager) concretiseIndependent(key smt.BitVec, hashCond smt.Bool) (*uint256.Int, smt.Bool) {
	if key.Size() != 256 {
		return randomUint(key.Size()), hashCond
	}
	const width = 160
	x := randomUint(width)
	fp := m.functionPairFor(width)
	y := m.findKeccak(x, width)

	xBV := m.factory.BitVecValBytes(x.Bytes(), width)
	yBV := m.factory.BitVecValBytes(y.Bytes(), 256)

	m.valueInverse[hex.EncodeToString(y.Bytes())] = key
	m.valuesForSize[width] = append(m.valuesForSize[width], yBV)

	funcEq := m.factory.Eq(fp.function.Apply(xBV), yBV)
	invEq := m.factory.Eq(fp.inverse.Apply(yBV), xBV)
	hashCond = m.factory.And(hashCond, m.factory.And(funcEq, invEq))

	return y, hashCond
}

// concretiseDerived handles a topo key whose pre-image is another symbolic
// term already (partially) resolved. A 512-bit parent is handled by
// concretiseDerived512.
func (m *Manager) concretiseDerived(key, parent smt.BitVec, actor uint256.Int) (*uint256.Int, bool) {
	if parent.Size() == 512 {
		return m.concretiseDerived512(parent, actor)
	}
	stored := m.storedVals[parent]
	if stored == nil {
		return nil, false
	}
	idx := m.actorIndex(actor)
	if stored[idx] == nil {
		return nil, false
	}
	concrete := m.findKeccak(stored[idx], parent.Size())
	return concrete, true
}

func (m *Manager) concretiseDerived512(parent smt.BitVec, actor uint256.Int) (*uint256.Int, bool) {
	// A 512-bit parent resolves only when a value was stored for the parent
	// term as a whole under this actor. Its two 256-bit halves are not split
	// out or substituted separately, so a parent with only one half resolved
	// yields no value here.
	idx := m.actorIndex(actor)
	stored := m.storedVals[parent]
	if stored == nil || stored[idx] == nil {
		return nil, false
	}
	return m.findKeccak(stored[idx], 512), true
}

func (m *Manager) actorIndex(actor uint256.Int) int {
	for i, a := range m.actors {
		if a.Eq(&actor) {
			return i
		}
	}
	return 0
}

func (m *Manager) rememberStoredVal(key smt.BitVec, actorIdx int, value *uint256.Int) {
	slots, ok := m.storedVals[key]
	if !ok {
		slots = &[3]*uint256.Int{}
		m.storedVals[key] = slots
	}
	slots[actorIdx] = value
}

// rewriteFlag rewrites varCond through a fresh flag boolean named after the
// key, per the established flag-conditions table if one exists for this
// key, and appends the flag to the soft-weight list.
func (m *Manager) rewriteFlag(key smt.BitVec, varCond, hashCond smt.Bool, w *[]smt.Bool) smt.Bool {
	digest := KeyDigest(key)
	fv := m.factory.BoolConst("flag_" + digest[:16])
	*w = append(*w, fv)

	if pair, ok := m.flagConditions[digest]; ok {
		f1, f2 := pair[0], pair[1]
		left := m.iff(m.factory.Or(varCond, f2), fv)
		right := m.iff(f1, m.factory.Not(fv))
		return m.factory.And(left, right)
	}

	inner := m.factory.And(fv, varCond)
	notInner := m.factory.Not(inner)
	return m.factory.Or(inner, m.factory.And(notInner, hashCond))
}

// applyDeletions removes every member of the manager's deletion set from
// current's constraint list, returning D = AND(removed) or false if nothing
// was removed.
func (m *Manager) applyDeletions(current *state.GlobalState) smt.Bool {
	victims := make([]smt.Bool, 0, m.deleteConstraints.Cardinality())
	m.deleteConstraints.Each(func(item interface{}) bool {
		victims = append(victims, item.(smt.Bool))
		return false
	})
	removed := current.MState.Constraints.Remove(victims...)
	if len(removed) == 0 {
		return m.factory.BoolVal(false)
	}
	d := removed[0]
	for _, r := range removed[1:] {
		d = m.factory.And(d, r)
	}
	return d
}

// iff builds a ⟺ b from the primitive connectives, since Factory does not
// expose boolean equality directly.
func (m *Manager) iff(a, b smt.Bool) smt.Bool {
	return m.factory.Or(m.factory.And(a, b), m.factory.And(m.factory.Not(a), m.factory.Not(b)))
}

func appendIfMissing(keys []smt.BitVec, key smt.BitVec) []smt.BitVec {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
