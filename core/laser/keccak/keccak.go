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

// Package keccak reconciles symbolic hash outputs accumulated during a
// transaction (topological keys) with a small fixed roster of concrete
// actor identities, at transaction end. It owns the manager state
// (function/inverse witnesses, the value<->preimage tables, and the
// deletion set) as a value threaded explicitly through the engine rather
// than held as a package-level global, so one session's bookkeeping never
// leaks into another's.
package keccak

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/core-coin/uint256"
	mapset "github.com/deckarep/golang-set"

	"github.com/laser-ethereum/laser/core/laser/smt"
)

// DefaultActors is the fixed roster of three 256-bit caller identities used
// to enumerate distinct concretisations. A Manager may be built with a
// different roster via WithActors; this is the default every session gets
// unless overridden.
var DefaultActors = [3]*uint256.Int{
	mustUint256("affeaffeaffeaffeaffeaffeaffeaffeaffeaffeaffeaffeaffeaffeaffeaffe"),
	mustUint256("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"),
	mustUint256("deadbeeedeadbeeedeadbeeedeadbeeedeadbeeedeadbeeedeadbeeedeadbeee"),
}

func mustUint256(hexDigits string) *uint256.Int {
	n, ok := new(big.Int).SetString(hexDigits, 16)
	if !ok {
		panic("keccak: bad actor literal " + hexDigits)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		panic("keccak: actor literal overflows 256 bits")
	}
	return v
}

// functionPair is the witnessed (function, inverse) uninterpreted function
// pair for one input bit-width.
type functionPair struct {
	function smt.Function
	inverse  smt.Function
}

// Manager is the engine-owned, explicitly-threaded keccak bookkeeping for
// one session. A fresh Manager per session gives tests isolation for free.
type Manager struct {
	factory   smt.Factory
	hashFn    func([]byte) []byte
	actors    [3]*uint256.Int

	keccakParent      map[smt.BitVec]smt.BitVec      // key -> preimage term, nil entry or absent key => independent
	functions         map[int]*functionPair           // input width -> (function, inverse)
	valuesForSize     map[int][]smt.BitVec            // input width -> witnessed concrete outputs
	valueInverse      map[string]smt.BitVec           // hex(concrete output) -> symbolic key it resolves
	flagConditions    map[string][2]smt.Bool          // hex(simplified key) -> (f1, f2)
	deleteConstraints mapset.Set                      // of smt.Bool, constraints superseded by reconciled equalities
	storedVals        map[smt.BitVec]*[3]*uint256.Int // key -> concrete value chosen per actor slot
}

// NewManager returns a Manager using factory to mint fresh terms, hashFn to
// compute concrete Keccak256 digests, and the default three-actor roster.
func NewManager(factory smt.Factory, hashFn func([]byte) []byte) *Manager {
	return &Manager{
		factory:           factory,
		hashFn:            hashFn,
		actors:            DefaultActors,
		keccakParent:      make(map[smt.BitVec]smt.BitVec),
		functions:         make(map[int]*functionPair),
		valuesForSize:     make(map[int][]smt.BitVec),
		valueInverse:      make(map[string]smt.BitVec),
		flagConditions:    make(map[string][2]smt.Bool),
		deleteConstraints: mapset.NewSet(),
		storedVals:        make(map[smt.BitVec]*[3]*uint256.Int),
	}
}

// WithActors overrides the actor roster.
func (m *Manager) WithActors(actors [3]*uint256.Int) *Manager {
	m.actors = actors
	return m
}

// RegisterTopoKey records that key is known to equal a keccak output, with
// parent as its pre-image term (nil for an independent key with no recorded
// pre-image).
func (m *Manager) RegisterTopoKey(key smt.BitVec, parent smt.BitVec) {
	m.keccakParent[key] = parent
}

// AddFlagCondition records the pair of boolean guards a prior pass attached
// to key, consulted by the flag-rewriting step. Callers key the lookup with
// KeyDigest so the same simplified-key identity is used on both sides.
func (m *Manager) AddFlagCondition(key smt.BitVec, f1, f2 smt.Bool) {
	m.flagConditions[KeyDigest(key)] = [2]smt.Bool{f1, f2}
}

// KeyDigest is the identity the flag-conditions table and the flag-rewriting
// step both key on: a key is only ever compared against another key's
// simplified textual form, never by pointer, since distinct walks of an
// equivalent term may produce distinct term objects.
func KeyDigest(key smt.BitVec) string {
	digest := sha256.Sum256([]byte(key.String()))
	return hex.EncodeToString(digest[:])
}

// MarkForDeletion adds a constraint to the set removed from a state's
// constraint list once its transaction ends.
func (m *Manager) MarkForDeletion(c smt.Bool) {
	m.deleteConstraints.Add(c)
}

// DeleteConstraints returns the accumulated deletion set.
func (m *Manager) DeleteConstraints() mapset.Set { return m.deleteConstraints }

// ValuesForSize returns every concrete witness output produced so far for
// keys of the given input bit-width.
func (m *Manager) ValuesForSize(width int) []smt.BitVec { return m.valuesForSize[width] }

// ValueInverse looks up the symbolic key a concrete output (big-endian
// bytes) was witnessed to resolve, if any.
func (m *Manager) ValueInverse(output []byte) (smt.BitVec, bool) {
	key, ok := m.valueInverse[hex.EncodeToString(output)]
	return key, ok
}

func (m *Manager) functionPairFor(width int) *functionPair {
	if fp, ok := m.functions[width]; ok {
		return fp
	}
	fp := &functionPair{
		function: m.factory.Function(fmt.Sprintf("keccak_%d", width), width, 256),
		inverse:  m.factory.Function(fmt.Sprintf("keccak_inv_%d", width), 256, width),
	}
	m.functions[width] = fp
	return fp
}

// findKeccak computes the concrete Keccak256 digest of a width-bit input,
// returned as a 256-bit value.
func (m *Manager) findKeccak(input *uint256.Int, width int) *uint256.Int {
	buf := make([]byte, width/8)
	b := input.Bytes()
	copy(buf[len(buf)-len(b):], b)
	digest := m.hashFn(buf)
	var v uint256.Int
	v.SetBytes(digest)
	return &v
}

func randomUint(bits int) *uint256.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		panic("keccak: random source failed: " + err.Error())
	}
	v, _ := uint256.FromBig(n)
	return v
}
