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

// Package state holds the exploration engine's data model: WorldState,
// GlobalState, the CFG arena (Node/Edge) and the gas-bound bookkeeping
// attached to a machine state.
package state

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/smt"
)

// codeCacheBytes bounds the off-heap cache WorldState forks share for
// account code blobs, mirroring the teacher's use of fastcache for trie
// node bytes.
const codeCacheBytes = 8 * 1024 * 1024

// Account is a symbolic account: balance and storage slots are SMT terms,
// only the address, nonce and code are concrete (the disassembler and the
// dynamic loader both need concrete code bytes).
type Account struct {
	Address common.Address
	Balance smt.BitVec
	Nonce   uint64
	Code    []byte
	Storage map[common.Hash]smt.BitVec
}

func NewAccount(addr common.Address) *Account {
	return &Account{Address: addr, Storage: make(map[common.Hash]smt.BitVec)}
}

// Clone returns a deep-enough copy: a new Storage map, independent of the
// original. Balance/Nonce/Code are value/slice-shared because SMT terms and
// code bytes are treated as immutable once an account is built.
func (a *Account) Clone() *Account {
	cp := &Account{
		Address: a.Address,
		Balance: a.Balance,
		Nonce:   a.Nonce,
		Code:    a.Code,
		Storage: make(map[common.Hash]smt.BitVec, len(a.Storage)),
	}
	for k, v := range a.Storage {
		cp.Storage[k] = v
	}
	return cp
}

// GasBounds tracks the [min, max] gas an execution path may still consume.
// The driver only ever propagates these fields; metering itself belongs to
// the external gas-accounting collaborator.
type GasBounds struct {
	Min uint64
	Max uint64
}

// Add folds another path's bounds into this one, used when a contract
// creation's callee gas bounds are added onto the caller's on return.
func (g *GasBounds) Add(other GasBounds) {
	g.Min += other.Min
	g.Max += other.Max
}

// WorldState is the persistent view shared by every GlobalState on a given
// path: accounts, the transaction audit trail, and the topological keccak
// keys accumulated so far at this transaction boundary.
type WorldState struct {
	accounts     map[common.Address]*Account
	transactions []Transaction
	keccakKeys   []smt.BitVec

	// node is the CFG node this world state was committed against, set by
	// the transaction lifecycle at top-level transaction end.
	node *Node

	// codeCache is an off-heap cache of account code keyed by address,
	// shared by every WorldState forked from this one (Clone copies the
	// pointer, not the cache) since code bytes never mutate once an
	// account exists.
	codeCache *fastcache.Cache
}

// NewWorldState returns an empty world state.
func NewWorldState() *WorldState {
	return &WorldState{
		accounts:  make(map[common.Address]*Account),
		codeCache: fastcache.New(codeCacheBytes),
	}
}

// CodeAt returns addr's code, consulting the shared off-heap cache before
// falling back to (and populating from) the account itself.
func (w *WorldState) CodeAt(addr common.Address) []byte {
	if code, ok := w.codeCache.HasGet(nil, addr[:]); ok {
		return code
	}
	a, ok := w.accounts[addr]
	if !ok || len(a.Code) == 0 {
		return nil
	}
	w.codeCache.Set(addr[:], a.Code)
	return a.Code
}

// PutAccount installs or replaces an account.
func (w *WorldState) PutAccount(a *Account) { w.accounts[a.Address] = a }

// Account looks up an account by address.
func (w *WorldState) Account(addr common.Address) (*Account, bool) {
	a, ok := w.accounts[addr]
	return a, ok
}

// AccountOrNew returns the account at addr, creating an empty one if absent.
func (w *WorldState) AccountOrNew(addr common.Address) *Account {
	if a, ok := w.accounts[addr]; ok {
		return a
	}
	a := NewAccount(addr)
	w.accounts[addr] = a
	return a
}

// CloneAccount performs copy-on-write: the returned *Account is a private
// copy installed back into this world state, safe for the caller to mutate
// without affecting any WorldState this one was cloned from.
func (w *WorldState) CloneAccount(addr common.Address) *Account {
	cp := w.AccountOrNew(addr).Clone()
	w.accounts[addr] = cp
	return cp
}

// Accounts returns the full account set. Callers must not mutate the map.
func (w *WorldState) Accounts() map[common.Address]*Account { return w.accounts }

// RecordTransaction appends tx to the audit sequence.
func (w *WorldState) RecordTransaction(tx Transaction) {
	w.transactions = append(w.transactions, tx)
}

// Transactions returns the audit trail, oldest first.
func (w *WorldState) Transactions() []Transaction { return w.transactions }

// Node returns the CFG node this world state was committed against, if any.
func (w *WorldState) Node() *Node { return w.node }

// SetNode attaches a CFG node.
func (w *WorldState) SetNode(n *Node) { w.node = n }

// KeccakKeys returns the topological keys accumulated at this boundary.
func (w *WorldState) KeccakKeys() []smt.BitVec { return w.keccakKeys }

// ResetKeccakKeys clears the bookkeeping between transactions.
func (w *WorldState) ResetKeccakKeys() { w.keccakKeys = nil }

// AppendKeccakKeys extends the bookkeeping with newly resolved keys.
func (w *WorldState) AppendKeccakKeys(keys ...smt.BitVec) {
	w.keccakKeys = append(w.keccakKeys, keys...)
}

// Clone returns a shallow copy: a new account map sharing *Account pointers
// with the original. Callers that mutate an account must go
// through CloneAccount first so the original's pointer is left untouched.
func (w *WorldState) Clone() *WorldState {
	cp := &WorldState{
		accounts:     make(map[common.Address]*Account, len(w.accounts)),
		transactions: append([]Transaction{}, w.transactions...),
		keccakKeys:   append([]smt.BitVec{}, w.keccakKeys...),
		node:         w.node,
		codeCache:    w.codeCache,
	}
	for addr, acc := range w.accounts {
		cp.accounts[addr] = acc
	}
	return cp
}
