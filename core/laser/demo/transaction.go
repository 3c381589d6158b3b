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

package demo

import (
	"fmt"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// MessageCall is the demo's state.Transaction for a CALL/top-level message
// call: a concrete sender/value/calldata minted against a Factory, and the
// mutable return_data/revert pair the lifecycle writes back through.
type MessageCall struct {
	To       common.Address
	Sender   smt.BitVec
	Value    smt.BitVec
	CallData []byte

	returnData []byte
	revert     bool
}

// NewMessageCall mints a message call against to, with sender/value minted
// as named symbolic constants so distinct calls in the same run are
// distinguishable in logs even though the literal factory cannot reason
// about them.
func NewMessageCall(to common.Address, factory smt.Factory, seq int, calldata []byte) *MessageCall {
	return &MessageCall{
		To:       to,
		Sender:   factory.BitVecConst(fmt.Sprintf("sender_%d", seq), 256),
		Value:    factory.BitVecConst(fmt.Sprintf("callvalue_%d", seq), 256),
		CallData: calldata,
	}
}

func (t *MessageCall) ReturnData() []byte     { return t.returnData }
func (t *MessageCall) SetReturnData(b []byte) { t.returnData = b }
func (t *MessageCall) SetRevert(v bool)       { t.revert = v }
func (t *MessageCall) Revert() bool           { return t.revert }
func (t *MessageCall) IsCreation() bool       { return false }
func (t *MessageCall) String() string         { return "MESSAGE_CALL(" + t.To.Hex() + ")" }

// InitialGlobalState mints the GlobalState a CALL's TransactionStartSignal
// (or the message-call driver, for a top-level round) hands to the engine:
// PC at zero, an empty stack, the transaction's own environment.
func (t *MessageCall) InitialGlobalState() *state.GlobalState {
	env := state.Environment{
		ActiveAccount: t.To,
		Sender:        t.Sender,
		CallValue:     t.Value,
		CallData:      t.CallData,
	}
	gs := state.NewGlobalState(nil, env)
	return gs
}

// Creation is the demo's state.Transaction for a contract-creation run.
// Constructor execution is out of scope for this stand-in: the init code is
// installed verbatim as the deployed contract's runtime code, which is
// correct only for constructor-less bytecode. Deployer does not mint a
// Creation, so no run of this package reaches the engine's
// top-level-creation branch through it.
type Creation struct {
	Address common.Address
	Name    string
	Code    []byte
	Sender  smt.BitVec

	returnData []byte
	revert     bool
}

func NewCreation(addr common.Address, name string, code []byte, factory smt.Factory) *Creation {
	return &Creation{
		Address: addr,
		Name:    name,
		Code:    code,
		Sender:  factory.BitVecConst("creator", 256),
	}
}

func (t *Creation) ReturnData() []byte     { return t.returnData }
func (t *Creation) SetReturnData(b []byte) { t.returnData = b }
func (t *Creation) SetRevert(v bool)       { t.revert = v }
func (t *Creation) Revert() bool           { return t.revert }
func (t *Creation) IsCreation() bool       { return true }
func (t *Creation) String() string         { return "constructor" }

func (t *Creation) InitialGlobalState() *state.GlobalState {
	env := state.Environment{
		ActiveAccount: t.Address,
		Sender:        t.Sender,
	}
	return state.NewGlobalState(nil, env)
}
