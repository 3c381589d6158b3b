// Copyright 2015 The go-core Authors
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

// Package params holds a handful of chain constants trimmed from the
// teacher's full protocol parameter table. No package in this module
// imports it: the engine and the bundled evaluator enforce none of these
// limits.
package params

const (
	// StackLimit is the maximum number of elements a machine state's stack
	// may hold.
	StackLimit = 1024

	// CallCreateDepth is the chain's maximum CALL/CREATE nesting depth.
	CallCreateDepth = 1024

	// MaxCodeSize is the largest code blob a contract-creation transaction
	// may deploy.
	MaxCodeSize = 24576

	// DefaultGasLimit is a default gas limit for a run.
	DefaultGasLimit = 10000000000
)
