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

package laser

import "errors"

// ErrBadSessionConfig covers every configuration error that must fail at the
// call site rather than mid-campaign: both sym_exec modes supplied or
// neither, or no creation or message-call driver for the mode in use. An
// unknown lifecycle hook kind is reported as *hooks.ErrUnknownHookKind.
var ErrBadSessionConfig = errors.New("laser: bad session configuration")

// InvariantError is the SVMError class: an internal invariant break, fatal
// to the running campaign. The driver logs a dump of the state being
// executed when the invariant broke and returns the error from SymExec.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string { return "laser: invariant violated: " + e.Detail }
