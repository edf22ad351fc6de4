// Copyright 2026 The go-paperclip Authors
// This file is part of the go-paperclip library.
//
// The go-paperclip library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-paperclip library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-paperclip library. If not, see <http://www.gnu.org/licenses/>.

package protocol

import (
	"errors"
	"fmt"
)

// ErrorCodeOffset is the first protocol error code.
const ErrorCodeOffset = 6000

// Error is a definitive protocol rejection. Sentinels are compared by
// identity, so errors.Is works on values recovered with ErrorByCode.
type Error struct {
	Code uint32
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// ErrorCode returns the numeric code carried over RPC.
func (e *Error) ErrorCode() int {
	return int(e.Code)
}

var (
	errorList []*Error
	byCode    = make(map[uint32]*Error)
	byName    = make(map[string]*Error)
)

func newError(name, msg string) *Error {
	e := &Error{Code: ErrorCodeOffset + uint32(len(errorList)), Name: name, Msg: msg}
	errorList = append(errorList, e)
	byCode[e.Code] = e
	byName[e.Name] = e
	return e
}

// Protocol errors. The order fixes the codes and must only ever be appended to.
var (
	ErrUnauthorized               = newError("Unauthorized", "Unauthorized")
	ErrTaskInactive               = newError("TaskInactive", "Task is not active")
	ErrTaskFullyClaimed           = newError("TaskFullyClaimed", "Task is fully claimed")
	ErrMathOverflow               = newError("MathOverflow", "Math overflow")
	ErrTierTooLow                 = newError("TierTooLow", "Agent tier is too low for this task")
	ErrMissingRequiredTaskProof   = newError("MissingRequiredTaskProof", "Required prerequisite task has not been completed")
	ErrInvalidPrerequisiteAccount = newError("InvalidPrerequisiteAccount", "Invalid prerequisite account provided")
	ErrInvalidTaskPrerequisite    = newError("InvalidTaskPrerequisite", "Task cannot require itself as a prerequisite")
	ErrInvalidInviteCode          = newError("InvalidInviteCode", "Invalid invite code")
	ErrInviteInactive             = newError("InviteInactive", "Invite is inactive")
	ErrSelfReferralNotAllowed     = newError("SelfReferralNotAllowed", "Self-referral is not allowed")
	ErrAgentNotRegistered         = newError("AgentNotRegistered", "Agent is not registered")
	ErrAgentAlreadyRegistered     = newError("AgentAlreadyRegistered", "Agent is already registered")
	ErrAlreadyClaimed             = newError("AlreadyClaimed", "Task already claimed by this agent")
	ErrInviteAlreadyExists        = newError("InviteAlreadyExists", "Invite already exists for this agent")
	ErrAlreadyInitialized         = newError("AlreadyInitialized", "Protocol is already initialized")
	ErrNotInitialized             = newError("NotInitialized", "Protocol is not initialized")
	ErrTaskNotFound               = newError("TaskNotFound", "Task does not exist")
	ErrTaskAlreadyExists          = newError("TaskAlreadyExists", "Task id is already in use")
	ErrInvalidAccount             = newError("InvalidAccount", "Account does not match its derived address")
	ErrInvalidInstruction         = newError("InvalidInstruction", "Malformed instruction data")
)

// Errors returns every protocol error in code order.
func Errors() []*Error {
	return append([]*Error(nil), errorList...)
}

// ErrorByCode returns the sentinel for a receipt error code, nil if unknown.
func ErrorByCode(code uint32) *Error {
	return byCode[code]
}

// ErrorByName returns the sentinel with the given name, nil if unknown.
func ErrorByName(name string) *Error {
	return byName[name]
}

// CodeOf extracts the protocol error code carried by err.
func CodeOf(err error) (uint32, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return 0, false
}

// IsAuthorization reports whether the caller lacked the required role.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsArithmetic reports whether err is a checked-arithmetic failure.
func IsArithmetic(err error) bool {
	return errors.Is(err, ErrMathOverflow)
}

// IsPrecondition reports whether err is a business-rule rejection.
func IsPrecondition(err error) bool {
	var perr *Error
	if !errors.As(err, &perr) {
		return false
	}
	return perr != ErrUnauthorized && perr != ErrMathOverflow
}

// ErrTransient marks infrastructure failures that may be retried once.
var ErrTransient = errors.New("transient failure")

type transientError struct{ err error }

func (e *transientError) Error() string        { return e.err.Error() }
func (e *transientError) Unwrap() error        { return e.err }
func (e *transientError) Is(target error) bool { return target == ErrTransient }

// Transient wraps err as a retryable infrastructure failure. Protocol errors
// are definitive and are returned unchanged.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) || errors.Is(err, ErrTransient) {
		return err
	}
	return &transientError{err}
}

// IsTransient reports whether err may be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
