package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/sandbox"
	"github.com/coursekit/engine/internal/store"
)

// Kind is one of the stable error codes from spec.md section 7. Codes
// are stable; presentation (what a caller shows a user) is not.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindNotUnlocked         Kind = "NotUnlocked"
	KindConflict            Kind = "Conflict"
	KindInvalidInput        Kind = "InvalidInput"
	KindStorageBusy         Kind = "StorageBusy"
	KindStorageCorrupt      Kind = "StorageCorrupt"
	KindStorageUnavailable  Kind = "StorageUnavailable"
	KindSandboxDisabled     Kind = "SandboxDisabled"
	KindSandboxUnavailable  Kind = "SandboxUnavailable"
	KindSandboxImageMissing Kind = "SandboxImageMissing"
	KindSandboxStartFailed  Kind = "SandboxStartFailed"
	KindSandboxExecFailed   Kind = "SandboxExecFailed"
	KindJudgeDisabled       Kind = "JudgeDisabled"
	KindJudgeUnavailable    Kind = "JudgeUnavailable"
	KindJudgeRateLimited    Kind = "JudgeRateLimited"
	KindJudgeTimeout        Kind = "JudgeTimeout"
	KindParseError          Kind = "ParseError"
	KindQuotaExceeded       Kind = "QuotaExceeded"
	KindInvalidArtifact     Kind = "InvalidArtifact"
	KindCancelled           Kind = "Cancelled"
)

// Error is the one error type every Command Surface operation returns.
// It carries a stable Kind for mapping to a user-facing message plus the
// underlying cause for logging, mirroring the teacher's internal/llm
// Err-wrapping shape generalized to one envelope type instead of one
// struct per kind, since the command surface's kinds number in the
// dozens and come largely from wrapping other packages' own typed
// errors rather than originating new ones.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ErrNotFound builds a NotFound command error for entity/id.
func ErrNotFound(entity, id string) *Error {
	return newErr(KindNotFound, fmt.Sprintf("%s %q not found", entity, id))
}

// ErrNotUnlocked builds a NotUnlocked command error for a node whose
// prerequisites are incomplete.
func ErrNotUnlocked(nodeID string) *Error {
	return newErr(KindNotUnlocked, fmt.Sprintf("node %q is not unlocked", nodeID))
}

// ErrConflict builds a Conflict command error describing what changed
// between the read and the write.
func ErrConflict(msg string) *Error {
	return newErr(KindConflict, msg)
}

// ErrInvalidInput builds an InvalidInput command error.
func ErrInvalidInput(msg string) *Error {
	return newErr(KindInvalidInput, msg)
}

// ErrCancelled wraps a caller cancellation.
func ErrCancelled(err error) *Error {
	return wrapErr(KindCancelled, err)
}

// classify maps an error surfaced by store, sandbox, or judge into the
// Command Surface's stable Kind taxonomy. Errors already of type *Error
// pass through unchanged.
func classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, context.Canceled) {
		return wrapErr(KindCancelled, err)
	}

	var storageBusy *store.ErrStorageBusy
	if errors.As(err, &storageBusy) {
		return wrapErr(KindStorageBusy, err)
	}
	var storageCorrupt *store.ErrStorageCorrupt
	if errors.As(err, &storageCorrupt) {
		return wrapErr(KindStorageCorrupt, err)
	}
	var storageUnavailable *store.ErrStorageUnavailable
	if errors.As(err, &storageUnavailable) {
		return wrapErr(KindStorageUnavailable, err)
	}
	var notFound *store.ErrNotFound
	if errors.As(err, &notFound) {
		return wrapErr(KindNotFound, err)
	}

	if errors.As(err, new(sandbox.ErrDisabled)) {
		return wrapErr(KindSandboxDisabled, err)
	}
	var sandboxUnavailable *sandbox.ErrUnavailable
	if errors.As(err, &sandboxUnavailable) {
		return wrapErr(KindSandboxUnavailable, err)
	}
	var sandboxImageMissing *sandbox.ErrImageMissing
	if errors.As(err, &sandboxImageMissing) {
		return wrapErr(KindSandboxImageMissing, err)
	}
	var sandboxStartFailed *sandbox.ErrStartFailed
	if errors.As(err, &sandboxStartFailed) {
		return wrapErr(KindSandboxStartFailed, err)
	}
	var sandboxExecFailed *sandbox.ErrExecFailed
	if errors.As(err, &sandboxExecFailed) {
		return wrapErr(KindSandboxExecFailed, err)
	}

	if errors.As(err, new(judge.ErrDisabled)) {
		return wrapErr(KindJudgeDisabled, err)
	}
	var judgeUnavailable *judge.ErrUnavailable
	if errors.As(err, &judgeUnavailable) {
		return wrapErr(KindJudgeUnavailable, err)
	}
	var judgeRateLimited *judge.ErrRateLimited
	if errors.As(err, &judgeRateLimited) {
		return wrapErr(KindJudgeRateLimited, err)
	}
	var judgeTimeout *judge.ErrTimeout
	if errors.As(err, &judgeTimeout) {
		return wrapErr(KindJudgeTimeout, err)
	}
	var parseErr *judge.ErrParseError
	if errors.As(err, &parseErr) {
		return wrapErr(KindParseError, err)
	}
	var quotaExceeded *judge.ErrQuotaExceeded
	if errors.As(err, &quotaExceeded) {
		return wrapErr(KindQuotaExceeded, err)
	}
	var invalidArtifact *judge.ErrInvalidArtifact
	if errors.As(err, &invalidArtifact) {
		return wrapErr(KindInvalidArtifact, err)
	}

	return wrapErr(KindStorageUnavailable, err)
}

// transient reports whether a Kind's documented policy is to retry
// before surfacing, per spec.md section 7.
func (k Kind) transient() bool {
	switch k {
	case KindJudgeRateLimited, KindJudgeTimeout:
		return true
	default:
		return false
	}
}
