package services

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	KindMissingInput              ErrorKind = "MissingInput"
	KindMalformedInput            ErrorKind = "MalformedInput"
	KindUnknownClassification     ErrorKind = "UnknownClassification"
	KindClassificationRootMissing ErrorKind = "ClassificationRootMissing"
	KindCyclicSpaceGraph          ErrorKind = "CyclicSpaceGraph"
	KindInvalidGroupReference     ErrorKind = "InvalidGroupReference"
)

// Sentinels for errors.Is; a MigrationError matches the sentinel of its kind.
var (
	ErrMissingInput              = &MigrationError{Kind: KindMissingInput}
	ErrMalformedInput            = &MigrationError{Kind: KindMalformedInput}
	ErrUnknownClassification     = &MigrationError{Kind: KindUnknownClassification}
	ErrClassificationRootMissing = &MigrationError{Kind: KindClassificationRootMissing}
	ErrCyclicSpaceGraph          = &MigrationError{Kind: KindCyclicSpaceGraph}
	ErrInvalidGroupReference     = &MigrationError{Kind: KindInvalidGroupReference}
)

type MigrationError struct {
	Kind    ErrorKind
	XID     string
	Message string
	Cause   error
}

func (e *MigrationError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.XID != "" {
		msg += fmt.Sprintf(" (xid %s)", e.XID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MigrationError) Unwrap() error { return e.Cause }

func (e *MigrationError) Is(target error) bool {
	t, ok := target.(*MigrationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.XID == "" || t.XID == e.XID)
}

func newMigrationError(kind ErrorKind, xid, message string, cause error) *MigrationError {
	return &MigrationError{Kind: kind, XID: xid, Message: message, Cause: cause}
}

// KindOf returns the kind of the first MigrationError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var me *MigrationError
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return "", false
}

// XIDOf returns the descriptor XID recorded on err, if any.
func XIDOf(err error) string {
	var me *MigrationError
	if errors.As(err, &me) {
		return me.XID
	}
	return ""
}
