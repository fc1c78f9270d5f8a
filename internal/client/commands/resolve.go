package commands

import (
	"codesearch/internal/codesearch"
	"context"
	"errors"
)

// ExitUsage is the process status for usage errors.
const ExitUsage = 2

// ErrMissingTarget is reported when a signature command has neither a
// signature nor both a path and a word.
//
//nolint:staticcheck // user-facing message
var ErrMissingTarget = errors.New("Both PATH and WORD must be specified")

// UsageError marks a failure caused by the command line itself. It exits
// with status ExitUsage. Parse failures are reported on standard error and a
// missing target on standard output.
type UsageError struct {
	Err error

	// printed is set once the message has been written.
	printed bool
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	var ue *UsageError
	if errors.As(err, &ue) {
		return err
	}
	return &UsageError{Err: err}
}

// SymbolLookup finds the signature of a word in a file.
type SymbolLookup interface {
	GetSignatureForSymbol(ctx context.Context, path, word string) (string, error)
}

// ResolveSignature returns the explicit signature when given, otherwise looks
// up word in path. Missing either of path and word is a usage error.
func ResolveSignature(ctx context.Context, inv *Invocation, lookup SymbolLookup) (string, error) {
	if inv.Signature != "" {
		return inv.Signature, nil
	}
	if inv.Path == "" || inv.Word == "" {
		return "", &UsageError{Err: ErrMissingTarget}
	}
	return lookup.GetSignatureForSymbol(ctx, inv.Path, inv.Word)
}

// ResolveEdgeFilter returns every known edge kind when all is set, the given
// kinds in order otherwise, or an empty filter to leave the choice to the
// backend.
func ResolveEdgeFilter(all bool, kinds []codesearch.EdgeKind) []codesearch.EdgeKind {
	if all {
		return codesearch.AllEdgeKinds()
	}
	if len(kinds) > 0 {
		return append([]codesearch.EdgeKind(nil), kinds...)
	}
	return []codesearch.EdgeKind{}
}
