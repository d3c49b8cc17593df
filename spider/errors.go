package spider

import (
	"errors"
	"fmt"
)

// ErrImportLimit is matched by errors.Is for any ImportLimitError.
var ErrImportLimit = errors.New("the number of files imported exceeds the maximum limit")

// ParseError reports stylesheet which could not be parsed. Fatal for the file.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q failed: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ImportLimitError reports crossing of the session import ceiling. File is
// the stylesheet which attempted the import.
type ImportLimitError struct {
	File  string
	Limit int
}

func (e *ImportLimitError) Error() string {
	return fmt.Sprintf("parse %q failed: %v (%d)", e.File, ErrImportLimit, e.Limit)
}

func (e *ImportLimitError) Is(target error) bool { return target == ErrImportLimit }

// FetchError wraps opaque failure of the resource fetcher.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unable to fetch %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ResolveError adds stylesheet path to the failure of one of its imports.
// Nested ResolveErrors form diagnostic chain from entry stylesheet down to
// the failing one.
type ResolveError struct {
	File string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("parse %q failed: %v", e.File, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// RuleExtractionError describes failure to extract a record from a single
// rule. It is logged and never returned to the caller.
type RuleExtractionError struct {
	Kind string
	File string
	Err  error
}

func (e *RuleExtractionError) Error() string {
	return fmt.Sprintf("unable to extract %s rule from %q: %v", e.Kind, e.File, e.Err)
}

func (e *RuleExtractionError) Unwrap() error { return e.Err }

// FileChain returns stylesheet paths recorded in the error chain, starting
// with the entry stylesheet and ending with the one that failed.
func FileChain(err error) []string {
	var chain []string
	for err != nil {
		switch e := err.(type) {
		case *ResolveError:
			chain = append(chain, e.File)
		case *ParseError:
			chain = append(chain, e.File)
		case *ImportLimitError:
			chain = append(chain, e.File)
		}
		err = errors.Unwrap(err)
	}
	return chain
}
