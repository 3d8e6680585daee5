// Package errs implements the compiler's flat error-kind model: every
// diagnostic carries a Kind, a source Pos, and a message, the way the
// teacher's compiler prefixes fmt.Errorf strings with "file:line:" but
// promoted to a struct so the CLI can colorize and caret-point it.
package errs

import "fmt"

// Kind is the flat enumeration of diagnostic categories.
type Kind int

const (
	// None marks an error with no particular kind (driver errors unrelated
	// to user input, e.g. a missing file argument).
	None Kind = iota
	// Parse marks a syntax error; it aborts the input entirely.
	Parse
	// Translate marks a semantic error raised while lowering the AST to
	// IR; it is recoverable at the module boundary.
	Translate
	// Internal covers diagnostics returned by a back-end collaborator.
	Internal
	// Bug is reserved for assertions that should never fire on
	// well-formed input.
	Bug
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "Parse"
	case Translate:
		return "Translate"
	case Internal:
		return "Internal"
	case Bug:
		return "Bug"
	default:
		return "None"
	}
}

// Pos is a source location. File and Text may be empty for driver errors
// that have no associated source position.
type Pos struct {
	File string
	Line int
	Col  int
	Text string // the source line the position falls on, for caret-pointing
}

func (p Pos) String() string {
	if p.File == "" && p.Line == 0 {
		return ""
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Error is the single error type produced by the parser and translator.
type Error struct {
	Kind    Kind
	Pos     Pos
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if loc := e.Pos.String(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds an Error with no wrapped cause.
func New(kind Kind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an existing error (used for Internal errors
// surfaced by a back-end collaborator).
func Wrap(kind Kind, pos Pos, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// Parsef builds a Parse-kind error at pos.
func Parsef(pos Pos, format string, args ...any) *Error {
	return New(Parse, pos, format, args...)
}

// Translatef builds a Translate-kind error at pos.
func Translatef(pos Pos, format string, args ...any) *Error {
	return New(Translate, pos, format, args...)
}

// Bugf builds a Bug-kind error asking the user to file a report.
func Bugf(pos Pos, format string, args ...any) *Error {
	e := New(Bug, pos, format, args...)
	e.Message += " (this is a compiler bug, please file a report)"
	return e
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e, true
	}
	return nil, false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
