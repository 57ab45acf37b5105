package domain

import "errors"

// Kind classifies pipeline failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFormat
	KindExtractionFailed
	KindEmptyDocument
	KindEmbeddingUnavailable
	KindBuild
	KindRetrievalUnavailable
	KindGenerationFailed
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindExtractionFailed:
		return "extraction failed"
	case KindEmptyDocument:
		return "no text extracted"
	case KindEmbeddingUnavailable:
		return "embedding unavailable"
	case KindBuild:
		return "index build failed"
	case KindRetrievalUnavailable:
		return "retrieval unavailable"
	case KindGenerationFailed:
		return "generation failed"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrUnsupportedFormat    = &Error{Kind: KindUnsupportedFormat}
	ErrExtractionFailed     = &Error{Kind: KindExtractionFailed}
	ErrEmptyDocument        = &Error{Kind: KindEmptyDocument}
	ErrEmbeddingUnavailable = &Error{Kind: KindEmbeddingUnavailable}
	ErrBuild                = &Error{Kind: KindBuild}
	ErrRetrievalUnavailable = &Error{Kind: KindRetrievalUnavailable}
	ErrGenerationFailed     = &Error{Kind: KindGenerationFailed}
)

// Error is a classified failure of one pipeline operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels above work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
