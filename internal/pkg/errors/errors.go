package errors

import "errors"

var (
	ErrEmptyDocument       = errors.New("document has no extractable text")
	ErrEmptyQuery          = errors.New("query is empty")
	ErrIndexNotFound       = errors.New("vector index not found")
	ErrIndexCorrupt        = errors.New("vector index corrupt")
	ErrProviderMismatch    = errors.New("vector index built by different embedding provider")
	ErrProviderFailure     = errors.New("ai provider call failed")
	ErrSessionNotFound     = errors.New("chat session not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalid             = errors.New("invalid")
	ErrInternal            = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrIndexNotFound)
}
