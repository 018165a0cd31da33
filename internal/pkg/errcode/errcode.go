package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrTooMany
	ErrInternal
	ErrUnsupportedFileType
	ErrEmptyDocument
	ErrEmptyQuery
	ErrIndexCorrupt
	ErrSessionNotFound
	ErrUploadFailed
	ErrAIUnavailable
)
