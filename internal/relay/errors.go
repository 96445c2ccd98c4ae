package relay

// missingKeyError signals that neither the request nor the server supplied an
// upstream API key, for 401 mapping.
type missingKeyError struct{}

func (missingKeyError) Error() string { return "no API key provided" }

// ErrMissingKey constructs a missingKeyError.
func ErrMissingKey() error { return missingKeyError{} }

// IsMissingKey reports whether err indicates an absent API key.
func IsMissingKey(err error) bool {
	_, ok := err.(missingKeyError)
	return ok
}

// modelNotFoundError signals a model id outside the catalog, for 404 mapping.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether err indicates an unknown model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// upstreamError covers everything that went wrong talking to the provider:
// rejected keys, non-2xx statuses, network failures. The relay makes a single
// best-effort attempt, so all of these surface as a generic failure.
type upstreamError struct{ msg string }

func (e upstreamError) Error() string { return e.msg }

// ErrUpstream constructs an upstreamError.
func ErrUpstream(msg string) error { return upstreamError{msg: msg} }

// IsUpstream reports whether err indicates an upstream/network failure.
func IsUpstream(err error) bool {
	_, ok := err.(upstreamError)
	return ok
}
