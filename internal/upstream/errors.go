package upstream

import "fmt"

// statusError is returned when the provider answers with a non-2xx status.
type statusError struct {
	status int
	text   string
}

func (e statusError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.status, e.text)
}

// ErrStatus constructs a statusError from an upstream response.
func ErrStatus(status int, text string) error { return statusError{status: status, text: text} }

// IsUnauthorized reports whether err is an upstream auth rejection.
func IsUnauthorized(err error) bool {
	se, ok := err.(statusError)
	return ok && (se.status == 401 || se.status == 403)
}

// IsStatus reports whether err carries an upstream status, returning it.
func IsStatus(err error) (int, string, bool) {
	se, ok := err.(statusError)
	if !ok {
		return 0, "", false
	}
	return se.status, se.text, true
}
