package calendly

import "fmt"

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status int
	Code   string
	Body   string

	err error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("calendly: status %d: %s: %s", e.Status, e.Code, e.Body)
	}
	return fmt.Sprintf("calendly: status %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.err
}
