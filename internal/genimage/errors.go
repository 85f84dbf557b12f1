package genimage

import "fmt"

// ServiceError reports a transport or API failure while calling the image
// generation service.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "generation service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// EmptyResultError reports a request the service accepted without producing
// any usable image payload.
type EmptyResultError struct {
	Detail string
}

func (e *EmptyResultError) Error() string {
	return "generation returned no image payload: " + e.Detail
}

// FetchError reports a generated-image reference that could not be
// retrieved before the deadline.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch generated image %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch generated image %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }
