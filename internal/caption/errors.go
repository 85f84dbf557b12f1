package caption

// ServiceError reports a transport or service failure while calling the
// captioning service.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "caption service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ParseError reports a reply that was received but contained no valid JSON
// object or failed schema validation. Raw carries the full reply for
// diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return "caption parse: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
