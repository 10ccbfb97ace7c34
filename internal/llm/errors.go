package llm

import "fmt"

// ServiceError reports a non-2xx answer from the generation service.
type ServiceError struct {
	StatusCode int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("http error: %d", e.StatusCode)
}

// ConnectionError reports that the generation service could not be reached
// (DNS failure, refused or reset connection, timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DecodeError reports a 2xx response whose body was not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid response body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
