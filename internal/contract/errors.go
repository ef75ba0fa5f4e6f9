package contract

import "errors"

var (
	// ErrNotRegistered is returned when an operation names an unknown repository.
	ErrNotRegistered = errors.New("repository not registered")

	// ErrInvalidEndpointReference is returned when a consumer registration names
	// an endpoint the producer does not currently expose.
	ErrInvalidEndpointReference = errors.New("endpoint not found in producer")
)
