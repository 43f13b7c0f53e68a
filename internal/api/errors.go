package api

import "errors"

// ErrUnexpectedStatus indicates a non-2xx response from the service. The
// full diagnostic context is logged where the error is raised.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// ErrMalformedResponse indicates a response body that could not be decoded
// as the expected JSON shape.
var ErrMalformedResponse = errors.New("malformed response body")
