package httpapi

import (
	"encoding/json"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

// QueryRequest is the body of POST /query/:name.
type QueryRequest struct {
	// Filter is passed to the engine undecoded so that each query can
	// reject fields it does not know.
	Filter json.RawMessage `json:"filter,omitempty"`

	// Fields lists dotted selection paths. Empty selects everything.
	Fields []string `json:"fields,omitempty"`
}

// MutationRequest is the body of POST /mutation/:name.
type MutationRequest struct {
	ID    string      `json:"id,omitempty"`
	Input ir.IRObject `json:"input,omitempty"`
}

// DataResponse wraps every successful result.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes that are not engine error codes.
const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeUnknownOperation = "UNKNOWN_OPERATION"
	codeInternal         = "INTERNAL"
)
