// Package schema loads the schema contract the resolver and the variant
// discriminator must satisfy.
//
// The contract lives in schema.cue, embedded at build time and evaluated
// with the CUE Go API. It declares, per output type, the field rules used
// to fill absent values, the foreign-key relations to resolve, and the
// derived fields computed in Go; plus placeholders for required references,
// enumerations, payload variants and the mutation field whitelists.
//
// Load evaluates the embedded file once. Parse accepts any CUE source of
// the same shape, which tests use to exercise malformed contracts.
package schema
