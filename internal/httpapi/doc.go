// Package httpapi exposes the engine over HTTP with gin.
//
// Routes:
//
//	GET  /healthz             liveness
//	POST /query/:name         run a named query
//	POST /mutation/:name      run a named mutation
//	GET  /charges/:id         one live charge
//	GET  /pumps/:id           one live pump
//	GET  /metrics             Prometheus exposition
//
// Successful calls answer {"data": ...}; failures answer ErrorResponse.
package httpapi
