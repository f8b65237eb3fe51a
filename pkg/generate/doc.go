// Package generate turns a user prompt and the current shapes into a
// validated shape list.
//
// A [Generator] runs one request through a fixed sequence of states:
//
//	Received → Composing → Sending → Extracting → Validating → Completed
//
// A failure while sending or extracting ends in FallbackEmpty and the caller
// receives an empty result with a nil error. Only a model reply whose JSON
// array is syntactically broken ends in Failed; that error carries
// the INVALID_UPSTREAM_FORMAT code. Every failure is logged with the
// status, attempt count and an excerpt of the raw body, and each request is
// reported to the registered observability generation hooks.
//
// The returned shapes start with the request's existing shapes, in order,
// followed by the new shapes from the model.
package generate
