// Package gemini is the resilient transport to the generative endpoint.
//
// [Client.Send] posts one prompt and returns the raw response body. It
// retries 429 and 5xx responses under an [httputil.Policy], bounds the whole
// sequence of attempts with an overall timeout, and reports every attempt to
// the registered [observability.TransportHooks]. Failures are returned as
// [*TransportError].
//
// The request body is
//
//	{"contents":[{"parts":[{"text":"<prompt>"}]}]}
//
// and [CandidateText] reads candidates[0].content.parts[0].text from the
// response; no other candidate or part is consulted.
package gemini
