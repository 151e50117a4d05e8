// Package llmextract implements the LLM Extractor (C5): prompt assembly,
// the OpenAI-compatible chat-completions call, response parsing with a
// JSON-repair fallback, error-kind classification, and a per-process
// circuit breaker (spec §4.5).
package llmextract

import "github.com/tutordex/aggregator/pkg/enrichment"

// ErrorKind is the closed taxonomy spec §4.5 step 3 names.
type ErrorKind string

// LLM error kinds, in the order the response pipeline can produce them.
const (
	ErrorNone                ErrorKind = ""
	ErrorNetworkTimeout      ErrorKind = "network_timeout"
	ErrorNetworkRefused      ErrorKind = "network_refused"
	ErrorHTTP5xx             ErrorKind = "http_5xx"
	ErrorHTTP4xx             ErrorKind = "http_4xx"
	ErrorEmptyResponse       ErrorKind = "empty_response"
	ErrorInvalidJSON         ErrorKind = "invalid_json"
	ErrorSchemaShapeMismatch ErrorKind = "schema_shape_mismatch"
	ErrorCircuitOpen         ErrorKind = "llm_circuit_open"
)

// Result is the outcome of one extraction call: either a parsed
// assignment or an error kind, never both (spec §4.5 step 4).
type Result struct {
	Assignment *enrichment.ParsedAssignment
	ErrorKind  ErrorKind
	ErrorMsg   string
	LatencyMS  int64

	// Metadata recorded into the job's meta for auditability (spec §4.5
	// "Metadata recorded in meta: prompt source + SHA-256, ...").
	PromptSHA256  string
	ExampleSetSig string
	Model         string
}
