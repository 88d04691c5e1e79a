// Package summarizer defines the contract for the remote text-summarization
// dependency used by conversation memory compaction, plus concrete clients.
// Callers treat every failure identically; retries, if any, are a client's
// internal concern.
package summarizer

import (
	"context"
	"errors"
)

// DefaultInstruction is the counselling-domain prompt used when a client is
// built without an explicit one. It pins the structured facts the summary
// must keep.
const DefaultInstruction = "Summarize this conversation in 3 sentences, " +
	"preserving key student details such as scores, country interest, " +
	"course preferences, and budget."

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("summarizer: empty response")

// Message is one turn of the span to be summarized.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a short textual summary of an ordered message span.
// priorSummary, when non-empty, is earlier compacted context the new
// summary must subsume; implementations fold it into the request rather
// than concatenating it onto the result.
type Client interface {
	Summarize(ctx context.Context, messages []Message, priorSummary string) (string, error)

	// Name identifies the client for logs and telemetry.
	Name() string
}
