package models

import (
	"strings"

	"github.com/tidwall/gjson"
)

// GJSON paths into a streamGenerateContent event
const (
	PathPartsText     = "candidates.0.content.parts.#.text"
	PathFinishReason  = "candidates.0.finishReason"
	PathBlockReason   = "promptFeedback.blockReason"
	PathErrorMessage  = "error.message"
	PathErrorStatus   = "error.status"
	PathErrorCode     = "error.code"
	PathUsageTotal    = "usageMetadata.totalTokenCount"
	PathModelVersion  = "modelVersion"
	FinishReasonStop  = "STOP"
	FinishReasonSafe  = "SAFETY"
	FinishReasonRecit = "RECITATION"
)

// StreamChunk is one decoded event of a streamed reply
type StreamChunk struct {
	Text         string
	FinishReason string
	BlockReason  string
	ModelVersion string
	TotalTokens  int64

	// Set when the event is an error payload
	ErrorCode    int
	ErrorStatus  string
	ErrorMessage string
}

// ParseStreamChunk decodes a single JSON event. ok is false when data is not
// valid JSON.
func ParseStreamChunk(data []byte) (chunk StreamChunk, ok bool) {
	if !gjson.ValidBytes(data) {
		return chunk, false
	}
	res := gjson.ParseBytes(data)

	if e := res.Get("error"); e.Exists() {
		chunk.ErrorCode = int(res.Get(PathErrorCode).Int())
		chunk.ErrorStatus = res.Get(PathErrorStatus).String()
		chunk.ErrorMessage = res.Get(PathErrorMessage).String()
		if chunk.ErrorMessage == "" {
			chunk.ErrorMessage = e.String()
		}
		return chunk, true
	}

	var sb strings.Builder
	for _, part := range res.Get(PathPartsText).Array() {
		sb.WriteString(part.String())
	}
	chunk.Text = sb.String()
	chunk.FinishReason = res.Get(PathFinishReason).String()
	chunk.BlockReason = res.Get(PathBlockReason).String()
	chunk.ModelVersion = res.Get(PathModelVersion).String()
	chunk.TotalTokens = res.Get(PathUsageTotal).Int()

	return chunk, true
}

// IsError reports whether the chunk is an error payload
func (c StreamChunk) IsError() bool {
	return c.ErrorMessage != "" || c.ErrorStatus != "" || c.ErrorCode != 0
}

// IsBlocked reports whether the provider refused the prompt or cut the reply
// for safety or recitation reasons
func (c StreamChunk) IsBlocked() bool {
	return c.BlockReason != "" ||
		c.FinishReason == FinishReasonSafe ||
		c.FinishReason == FinishReasonRecit
}

// Reason returns the block reason for a blocked chunk
func (c StreamChunk) Reason() string {
	if c.BlockReason != "" {
		return c.BlockReason
	}
	return c.FinishReason
}

// ParseErrorBody extracts status and message from a non-200 response body.
// Falls back to the raw body (truncated) when it is not a JSON error.
func ParseErrorBody(body []byte) (status, message string) {
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		// Errors may come as an object or as a one-element array
		if res.IsArray() {
			res = res.Get("0")
		}
		status = res.Get(PathErrorStatus).String()
		message = res.Get(PathErrorMessage).String()
		if message != "" {
			return status, message
		}
	}
	message = strings.TrimSpace(string(body))
	if len(message) > 512 {
		message = message[:512] + "..."
	}
	return status, message
}
