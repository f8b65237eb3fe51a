package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope errors returned by [CandidateText].
var (
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	ErrNoCandidates      = errors.New("response has no candidate text")
)

type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func newRequest(prompt string) request {
	return request{Contents: []content{{Parts: []part{{Text: prompt}}}}}
}

// CandidateText returns the text of the first part of the first candidate.
func CandidateText(body []byte) (string, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%w: upstream error %d %s: %s", ErrNoCandidates, resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoCandidates
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
