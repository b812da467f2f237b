// Package recognition wraps the external face-recognition service. The
// service is treated as fallible and possibly slow; no call is retried
// automatically.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// UnknownName is the sentinel the service returns for a face it detected
// but could not identify. Collapse it here via Match.Known so callers never
// compare the string themselves.
const UnknownName = "Unknown"

// Match is one face result from a recognition call.
type Match struct {
	Roll       string  `json:"roll"`
	Name       string  `json:"name"`
	BBox       []int   `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// Known reports whether this match identifies an enrolled student.
func (m Match) Known() bool {
	return m.Name != "" && m.Name != UnknownName && m.Roll != "" && m.Roll != UnknownName
}

// Debug carries the service's diagnostic counters, when present.
type Debug struct {
	FacesDetected  int `json:"faces_detected"`
	KnownEncodings int `json:"known_encodings"`
}

// Result is the full response of one recognition call.
type Result struct {
	Matches []Match `json:"matches"`
	Debug   *Debug  `json:"debug,omitempty"`
}

// KnownMatches filters the result down to identified students.
func (r *Result) KnownMatches() []Match {
	var known []Match
	for _, m := range r.Matches {
		if m.Known() {
			known = append(known, m)
		}
	}
	return known
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// RecognizeFrame sends one image to the recognition service and returns its
// match list. A non-2xx response or transport failure is returned as an
// error with the service's message when one is available.
func (c *Client) RecognizeFrame(ctx context.Context, image []byte, filename string) (*Result, error) {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recognition/frame", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		recognitionRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("recognition service unreachable: %w", err)
	}
	defer resp.Body.Close()

	recognitionDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		recognitionRequests.WithLabelValues("error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			if er.Details != "" {
				return nil, fmt.Errorf("recognition failed: %s: %s", er.Error, er.Details)
			}
			return nil, fmt.Errorf("recognition failed: %s", er.Error)
		}
		return nil, fmt.Errorf("recognition failed: status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		recognitionRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode recognition response: %w", err)
	}

	recognitionRequests.WithLabelValues("ok").Inc()
	return &result, nil
}
