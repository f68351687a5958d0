// Package zeroshot provides a classifier backed by a hosted zero-shot
// classification model (Hugging Face inference contract).
package zeroshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clinical-transcript-service/internal/service/classifier"
)

const providerName = "zeroshot"

// Parameters are the zero-shot pipeline parameters.
type Parameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// Request is the body sent to the inference endpoint.
type Request struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

// LabelScore is one entry of the list-shaped response some servers return.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Config configures the client.
type Config struct {
	BaseURL  string
	Model    string
	APIToken string
	Timeout  time.Duration
}

// Client is an HTTP client for a zero-shot classification model.
type Client struct {
	modelURL   string
	apiToken   string
	httpClient *http.Client
}

// New creates a new zero-shot classification client.
func New(cfg Config) *Client {
	return &Client{
		modelURL: cfg.BaseURL + "/models/" + cfg.Model,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name implements classifier.Classifier.
func (c *Client) Name() string {
	return providerName
}

// Classify sends text with its candidate labels to the model.
func (c *Client) Classify(ctx context.Context, text string, candidateLabels []string) (*classifier.Classification, error) {
	reqBody := Request{
		Inputs: text,
		Parameters: Parameters{
			CandidateLabels: candidateLabels,
			MultiLabel:      false,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("classification model returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classification model returned status %d: %s", resp.StatusCode, string(respBody))
	}

	result, err := decodeClassification(respBody)
	if err != nil {
		return nil, err
	}
	if result.Sequence == "" {
		result.Sequence = text
	}
	result.Sort()

	return result, nil
}

// Ready checks that the model endpoint answers.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classification model not ready: status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
}

// decodeClassification accepts both the {sequence, labels, scores} object and
// the [{label, score}] list.
func decodeClassification(body []byte) (*classifier.Classification, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []LabelScore
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		result := &classifier.Classification{
			Labels: make([]string, len(list)),
			Scores: make([]float64, len(list)),
		}
		for i, ls := range list {
			result.Labels[i] = ls.Label
			result.Scores[i] = ls.Score
		}
		return result, nil
	}

	var result classifier.Classification
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
