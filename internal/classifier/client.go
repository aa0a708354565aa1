// Package classifier is the HTTP client for the external ML prediction
// service. The model itself is a black box: features in, label plus
// confidence out.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// BenignClass is the sentinel label the model reports for non-attack flows.
const BenignClass = "BENIGN"

// Prediction is the classifier's verdict on one feature vector.
type Prediction struct {
	IsAttack     bool     `json:"is_attack"`
	AttackType   string   `json:"attack_type"`
	Confidence   float64  `json:"confidence"`
	AnomalyScore *float64 `json:"anomaly_score,omitempty"`
}

// Benign reports whether the predicted label is the benign sentinel class.
// The prediction API labels benign flows "Normal" even though the underlying
// class is BENIGN, so both spellings count.
func (p Prediction) Benign() bool {
	label := strings.ToUpper(strings.TrimSpace(p.AttackType))
	return label == BenignClass || label == "NORMAL"
}

// Client calls the prediction API with a bounded timeout. A timeout or a
// response that cannot be decoded is a gateway failure; callers abort
// ingestion without persisting anything.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the prediction API at baseURL. A zero
// timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict submits a feature map to /api/predict.
func (c *Client) Predict(ctx context.Context, features map[string]float64) (*Prediction, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call prediction api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction api returned status %d", resp.StatusCode)
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	if pred.Confidence < 0 || pred.Confidence > 1 {
		return nil, fmt.Errorf("prediction confidence %v out of range", pred.Confidence)
	}

	return &pred, nil
}

// Health probes /api/health and reports whether the model is loaded.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call prediction api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prediction api health returned status %d", resp.StatusCode)
	}

	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if !health.ModelLoaded {
		return fmt.Errorf("prediction api reports model not loaded")
	}
	return nil
}
