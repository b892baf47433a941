// Package client talks to the UrbanGrow API the way the dashboard does:
// periodic polling of the latest reading and actuator state, and
// fire-and-refetch actuator control.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ReyCannavaro/urbangrow/models"
)

const defaultTimeout = 10 * time.Second

// NetworkError is returned when the API cannot be reached, answers with a
// non-2xx status, or sends a body that does not decode.
type NetworkError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Client is a thin JSON client over the REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a 10s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// LatestReading fetches GET /api/latest-reading.
func (c *Client) LatestReading(ctx context.Context) (models.SensorReading, error) {
	var r models.SensorReading
	err := c.do(ctx, http.MethodGet, "/api/latest-reading", nil, &r)
	return r, err
}

// SensorLog fetches GET /api/sensor-log.
func (c *Client) SensorLog(ctx context.Context) ([]models.SensorReading, error) {
	var rs []models.SensorReading
	err := c.do(ctx, http.MethodGet, "/api/sensor-log", nil, &rs)
	return rs, err
}

// ActuatorStatus fetches GET /api/actuator-status.
func (c *Client) ActuatorStatus(ctx context.Context) (models.ActuatorState, error) {
	var s models.ActuatorState
	err := c.do(ctx, http.MethodGet, "/api/actuator-status", nil, &s)
	return s, err
}

// SetActuator posts one field change and returns the state the server reports.
func (c *Client) SetActuator(ctx context.Context, field models.ActuatorField, value models.SwitchState) (models.ActuatorState, error) {
	var s models.ActuatorState
	cmd := models.ActuatorCommand{Key: string(field), Value: string(value)}
	err := c.do(ctx, http.MethodPost, "/api/actuator-control", cmd, &s)
	return s, err
}

// UpdateSensor posts a reading and returns the id assigned to it.
func (c *Client) UpdateSensor(ctx context.Context, in models.ReadingInput) (uint, error) {
	var created struct {
		ID uint `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/update-sensor", in, &created)
	return created.ID, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &apiErr)
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
