package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixelframe/internal/daemon"
)

// apiClient talks to the daemon's HTTP control API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(address, token string) *apiClient {
	return &apiClient{
		base:  "http://" + address,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is pixelframed running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) Status() (daemon.Status, error) {
	var status daemon.Status
	err := c.do(http.MethodGet, "/api/status", nil, &status)
	return status, err
}

type actionResult struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
	Paused   bool   `json:"paused"`
}

func (c *apiClient) Action(name string) (actionResult, error) {
	var result actionResult
	err := c.do(http.MethodPost, "/api/action/"+name, nil, &result)
	return result, err
}

func (c *apiClient) GetConfig() (map[string]any, error) {
	var view map[string]any
	err := c.do(http.MethodGet, "/api/config", nil, &view)
	return view, err
}

func (c *apiClient) UpdateConfig(update map[string]any) error {
	return c.do(http.MethodPut, "/api/config", update, nil)
}
