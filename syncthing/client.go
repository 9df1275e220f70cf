package syncthing

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	SYSTEM_CONFIG      = "/rest/system/config"
	SYSTEM_STATUS      = "/rest/system/status"
	SYSTEM_CONNECTIONS = "/rest/system/connections"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 15 * time.Second
)

// Client is a thin accessor for one Syncthing REST endpoint. Reads time out
// after 10s, writes after 15s; a timeout is a fatal error for that step, it
// is never retried here.
type Client struct {
	apiKey string
	url    url.URL
	read   http.Client
	write  http.Client
}

func NewClient(rawURL, apiKey string) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid syncthing host %q: %w", rawURL, err)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, // Skip certificate verification
		},
	}
	return &Client{
		apiKey: apiKey,
		url:    *parsed,
		read:   http.Client{Transport: transport, Timeout: readTimeout},
		write:  http.Client{Transport: transport, Timeout: writeTimeout},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.url.String()
}

// APIError is a non-2xx answer from Syncthing, carrying whatever detail the
// API reported so it can be shown to the user as-is.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: syncthing answered %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: syncthing answered %d", e.Op, e.StatusCode)
}

func (c *Client) Config() (Config, error) {
	var config Config
	err := c.get(SYSTEM_CONFIG, "fetch config", &config)
	return config, err
}

// PostConfig replaces the full configuration document.
func (c *Client) PostConfig(config Config) error {
	jsonData, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	url := c.url.JoinPath(SYSTEM_CONFIG)
	req, err := http.NewRequest(http.MethodPost, url.String(), bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.write.Do(req)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError("update config", resp)
	}

	return nil
}

func (c *Client) Status() (SystemStatus, error) {
	var status SystemStatus
	err := c.get(SYSTEM_STATUS, "fetch status", &status)
	return status, err
}

func (c *Client) Connections() (SystemConnections, error) {
	var connections SystemConnections
	err := c.get(SYSTEM_CONNECTIONS, "fetch connections", &connections)
	return connections, err
}

func (c *Client) get(path, op string, bodyType any) error {
	url := c.url.JoinPath(path)
	req, err := http.NewRequest(http.MethodGet, url.String(), nil)
	if err != nil {
		return err
	}

	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.read.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(op, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = json.Unmarshal(body, bodyType)
	if err != nil {
		return fmt.Errorf("%s: error unmarshalling JSON: %w", op, err)
	}

	return nil
}

func apiError(op string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(resp.Body)

	// Syncthing error bodies are either {"error": "..."} or plain text.
	var withError struct {
		Error string `json:"error"`
	}
	detail := string(bytes.TrimSpace(body))
	if err := json.Unmarshal(body, &withError); err == nil && withError.Error != "" {
		detail = withError.Error
	}

	return &APIError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
}
