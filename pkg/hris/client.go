// Package hris is a small client for the upstream HRIS data API.
//
// The HRIS exposes two calls: a login that returns a bearer token and a
// generic readData over named entities. Records come back as untyped maps
// keyed by the HRIS field names; see fields.go for the names the sync
// pipelines read.
package hris

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/hris-replica/pkg/runctx"
)

// Entity names understood by ReadData.
const (
	EntityOrganization = "organization"
	EntityEmployee     = "employee"
)

// Record is one HRIS record keyed by source field names.
type Record map[string]any

// Filter narrows a ReadData call. Keys are HRIS field names.
type Filter map[string]any

// ErrUnauthorized is returned when the HRIS rejects the credentials.
var ErrUnauthorized = errors.New("hris: unauthorized")

// Reader is the slice of the HRIS API the pipelines depend on.
type Reader interface {
	ReadData(ctx context.Context, entity string, filter Filter) ([]Record, error)
}

// Config configures a Client.
type Config struct {
	BaseURL         string
	Username        string
	Password        string
	RateLimitPerMin int
	Timeout         time.Duration
}

// Client talks to the HRIS over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	interval time.Duration
	log      logrus.FieldLogger

	mu       sync.Mutex
	token    string
	lastCall time.Time
}

// NewClient creates a client. A zero RateLimitPerMin disables throttling.
func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("hris: base url is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var interval time.Duration
	if cfg.RateLimitPerMin > 0 {
		interval = time.Minute / time.Duration(cfg.RateLimitPerMin)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:  base,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
		interval: interval,
		log:      log.WithField("module", "hris"),
	}, nil
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

type readResponse struct {
	Data  []Record `json:"data"`
	Items []Record `json:"items"`
}

// Login authenticates and caches the bearer token.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, "/auth/login", body, "")
	if err != nil {
		return err
	}
	var parsed loginResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return fmt.Errorf("hris: decode login: %w", err)
	}
	token := parsed.Token
	if token == "" {
		token = parsed.AccessToken
	}
	if token == "" {
		return fmt.Errorf("hris: login returned no token")
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.log.Debug("hris login succeeded")
	return nil
}

// ReadData fetches all records of entity matching filter. It logs in on first
// use and once more if the cached token has expired.
func (c *Client) ReadData(ctx context.Context, entity string, filter Filter) ([]Record, error) {
	if filter == nil {
		filter = Filter{}
	}
	body, err := json.Marshal(map[string]any{"entity": entity, "filter": filter})
	if err != nil {
		return nil, err
	}

	resp, err := c.readWithToken(ctx, body)
	if errors.Is(err, ErrUnauthorized) {
		c.log.WithFields(runctx.Fields(ctx)).WithField("entity", entity).Info("hris token rejected, logging in again")
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		resp, err = c.readWithToken(ctx, body)
	}
	if err != nil {
		return nil, err
	}

	var parsed readResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("hris: decode %s: %w", entity, err)
	}
	if parsed.Data != nil {
		return parsed.Data, nil
	}
	return parsed.Items, nil
}

func (c *Client) readWithToken(ctx context.Context, body []byte) ([]byte, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		c.mu.Lock()
		token = c.token
		c.mu.Unlock()
	}
	return c.do(ctx, "/data/read", body, token)
}

// wait blocks until the rate limit allows another call.
func (c *Client) wait(ctx context.Context) error {
	if c.interval <= 0 {
		return nil
	}
	c.mu.Lock()
	next := c.lastCall.Add(c.interval)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	c.lastCall = next
	c.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) do(ctx context.Context, path string, body []byte, token string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if task := runctx.TaskID(ctx); task != "" {
		req.Header.Set("X-Sync-Task", task)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hris: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, path)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hris: read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hris api error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
