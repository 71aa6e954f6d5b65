package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"pixly/internal/api"
	"pixly/internal/config"
)

const daemonQueryTimeout = 3 * time.Second

var errDaemonNotRunning = errors.New("daemon not running")

// fetchDaemonStatus asks a running daemon for its status over the
// dashboard API.
func fetchDaemonStatus(ctx context.Context, cfg *config.Config) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	base, err := daemonBaseURL(cfg.Paths.APIBind)
	if err != nil {
		return status, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, daemonQueryTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return status, err
	}
	if token := strings.TrimSpace(cfg.Paths.APIToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return status, fmt.Errorf("%w: %v", errDaemonNotRunning, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return status, fmt.Errorf("daemon status: %s", apiErr.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode daemon status: %w", err)
	}
	return status, nil
}

// daemonBaseURL turns a listen address into a dialable URL. Wildcard hosts
// resolve to loopback.
func daemonBaseURL(bind string) (string, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "", fmt.Errorf("invalid api_bind %q: %w", bind, err)
	}
	if port == "" || port == "0" {
		return "", fmt.Errorf("%w: api_bind %q has no fixed port", errDaemonNotRunning, bind)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}
