package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultAddr = "http://127.0.0.1:8080"

// apiClient performs JSON round trips against the ledgerd API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	addr  string
	token string
}

func (c *commonFlags) register(f *flag.FlagSet) {
	addr := os.Getenv("LEDGERD_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	f.StringVar(&c.addr, "addr", addr, "Base URL of the ledgerd API.")
	f.StringVar(&c.token, "token", os.Getenv("LEDGERD_ADMIN_TOKEN"), "Admin session token for gated operations.")
}

func (c *commonFlags) client() *apiClient {
	return &apiClient{
		base:  c.addr,
		token: c.token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

type problemDetail struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		payload = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Admin-Token", c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var problem problemDetail
		if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil && problem.Title != "" {
			if problem.Detail != "" {
				return fmt.Errorf("%s: %s", problem.Title, problem.Detail)
			}
			return fmt.Errorf("%s", problem.Title)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
