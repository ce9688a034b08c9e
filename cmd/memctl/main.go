// Package main implements the memctl CLI for manual operations against the
// memoryd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the memoryd HTTP server
	serverURL string
	// projectCodename selects the project the memory commands operate on
	projectCodename string
	// outputRawJSON switches command output to raw JSON
	outputRawJSON bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "CLI for memoryd HTTP server operations",
	Long: `memctl is a command-line interface for interacting with the memoryd HTTP server.
It stores, searches, and manages per-project memories.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9080", "memoryd server URL")
	rootCmd.PersistentFlags().StringVar(&projectCodename, "project", "default", "project codename")
	rootCmd.PersistentFlags().BoolVar(&outputRawJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check memoryd server health",
	Long: `Check the health status of the memoryd HTTP server.

Examples:
  # Check health
  memctl health

  # Check health on a different server
  memctl health --server http://localhost:8080`,
	RunE: runHealth,
}

// HealthResponse matches internal/http/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	var health HealthResponse
	if err := doJSON(http.MethodGet, "/health", nil, &health); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(health)
	}

	fmt.Printf("Server Status: %s\n", health.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	return nil
}

// doJSON sends one JSON request to the server and decodes the response into
// out (skipped when out is nil). Non-200 responses are surfaced as errors
// carrying the server's message.
func doJSON(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqURL := serverURL + path
	req, err := http.NewRequest(method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts the message field from an error body, falling
// back to the raw body text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return "(no response body)"
	}
	var body struct {
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != nil {
		return fmt.Sprintf("%v", body.Message)
	}
	return string(data)
}

// projectPath builds a memories path for the selected project. The codename
// is escaped so malformed values reach the server and fail validation there.
func projectPath(suffix string) string {
	return "/api/projects/" + url.PathEscape(projectCodename) + "/memories" + suffix
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
