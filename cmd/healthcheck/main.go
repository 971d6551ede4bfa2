// Command healthcheck checks the relay's /healthz endpoint and exits non-zero on failure.
// It is meant for container HEALTHCHECK directives.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	url := pflag.String("url", "http://localhost:8000/healthz", "health endpoint to check")
	timeout := pflag.Duration("timeout", 3*time.Second, "request timeout")
	pflag.Parse()

	if err := checkHealth(context.Background(), &http.Client{Timeout: *timeout}, *url); err != nil {
		log.Printf("healthcheck failed: %v", err)
		os.Exit(1)
	}
}

func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
