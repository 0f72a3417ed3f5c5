// Container health probe. Exits 0 when the server's liveness endpoint
// answers 200, non-zero otherwise.
package main

import (
	"context"
	"net/http"
	"os"
	"time"
)

func main() {
	port := os.Getenv("MIU_PORT")
	if port == "" {
		port = "10000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost:"+port+"/healthz", nil)
	if err != nil {
		os.Exit(1)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
