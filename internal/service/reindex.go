package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"story-agent/internal/logging"
	"story-agent/internal/model"
)

// ReindexNotifier tells the external document index that a knowledge base
// file changed. Delivery is best effort; failures are logged and dropped.
type ReindexNotifier struct {
	url        string
	httpClient *http.Client
	log        *logging.Logger
}

func NewReindexNotifier(url string, log *logging.Logger) *ReindexNotifier {
	return &ReindexNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type reindexRequest struct {
	Path  string `json:"path"`
	Event string `json:"event"`
}

func (n *ReindexNotifier) Notify(ctx context.Context, event model.FileEvent) error {
	payload, err := json.Marshal(reindexRequest{Path: event.Path, Event: string(event.Kind)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reindex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reindex request: unexpected status %d", resp.StatusCode)
	}
	return nil
}
