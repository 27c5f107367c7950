package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// SuggestionEventMessage is published (best-effort, after commit) whenever a
// suggestion is created by an agent run or changes lifecycle status.
type SuggestionEventMessage struct {
	ClientId       string    `json:"client_id"`
	SuggestionKind string    `json:"suggestion_kind"` // "promotion" | "order"
	SuggestionId   int       `json:"suggestion_id"`
	OldStatus      string    `json:"old_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	OccurredAt     time.Time `json:"occurred_at"`
	CorrelationId  string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	// Prefer explicit override.
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	// Common fallback.
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Uses Application Default Credentials (Cloud Run service account or GOOGLE_APPLICATION_CREDENTIALS).
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}

	pubsubClientMu.Lock()
	if pubsubClient == nil {
		pubsubClient = c
	} else {
		// Another goroutine won the race; close ours.
		_ = c.Close()
	}
	c2 := pubsubClient
	pubsubClientMu.Unlock()

	log.Printf("pubsub client ready (project_id=%s)", projectID)
	return c2, nil
}

// SuggestionEventsEnabled reports whether lifecycle event publishing is configured.
func SuggestionEventsEnabled() bool {
	return os.Getenv("SUGGESTION_EVENTS_TOPIC") != "" && getPubSubProjectID() != ""
}

// PublishSuggestionEvent publishes a lifecycle event. Callers treat failures as
// non-fatal: the suggestion record is the source of truth, the event stream is
// a downstream convenience.
func PublishSuggestionEvent(ctx context.Context, msg SuggestionEventMessage) (string, error) {
	topicName := os.Getenv("SUGGESTION_EVENTS_TOPIC")
	if topicName == "" {
		return "", errors.New("SUGGESTION_EVENTS_TOPIC is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	t := client.Topic(topicName)
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := t.Publish(ctx, &pubsub.Message{
		Data: msgJSON,
	})

	id, err := result.Get(ctx)
	return id, err
}
