package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Publisher is the part of Client the analytics publisher needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// AnalyticsMessage is the payload published for each tracked event.
type AnalyticsMessage struct {
	Timestamp  string                 `json:"ts"`
	AppID      string                 `json:"app_id"`
	SessionID  string                 `json:"session_id"`
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// AnalyticsPublisher forwards TRACK_EVENT payloads to an MQTT topic.
type AnalyticsPublisher struct {
	client Publisher
	topic  string
	appID  string
}

func NewAnalyticsPublisher(client Publisher, topic, appID string) *AnalyticsPublisher {
	return &AnalyticsPublisher{
		client: client,
		topic:  topic,
		appID:  appID,
	}
}

// Track publishes one analytics event.
func (p *AnalyticsPublisher) Track(ctx context.Context, sessionID, event string, properties map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(AnalyticsMessage{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		AppID:      p.appID,
		SessionID:  sessionID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		return fmt.Errorf("failed to encode analytics event: %w", err)
	}
	if err := p.client.Publish(p.topic, b); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}
