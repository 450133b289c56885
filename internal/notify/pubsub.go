package notify

import (
	"context"
	"encoding/json"
	"log"

	"cloud.google.com/go/pubsub"
)

// PubSubEmitter publishes events to a Google Cloud Pub/Sub topic so
// downstream operator tooling can subscribe without touching the engine.
type PubSubEmitter struct {
	ctx    context.Context
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubEmitter connects to the project and binds the topic.
func NewPubSubEmitter(ctx context.Context, projectID, topicID string) (*PubSubEmitter, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &PubSubEmitter{
		ctx:    ctx,
		client: client,
		topic:  client.Topic(topicID),
	}, nil
}

// Emit publishes asynchronously; failures are logged and swallowed.
func (e *PubSubEmitter) Emit(event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Printf("notify: pubsub marshal failed: %v", err)
		return
	}

	res := e.topic.Publish(e.ctx, &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			"outcome":    event.Outcome,
			"risk_level": event.RiskLevel,
		},
	})

	go func() {
		if _, err := res.Get(e.ctx); err != nil {
			log.Printf("notify: pubsub publish failed: %v", err)
		}
	}()
}

// Close releases the underlying client.
func (e *PubSubEmitter) Close() error {
	e.topic.Stop()
	return e.client.Close()
}
