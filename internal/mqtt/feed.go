package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/screen"
)

// Subscriber is the part of Client the screen feed needs.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// ScreenFeed receives screen envelopes pushed by the backend and hands them to
// the intake. Subscription is idempotent across reconnects.
type ScreenFeed struct {
	mu         sync.Mutex
	client     Subscriber
	topic      string
	intake     *screen.Intake
	subscribed bool
}

// NewScreenFeed creates a feed on topic. topic may contain MQTT wildcards.
func NewScreenFeed(client Subscriber, topic string, intake *screen.Intake) *ScreenFeed {
	return &ScreenFeed{
		client: client,
		topic:  topic,
		intake: intake,
	}
}

// Subscribe subscribes to the feed topic if not already subscribed.
func (f *ScreenFeed) Subscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribed {
		return nil
	}
	if err := f.client.Subscribe(f.topic, f.handle); err != nil {
		events.Emit("error", "system.error", "failed to subscribe to screen feed", map[string]interface{}{
			"topic": f.topic,
			"error": err.Error(),
		})
		return err
	}
	f.subscribed = true
	return nil
}

// Resubscribe forgets the subscription and subscribes again. Call it on reconnect.
func (f *ScreenFeed) Resubscribe() error {
	f.mu.Lock()
	f.subscribed = false
	f.mu.Unlock()
	return f.Subscribe()
}

// IsSubscribed reports whether the feed topic is subscribed.
func (f *ScreenFeed) IsSubscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed
}

func (f *ScreenFeed) handle(_ paho.Client, msg paho.Message) {
	// Rejections are already reported by the intake.
	f.intake.Accept(msg.Payload(), "mqtt:"+msg.Topic())
}
