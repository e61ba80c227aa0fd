package effects

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ivlev/keyscroll/internal/config"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	queueSize      = 64
)

// FrameEvent is the payload published for every rendered frame
type FrameEvent struct {
	Frame int    `json:"frame"`
	Total int    `json:"total"`
	Theme string `json:"theme"`
}

// Dial connects to the broker from cfg.
func Dial(ctx context.Context, cfg config.MQTT, clientID string) (mqtt.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection timeout: %s", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return client, nil
}

// NotifierStats counts what happened to the frame events
type NotifierStats struct {
	Published int
	Dropped   int
	Failed    int
}

// MQTTNotifier publishes rendered frame indices for external light rigs.
// OnFrame only enqueues; a single worker publishes in order and drops
// events when the broker falls behind.
type MQTTNotifier struct {
	topic      string
	total      int
	theme      func() Theme
	publish    func(topic string, payload []byte) error
	disconnect func()
	logger     *log.Logger

	events chan FrameEvent
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	stats  NotifierStats
}

// NewMQTTNotifier publishes to topic through client. theme may be nil.
// Close disconnects the client.
func NewMQTTNotifier(client mqtt.Client, topic string, total int, theme func() Theme) *MQTTNotifier {
	n := newNotifier(topic, total, theme, func(topic string, payload []byte) error {
		token := client.Publish(topic, 0, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("publish timeout")
		}
		return token.Error()
	})
	n.disconnect = func() { client.Disconnect(250) }
	return n
}

func newNotifier(topic string, total int, theme func() Theme, publish func(string, []byte) error) *MQTTNotifier {
	n := &MQTTNotifier{
		topic:   topic,
		total:   total,
		theme:   theme,
		publish: publish,
		logger:  log.Default(),
		events:  make(chan FrameEvent, queueSize),
		done:    make(chan struct{}),
	}
	go n.loop()
	return n
}

// OnFrame has the player callback signature.
func (n *MQTTNotifier) OnFrame(index int) {
	ev := FrameEvent{Frame: index, Total: n.total, Theme: Light.String()}
	if n.theme != nil {
		ev.Theme = n.theme().String()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.events <- ev:
	default:
		n.stats.Dropped++
	}
}

func (n *MQTTNotifier) loop() {
	defer close(n.done)
	for ev := range n.events {
		payload, err := json.Marshal(ev)
		if err == nil {
			err = n.publish(n.topic, payload)
		}

		n.mu.Lock()
		if err != nil {
			n.stats.Failed++
		} else {
			n.stats.Published++
		}
		n.mu.Unlock()

		if err != nil {
			n.logger.Printf("[!] mqtt: кадр %d не отправлен: %v", ev.Frame, err)
		}
	}
}

func (n *MQTTNotifier) Stats() NotifierStats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

// Close flushes queued events and disconnects. Later OnFrame calls are
// ignored.
func (n *MQTTNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.events)
	n.mu.Unlock()

	<-n.done
	if n.disconnect != nil {
		n.disconnect()
	}
	return nil
}
