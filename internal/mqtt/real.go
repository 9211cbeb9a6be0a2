package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

const clientID = "greenhouse-controller"

// bufferCapacity bounds how many messages are held while disconnected.
const bufferCapacity = 256

// RealClient publishes to an actual MQTT broker and subscribes to the
// override command topics.
type RealClient struct {
	client paho.Client

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealClient connects to the broker, retrying the initial connect with
// exponential backoff; after that paho's auto-reconnect takes over. If
// onCommand is non-nil the command topics are subscribed on every
// (re)connect, and buffered messages are replayed.
func NewRealClient(broker string, onCommand CommandHandler) (*RealClient, error) {
	c := &RealClient{buffer: newRingBuffer(bufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(client paho.Client) {
			c.subscribeCommands(client, onCommand)
			c.drainBuffer(client)
		})

	c.client = paho.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Minute
	err := backoff.Retry(func() error {
		token := c.client.Connect()
		token.Wait()
		return token.Error()
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return c, nil
}

func (c *RealClient) subscribeCommands(client paho.Client, onCommand CommandHandler) {
	if onCommand == nil {
		return
	}
	// QoS 1: a missed override is worse than a duplicate one.
	token := client.Subscribe(TopicCommandFilter, 1, func(_ paho.Client, msg paho.Message) {
		cmd, err := ParseCommand(msg.Topic(), msg.Payload())
		if err != nil {
			log.Printf("mqtt: ignoring command on %s: %v", msg.Topic(), err)
			return
		}
		onCommand(cmd)
	})
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("mqtt: subscribe timeout on %s", TopicCommandFilter)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("mqtt: subscribe %s: %v", TopicCommandFilter, err)
	}
}

// drainBuffer replays messages held while disconnected. Runs on paho's
// connect callback goroutine.
func (c *RealClient) drainBuffer(client paho.Client) {
	c.mu.Lock()
	msgs, dropped := c.buffer.drainAll()
	c.mu.Unlock()

	for _, m := range msgs {
		client.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	if dropped > 0 {
		log.Printf("mqtt: dropped %d oldest messages while disconnected", dropped)
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: replayed %d buffered messages", len(msgs))
	}
}

// publish sends one message, or buffers it for replay when disconnected.
func (c *RealClient) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !c.client.IsConnected() {
		c.mu.Lock()
		c.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		c.mu.Unlock()
		return nil
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishTelemetry sends a sensor snapshot. QoS 0: the next snapshot
// supersedes a lost one.
func (c *RealClient) PublishTelemetry(snap logic.Snapshot) error {
	payload, err := FormatTelemetryPayload(snap)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}
	return c.publish(TopicTelemetry, 0, false, payload)
}

// PublishTransition sends an actuator transition event. QoS 1
// (at-least-once): consumers track actuator state from these.
func (c *RealClient) PublishTransition(tr logic.Transition) error {
	payload, err := FormatTransitionPayload(tr)
	if err != nil {
		return fmt.Errorf("format transition payload: %w", err)
	}
	return c.publish(TopicEvents, 1, false, payload)
}

// PublishSystem sends a system lifecycle event. QoS 1 — we want shutdown
// events to be delivered.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return c.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
