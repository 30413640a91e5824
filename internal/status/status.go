// Package status publishes session progress to an MQTT broker so a
// remote dashboard can mirror the on-device display.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sonitus/sonitus/internal/session"
)

// payload is the JSON shape published per update.
type payload struct {
	Phase     string `json:"phase"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Stimuli   uint64 `json:"stimuli"`
}

// Publish connects to the broker, publishes one status message, and
// disconnects. Each invocation creates a fresh connection — simple and
// stateless; a session publishes at most once a second.
func Publish(broker, clientID, topic string, st session.Status) error {
	msg, err := Marshal(st)
	if err != nil {
		return err
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second)

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	defer client.Disconnect(250)

	pub := client.Publish(topic, 0, true, msg)
	if !pub.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if pub.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", pub.Error())
	}
	return nil
}

// Marshal renders the status payload published to the broker.
func Marshal(st session.Status) ([]byte, error) {
	return json.Marshal(payload{
		Phase:     st.Phase.String(),
		ElapsedMs: st.Elapsed.Milliseconds(),
		Stimuli:   st.Stimuli,
	})
}

// Publisher is a session.Display that forwards status to MQTT,
// throttled so the 100 ms sampler does not flood the broker. Publish
// failures are best-effort: reported to stderr once, never fatal.
type Publisher struct {
	Broker   string
	ClientID string
	Topic    string

	mu     sync.Mutex
	last   time.Time
	warned bool
}

const minPublishGap = time.Second

func (p *Publisher) Update(st session.Status) {
	p.mu.Lock()
	if time.Since(p.last) < minPublishGap {
		p.mu.Unlock()
		return
	}
	p.last = time.Now()
	p.mu.Unlock()

	go func() {
		if err := Publish(p.Broker, p.ClientID, p.Topic, st); err != nil {
			p.mu.Lock()
			if !p.warned {
				fmt.Fprintf(os.Stderr, "status: %v\n", err)
				p.warned = true
			}
			p.mu.Unlock()
		}
	}()
}

func (p *Publisher) Report(error) {}
