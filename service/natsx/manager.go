package natsx

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type NatsxConfig struct {
	Servers []string
	Name    string
}

// NatsManager is the single facade the rest of the code talks to.
type NatsManager struct {
	nc *nats.Conn
}

func NewNatsManager(cfg NatsxConfig) (*NatsManager, error) {
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("nats servers are required")
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(joinServers(cfg.Servers), opts...)
	if err != nil {
		return nil, err
	}
	return &NatsManager{nc: nc}, nil
}

func (m *NatsManager) Close() error {
	if m == nil || m.nc == nil {
		return nil
	}
	m.nc.Close()
	return nil
}

// Publish sends a fire-and-forget event.
func (m *NatsManager) Publish(subject string, data []byte, hdr map[string]string) error {
	if m == nil || m.nc == nil {
		return fmt.Errorf("manager not initialized")
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range hdr {
		msg.Header.Add(k, v)
	}
	if err := m.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

type NatsxHandler func(msg *nats.Msg)

// Subscribe with an optional queue group; broadcast when queue is empty.
func (m *NatsManager) Subscribe(subject, queue string, h NatsxHandler) (*nats.Subscription, error) {
	if m == nil || m.nc == nil {
		return nil, fmt.Errorf("manager not initialized")
	}
	if queue != "" {
		return m.nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) { h(msg) })
	}
	return m.nc.Subscribe(subject, func(msg *nats.Msg) { h(msg) })
}

func joinServers(servers []string) string {
	out := ""
	for i, s := range servers {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
