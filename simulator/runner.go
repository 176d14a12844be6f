package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/meditrack/lifeline/core/model"
	"github.com/meditrack/lifeline/infra/logger"
)

// publisher is the subset of the Paho API the runner needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

var newClient = func(broker, clientID string) (publisher, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

// Runner replays a scenario against a broker, publishing each event to its
// room topic the way the hospital backend would.
type Runner struct {
	broker      string
	topicPrefix string
	log         logger.Logger
}

// NewRunner creates a Runner for the given broker and topic prefix.
func NewRunner(broker, topicPrefix string) *Runner {
	if topicPrefix == "" {
		topicPrefix = "hospital/rooms"
	}
	return &Runner{broker: broker, topicPrefix: topicPrefix, log: logger.New("simulator")}
}

// Run publishes the scenario's events in order, honoring per-event delays,
// until done or the context is cancelled.
func (r *Runner) Run(ctx context.Context, sc Scenario) error {
	cli, err := newClient(r.broker, "lifeline-sim-"+uuid.NewString()[:8])
	if err != nil {
		return fmt.Errorf("connect %s: %w", r.broker, err)
	}
	defer cli.Disconnect(250)

	r.log.Infof("running scenario %q (%d events)", sc.Name, len(sc.Events))
	for i, def := range sc.Events {
		if def.DelayMS > 0 {
			select {
			case <-time.After(time.Duration(def.DelayMS) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := r.publish(cli, def); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func (r *Runner) publish(cli publisher, def EventDef) error {
	body, err := json.Marshal(struct {
		Event string             `json:"event"`
		Data  model.EventPayload `json:"data"`
	}{def.Kind, def.Payload()})
	if err != nil {
		return err
	}
	topic := r.topicPrefix + "/" + def.Room
	if token := cli.Publish(topic, 0, false, body); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	r.log.Debugf("published %s to %s", def.Kind, topic)
	return nil
}
