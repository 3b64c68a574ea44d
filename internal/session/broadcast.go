package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/floret-storefront/pkg/enums"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	redisclient "github.com/angelmondragon/floret-storefront/pkg/redis"
	"github.com/redis/go-redis/v9"
)

type pubSub interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channel string) (*redis.PubSub, error)
}

// RedisBroadcaster fans session events out over a redis channel so every
// instance hears about logins and logouts.
type RedisBroadcaster struct {
	bus     pubSub
	channel string
	logg    *logger.Logger
}

func NewRedisBroadcaster(client *redisclient.Client, channel string, logg *logger.Logger) (*RedisBroadcaster, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if channel == "" {
		return nil, fmt.Errorf("broadcast channel is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &RedisBroadcaster{bus: client, channel: channel, logg: logg}, nil
}

func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.bus.Publish(ctx, b.channel, payload)
}

// Subscribe streams decoded events until ctx is done. Undecodable messages
// are logged and skipped.
func (b *RedisBroadcaster) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub, err := b.bus.Subscribe(ctx, b.channel)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				event, err := decodeEvent(msg.Payload)
				if err != nil {
					b.logg.Warn(b.logg.WithField(ctx, "payload", msg.Payload), "dropping malformed session event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decodeEvent(payload string) (Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Event{}, err
	}
	if _, err := enums.ParseSessionEventType(string(event.Type)); err != nil {
		return Event{}, err
	}
	if event.SessionID == "" {
		return Event{}, fmt.Errorf("session event without session id")
	}
	return event, nil
}
