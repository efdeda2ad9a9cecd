package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event messboard.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "SignalService.Publish: marshal failed")
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "SignalService.Publish: rdb.Publish failed")
	}

	return nil
}

// Realtime relays events of the hostels last received on input to output.
// It returns when ctx is done or input is closed.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- messboard.Event) {
	pubsub := s.rdb.Subscribe(ctx, domain.NotificationChannel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	var current []string

	for {
		select {
		case <-ctx.Done():
			return
		case hostels, ok := <-input:
			if !ok {
				return
			}
			next := MenuChannels(hostels)
			if len(current) > 0 {
				if err := pubsub.Unsubscribe(ctx, current...); err != nil {
					slog.WarnContext(
						ctx, "failed to unsubscribe",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
				}
			}
			if err := pubsub.Subscribe(ctx, next...); err != nil {
				slog.ErrorContext(
					ctx, "failed to subscribe",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				return
			}
			current = next
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event messboard.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "dropping malformed event",
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// MenuChannels maps hostel names to their menu channels. Unknown names are
// dropped; an empty or fully unknown selection listens to every hostel.
func MenuChannels(hostels []string) []string {
	seen := make(map[domain.Hostel]bool)
	channels := make([]string, 0, len(hostels))
	for _, name := range hostels {
		h, err := domain.ParseHostel(name)
		if err != nil || seen[h] {
			continue
		}
		seen[h] = true
		channels = append(channels, domain.MenuChannel(h))
	}
	if len(channels) > 0 {
		return channels
	}
	for _, h := range domain.Hostels {
		channels = append(channels, domain.MenuChannel(h))
	}
	return channels
}
