package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

// SyncChannel carries one JSON domain.SyncEvent per finished run.
const SyncChannel = "erpsync.sync"

var _ usecase.EventPublisher = (*SignalService)(nil)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) PublishSync(ctx context.Context, event domain.SyncEvent) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, SyncChannel, jsonstr).Err()
}

// Subscribe streams sync events until ctx is done. Undecodable messages are
// logged and skipped.
func (s *SignalService) Subscribe(ctx context.Context) (<-chan domain.SyncEvent, error) {
	pubsub := s.rdb.Subscribe(ctx, SyncChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan domain.SyncEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.SyncEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(
						ctx, "undecodable sync event",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
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
