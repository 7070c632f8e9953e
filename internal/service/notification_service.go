package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/HarshChauhan10/Queues/internal/config"
	"github.com/HarshChauhan10/Queues/internal/events"
	"github.com/HarshChauhan10/Queues/internal/persistence"
)

// NotificationService relays queue events to a per-institute Redis Pub/Sub
// channel so waiting participants can observe position changes.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.QueueConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.QueueConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every queue event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventParticipantJoined,
		events.EventParticipantLeft,
		events.EventParticipantRemoved,
		events.EventMovedToEnd,
		events.EventWindowAssigned,
	} {
		n.dispatcher.Subscribe(eventType, n.relay)
	}
}

func (n *NotificationService) relay(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal queue event", zap.Error(err))
		return err
	}

	channel := n.cfg.UpdateChannelPrefix + event.InstituteID
	if err := n.redis.Publish(ctx, channel, payload); err != nil {
		// Fan-out is best effort; queue state is already committed.
		n.logger.Warn("publish queue event",
			zap.String("channel", channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}

	n.logger.Debug("queue event published",
		zap.String("channel", channel),
		zap.String("event_type", string(event.Type)),
		zap.String("participant_id", event.ParticipantID),
	)
	return nil
}
