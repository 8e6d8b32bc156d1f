package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/logger"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	GroupFeedChannel(groupID string) string
}

// Notification is the message pushed on a group's feed channel. It carries
// just enough for clients to decide to refetch; it is never the source of
// truth for group state.
type Notification struct {
	GroupID     uuid.UUID `json:"group_id"`
	Status      string    `json:"status"`
	LockVersion int64     `json:"lock_version"`
	ChangedBy   uuid.UUID `json:"changed_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher pushes group-changed notifications over Redis pub/sub.
type Publisher struct {
	redis redisPublisher
	logg  *logger.Logger
}

// NewPublisher builds a feed publisher. A nil redis client yields a no-op
// publisher, which keeps tests and degraded deployments simple.
func NewPublisher(redis redisPublisher, logg *logger.Logger) *Publisher {
	return &Publisher{redis: redis, logg: logg}
}

// GroupChanged publishes a change notification for the group. Delivery is
// best effort and at-least-once via the outbox; subscribers that miss a push
// fall back to refetching, so a failed publish is logged, not returned.
func (p *Publisher) GroupChanged(ctx context.Context, group *models.GroupOrder, actorID uuid.UUID) {
	if p == nil || p.redis == nil || group == nil {
		return
	}
	payload, err := json.Marshal(Notification{
		GroupID:     group.ID,
		Status:      group.Status.String(),
		LockVersion: group.LockVersion,
		ChangedBy:   actorID,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "marshal feed notification", err)
		}
		return
	}
	channel := p.redis.GroupFeedChannel(group.ID.String())
	if err := p.redis.Publish(ctx, channel, payload); err != nil && p.logg != nil {
		p.logg.Error(ctx, "publish feed notification", err)
	}
}
