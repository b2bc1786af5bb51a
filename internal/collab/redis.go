package collab

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

// Channel names the counselor dashboard and the emergency bridge subscribe
// to. Resource prompts go out on a per-user channel so only that user's
// client sees them.
const (
	ChannelEmergency = "mindlens:alerts:emergency"
	ChannelCrisis    = "mindlens:alerts:crisis"
	ChannelCounselor = "mindlens:alerts:counselor"
	resourcePrefix   = "mindlens:resources:"
)

// RedisNotifier publishes crisis alerts over Redis pub/sub. A publish with
// zero subscribers still succeeds; delivery guarantees belong to the
// subscribing services, not this hop.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(addr, password string, db int) *RedisNotifier {
	return &RedisNotifier{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (n *RedisNotifier) NotifyEmergencyServices(ctx context.Context, alert *services.CrisisAlert) error {
	return n.publishAlert(ctx, ChannelEmergency, alert)
}

func (n *RedisNotifier) AlertCrisisCounselor(ctx context.Context, alert *services.CrisisAlert) error {
	return n.publishAlert(ctx, ChannelCrisis, alert)
}

func (n *RedisNotifier) NotifyCounselor(ctx context.Context, alert *services.CrisisAlert) error {
	return n.publishAlert(ctx, ChannelCounselor, alert)
}

func (n *RedisNotifier) DisplayEmergencyResources(ctx context.Context, userID string) error {
	payload, err := json.Marshal(map[string]string{"action": "display_emergency_resources", "user_id": userID})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, resourcePrefix+userID, payload).Err(); err != nil {
		return fmt.Errorf("publish resource prompt: %w", err)
	}
	return nil
}

func (n *RedisNotifier) publishAlert(ctx context.Context, channel string, alert *services.CrisisAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert to %s: %w", channel, err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
