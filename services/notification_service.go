package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"scholarxp-api/models"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NotificationEvent is the single typed wire representation pushed over the
// realtime channel. Everything is snake_case on the wire; NormalizeEvent
// folds camelCase variants from older producers into this struct.
type NotificationEvent struct {
	NotificationID      uint   `json:"notification_id"`
	UserID              uint   `json:"user_id"`
	Title               string `json:"title"`
	Message             string `json:"message"`
	Type                string `json:"type"`
	RelatedSubmissionID *uint  `json:"related_submission_id,omitempty"`
	CreatedAt           string `json:"created_at"`
}

// NormalizeEvent maps a loosely-typed payload (snake_case or camelCase
// keys) into a NotificationEvent, so consumers never do per-field
// optional-chained lookups.
func NormalizeEvent(raw map[string]interface{}) NotificationEvent {
	pick := func(keys ...string) interface{} {
		for _, k := range keys {
			if v, ok := raw[k]; ok && v != nil {
				return v
			}
		}
		return nil
	}
	asUint := func(v interface{}) uint {
		switch n := v.(type) {
		case float64:
			return uint(n)
		case int:
			return uint(n)
		case uint:
			return n
		}
		return 0
	}
	asString := func(v interface{}) string {
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	}

	event := NotificationEvent{
		NotificationID: asUint(pick("notification_id", "notificationId", "id")),
		UserID:         asUint(pick("user_id", "userId")),
		Title:          asString(pick("title")),
		Message:        asString(pick("message", "body")),
		Type:           asString(pick("type")),
		CreatedAt:      asString(pick("created_at", "createdAt")),
	}
	if v := pick("related_submission_id", "relatedSubmissionId", "submission_id", "submissionId"); v != nil {
		id := asUint(v)
		if id != 0 {
			event.RelatedSubmissionID = &id
		}
	}
	return event
}

// NotificationService persists notification rows and pushes them on the
// realtime channel. The redis client may be nil (realtime disabled);
// persistence always happens, so the polling fallback still sees every
// notification.
type NotificationService struct {
	db      *gorm.DB
	rdb     *goredis.Client
	channel string
}

func NewNotificationService(db *gorm.DB, rdb *goredis.Client) *NotificationService {
	return &NotificationService{db: db, rdb: rdb, channel: "scholarxp:notifications"}
}

// Notify creates a notification row on the caller's transaction and
// publishes it best-effort. A publish failure never fails the transaction;
// the row is the source of truth and poll reconciliation picks it up.
func (s *NotificationService) Notify(tx *gorm.DB, userID int, title, message, ntype string, submissionID *int) error {
	row := models.Notification{
		UserID:   uint(userID),
		Title:    title,
		Message:  message,
		Type:     ntype,
		CreateAt: time.Now(),
	}
	if submissionID != nil {
		sid := uint(*submissionID)
		row.RelatedSubmissionID = &sid
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.publish(NotificationEvent{
		NotificationID:      row.NotificationID,
		UserID:              row.UserID,
		Title:               row.Title,
		Message:             row.Message,
		Type:                row.Type,
		RelatedSubmissionID: row.RelatedSubmissionID,
		CreatedAt:           row.CreateAt.Format(time.RFC3339),
	})
	return nil
}

func (s *NotificationService) publish(event NotificationEvent) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		log.Printf("[NotificationService] realtime publish failed: %v", err)
	}
}

// Subscriber consumes the realtime channel with an explicit reconnect
// policy, decoupled from any UI lifecycle: on subscription loss it retries
// with exponential backoff up to MaxRetries, and independently invokes the
// reconciliation callback every PollInterval so dropped messages are
// recovered from the notifications table.
type Subscriber struct {
	Rdb          *goredis.Client
	Channel      string
	MaxRetries   int
	BaseBackoff  time.Duration
	PollInterval time.Duration
}

func NewSubscriber(rdb *goredis.Client) *Subscriber {
	return &Subscriber{
		Rdb:          rdb,
		Channel:      "scholarxp:notifications",
		MaxRetries:   5,
		BaseBackoff:  time.Second,
		PollInterval: 30 * time.Second,
	}
}

// Run blocks until ctx is cancelled or the reconnect budget is exhausted.
func (s *Subscriber) Run(ctx context.Context, onEvent func(NotificationEvent), reconcile func(context.Context)) error {
	if s.Rdb == nil {
		return fmt.Errorf("realtime subscriber requires a redis client")
	}

	if reconcile != nil {
		go func() {
			ticker := time.NewTicker(s.PollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					reconcile(ctx)
				}
			}
		}()
	}

	retries := 0
	for {
		err := s.consume(ctx, onEvent)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		retries++
		if retries > s.MaxRetries {
			return fmt.Errorf("realtime subscription failed after %d retries: %w", s.MaxRetries, err)
		}
		backoff := s.BaseBackoff << (retries - 1)
		log.Printf("[Subscriber] connection lost (%v), retry %d/%d in %s", err, retries, s.MaxRetries, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (s *Subscriber) consume(ctx context.Context, onEvent func(NotificationEvent)) error {
	sub := s.Rdb.Subscribe(ctx, s.Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return fmt.Errorf("subscription channel closed")
			}
			var raw map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &raw); err != nil {
				log.Printf("[Subscriber] bad payload: %v", err)
				continue
			}
			onEvent(NormalizeEvent(raw))
		}
	}
}
