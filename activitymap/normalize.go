// Package activitymap flattens Ticket Hub activity events into a single
// record shape for audit logs and downstream consumers.
package activitymap

import (
	"context"
	"strings"
	"time"

	auth "github.com/tickethub/go-auth-hub"
)

const (
	// MetadataKeyActorType stores the role of the account that acted.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyToStatus stores the account status an event leaves behind.
	MetadataKeyToStatus = "to_status"
)

const (
	defaultObjectType = "account"
	defaultActorID    = "anonymous"
)

// Record is the flattened shape of an auth.ActivityEvent.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
	now           func() time.Time
}

// Normalize converts event into a Record. The channel defaults to the
// first segment of the event type, so auth.login.success lands on "auth"
// and account.created on "account".
func Normalize(event auth.ActivityEvent, opts ...Option) Record {
	o := options{
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	channel := o.channel
	if channel == "" {
		channel = channelOf(event.EventType)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = o.now()
	}

	return Record{
		ActorID:    firstNonEmpty(strings.TrimSpace(event.Actor.ID), o.actorFallback),
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		ObjectID:   strings.TrimSpace(event.UserID),
		Channel:    channel,
		Metadata:   metadataOf(event),
		OccurredAt: occurredAt.UTC(),
	}
}

// WithChannel pins the channel instead of deriving it from the event type.
func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

func WithObjectType(objectType string) Option {
	return func(o *options) {
		if objectType = strings.TrimSpace(objectType); objectType != "" {
			o.objectType = objectType
		}
	}
}

// WithActorFallback is used when the event has no actor id, e.g. a failed
// login for an unknown email.
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		if actorID = strings.TrimSpace(actorID); actorID != "" {
			o.actorFallback = actorID
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// LogSink is an auth.ActivitySink that writes normalized records to a Logger.
type LogSink struct {
	logger auth.Logger
	opts   []Option
}

var _ auth.ActivitySink = (*LogSink)(nil)

func NewLogSink(logger auth.Logger, opts ...Option) *LogSink {
	return &LogSink{logger: logger, opts: opts}
}

func (s *LogSink) Record(_ context.Context, event auth.ActivityEvent) error {
	if s.logger == nil {
		return nil
	}

	rec := Normalize(event, s.opts...)
	args := []any{
		"verb", rec.Verb,
		"channel", rec.Channel,
		"actor_id", rec.ActorID,
		"object_type", rec.ObjectType,
		"object_id", rec.ObjectID,
		"occurred_at", rec.OccurredAt.Format(time.RFC3339),
	}
	if len(rec.Metadata) > 0 {
		args = append(args, "metadata", rec.Metadata)
	}

	s.logger.Info("activity", args...)
	return nil
}

func channelOf(eventType auth.ActivityEventType) string {
	verb := string(eventType)
	if i := strings.Index(verb, "."); i > 0 {
		return verb[:i]
	}
	return verb
}

func metadataOf(event auth.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		set(MetadataKeyActorType, actorType)
	}

	switch event.EventType {
	case auth.ActivityEventAccountCreated, auth.ActivityEventAccountReactivated:
		set(MetadataKeyToStatus, "active")
	case auth.ActivityEventAccountDeactivated:
		set(MetadataKeyToStatus, "inactive")
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
