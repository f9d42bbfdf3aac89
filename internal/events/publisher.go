// Package events publishes committed assignment status changes.
package events

import (
	"context"
	"time"

	"assignment_service/internal/domain"
	"assignment_service/pkg/utils"
)

const DefaultTopic = "assignment-status-changed"

// StatusChanged is the JSON payload written for every committed transition.
type StatusChanged struct {
	AssignmentID string    `json:"assignment_id"`
	AssigneeID   string    `json:"assignee_id"`
	WorkItemID   string    `json:"work_item_id"`
	AssignedBy   string    `json:"assigned_by"`
	Operation    string    `json:"operation"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to"`
	Deadline     string    `json:"deadline"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewStatusChanged(e domain.StatusEvent) StatusChanged {
	return StatusChanged{
		AssignmentID: e.AssignmentID.String(),
		AssigneeID:   e.AssigneeID.String(),
		WorkItemID:   e.WorkItemID.String(),
		AssignedBy:   e.AssignedBy.String(),
		Operation:    string(e.Operation),
		From:         string(e.From),
		To:           string(e.To),
		Deadline:     e.Deadline.Format(time.DateOnly),
		OccurredAt:   e.At.UTC(),
	}
}

type Sender interface {
	Send(ctx context.Context, topic, key string, message interface{}) error
}

type RetryPolicy struct {
	MaxRetries       int
	BaseDelay        time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:       3,
		BaseDelay:        50 * time.Millisecond,
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// KafkaPublisher sends status events keyed by assignment id. Transient
// broker failures are retried; a broker that keeps failing trips the circuit
// breaker so request handling is not slowed down by it.
type KafkaPublisher struct {
	sender  Sender
	topic   string
	policy  RetryPolicy
	breaker *utils.CircuitBreaker
}

func NewKafkaPublisher(sender Sender, topic string, policy RetryPolicy) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 1
	}
	return &KafkaPublisher{
		sender:  sender,
		topic:   topic,
		policy:  policy,
		breaker: utils.NewCircuitBreaker(policy.FailureThreshold, policy.ResetTimeout),
	}
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, event domain.StatusEvent) error {
	msg := NewStatusChanged(event)
	_, err := utils.RetryWithCircuitBreaker(ctx, p.breaker, p.policy.MaxRetries, p.policy.BaseDelay, func() (struct{}, error) {
		return struct{}{}, p.sender.Send(ctx, p.topic, msg.AssignmentID, msg)
	})
	return err
}

type NopPublisher struct{}

func NewNop() NopPublisher {
	return NopPublisher{}
}

func (NopPublisher) PublishStatusChanged(context.Context, domain.StatusEvent) error {
	return nil
}
