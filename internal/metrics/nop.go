package metrics

import (
	"time"

	"assignment_service/internal/domain"
)

// NopMetrics discards everything. Used in tests and when metrics are
// disabled.
type NopMetrics struct{}

func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) TransitionApplied(domain.Operation, domain.AssignmentStatus) {}

func (n *NopMetrics) OperationFailed(domain.Operation, string) {}

func (n *NopMetrics) SweepCompleted(int, time.Duration) {}

func (n *NopMetrics) ObserveRequest(string, string, int, time.Duration) {}
