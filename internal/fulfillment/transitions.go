// Package fulfillment holds the pure state-machine rules for the order
// fulfillment lifecycle. It performs no I/O; coordinators feed it order
// snapshots and persist the outcome.
package fulfillment

import (
	"fmt"
	"slices"

	domain "github.com/footprint-shop/api/internal/domain"
)

// transitions maps each status to the statuses it may move to. Terminal
// statuses map to an empty set. printing -> pending and
// ready_to_ship -> printing are operator rollbacks.
var transitions = map[domain.FulfillmentStatus][]domain.FulfillmentStatus{
	domain.StatusPending:     {domain.StatusPrinting, domain.StatusCancelled},
	domain.StatusPrinting:    {domain.StatusReadyToShip, domain.StatusPending},
	domain.StatusReadyToShip: {domain.StatusShipped, domain.StatusPrinting},
	domain.StatusShipped:     {domain.StatusDelivered},
	domain.StatusDelivered:   {},
	domain.StatusCancelled:   {},
}

// Statuses lists every valid fulfillment status in lifecycle order.
var Statuses = []domain.FulfillmentStatus{
	domain.StatusPending,
	domain.StatusPrinting,
	domain.StatusReadyToShip,
	domain.StatusShipped,
	domain.StatusDelivered,
	domain.StatusCancelled,
}

// IsValidStatus reports whether raw names a known fulfillment status.
func IsValidStatus(raw string) bool {
	_, ok := transitions[domain.FulfillmentStatus(raw)]
	return ok
}

// IsValidTransition reports whether an order may move from one status to
// another. Unknown statuses on either side are invalid.
func IsValidTransition(from, to domain.FulfillmentStatus) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	if _, ok := transitions[to]; !ok {
		return false
	}
	return slices.Contains(next, to)
}

// NextStatuses returns the statuses an order in the given status may move
// to. The result is empty for terminal or unknown statuses.
func NextStatuses(from domain.FulfillmentStatus) []domain.FulfillmentStatus {
	next := transitions[from]
	return slices.Clone(next)
}

// BatchItem pairs an order ID with its current status for batch validation.
type BatchItem struct {
	OrderID string
	Status  domain.FulfillmentStatus
}

// InvalidTransition explains why one batch item was rejected.
type InvalidTransition struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

// BatchResult partitions a validated batch. Every input item lands in
// exactly one of the two lists.
type BatchResult struct {
	Valid   []string
	Invalid []InvalidTransition
}

// ValidateBatch classifies each item by whether it may transition to
// target. Rejection reasons name both the current and target status.
func ValidateBatch(items []BatchItem, target domain.FulfillmentStatus) BatchResult {
	result := BatchResult{
		Valid:   make([]string, 0, len(items)),
		Invalid: make([]InvalidTransition, 0),
	}
	for _, item := range items {
		if IsValidTransition(item.Status, target) {
			result.Valid = append(result.Valid, item.OrderID)
			continue
		}
		result.Invalid = append(result.Invalid, InvalidTransition{
			OrderID: item.OrderID,
			Reason:  fmt.Sprintf("cannot change status from %q to %q", item.Status, target),
		})
	}
	return result
}
