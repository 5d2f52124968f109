package fulfillment

import (
	"strings"
	"testing"

	domain "github.com/footprint-shop/api/internal/domain"
)

func TestIsValidTransitionTable(t *testing.T) {
	allowed := map[domain.FulfillmentStatus][]domain.FulfillmentStatus{
		domain.StatusPending:     {domain.StatusPrinting, domain.StatusCancelled},
		domain.StatusPrinting:    {domain.StatusReadyToShip, domain.StatusPending},
		domain.StatusReadyToShip: {domain.StatusShipped, domain.StatusPrinting},
		domain.StatusShipped:     {domain.StatusDelivered},
		domain.StatusDelivered:   {},
		domain.StatusCancelled:   {},
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			if got := IsValidTransition(from, to); got != want {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsValidTransitionUnknownStatuses(t *testing.T) {
	if IsValidTransition("packing", domain.StatusShipped) {
		t.Error("unknown from status accepted")
	}
	if IsValidTransition(domain.StatusPending, "exploded") {
		t.Error("unknown to status accepted")
	}
	if IsValidTransition("", "") {
		t.Error("empty statuses accepted")
	}
}

func TestTerminalStatusesHaveNoNextStatuses(t *testing.T) {
	for _, status := range []domain.FulfillmentStatus{domain.StatusDelivered, domain.StatusCancelled} {
		if next := NextStatuses(status); len(next) != 0 {
			t.Errorf("NextStatuses(%s) = %v, want empty", status, next)
		}
	}
}

func TestNextStatusesReturnsCopy(t *testing.T) {
	next := NextStatuses(domain.StatusPending)
	if len(next) != 2 {
		t.Fatalf("NextStatuses(pending) = %v, want 2 entries", next)
	}
	next[0] = "mutated"
	if again := NextStatuses(domain.StatusPending); again[0] == "mutated" {
		t.Error("NextStatuses shares internal slice with callers")
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range Statuses {
		if !IsValidStatus(string(status)) {
			t.Errorf("IsValidStatus(%s) = false", status)
		}
	}
	for _, raw := range []string{"", "packing", "PENDING", "shipped "} {
		if IsValidStatus(raw) {
			t.Errorf("IsValidStatus(%q) = true", raw)
		}
	}
}

func TestValidateBatchPartitionsEveryItem(t *testing.T) {
	items := []BatchItem{
		{OrderID: "ord-1", Status: domain.StatusPending},
		{OrderID: "ord-2", Status: domain.StatusDelivered},
		{OrderID: "ord-3", Status: domain.StatusCancelled},
		{OrderID: "ord-4", Status: domain.StatusPending},
	}

	result := ValidateBatch(items, domain.StatusPrinting)

	if len(result.Valid)+len(result.Invalid) != len(items) {
		t.Fatalf("partition lost items: valid=%d invalid=%d input=%d", len(result.Valid), len(result.Invalid), len(items))
	}
	if len(result.Valid) != 2 {
		t.Fatalf("valid = %v, want [ord-1 ord-4]", result.Valid)
	}
	if result.Valid[0] != "ord-1" || result.Valid[1] != "ord-4" {
		t.Errorf("valid = %v, want input order preserved", result.Valid)
	}
}

func TestValidateBatchReasonsNameBothStatuses(t *testing.T) {
	items := []BatchItem{
		{OrderID: "ord-1", Status: domain.StatusDelivered},
		{OrderID: "ord-2", Status: domain.StatusCancelled},
	}

	result := ValidateBatch(items, domain.StatusPrinting)

	if len(result.Invalid) != 2 {
		t.Fatalf("invalid = %v, want both items rejected", result.Invalid)
	}
	for i, want := range []string{"delivered", "cancelled"} {
		reason := result.Invalid[i].Reason
		if !strings.Contains(reason, want) || !strings.Contains(reason, "printing") {
			t.Errorf("reason %q does not name %q and %q", reason, want, "printing")
		}
	}
}

func TestValidateBatchAllValid(t *testing.T) {
	items := []BatchItem{
		{OrderID: "a", Status: domain.StatusPending},
		{OrderID: "b", Status: domain.StatusPending},
		{OrderID: "c", Status: domain.StatusPending},
	}

	result := ValidateBatch(items, domain.StatusPrinting)

	if len(result.Valid) != 3 || len(result.Invalid) != 0 {
		t.Fatalf("got valid=%v invalid=%v, want all valid", result.Valid, result.Invalid)
	}
}
