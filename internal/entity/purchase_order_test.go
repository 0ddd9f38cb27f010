package entity

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{POStatusDraft, POStatusPending},
		{POStatusDraft, POStatusApproved},
		{POStatusPending, POStatusApproved},
		{POStatusApproved, POStatusOrdered},
		{POStatusOrdered, POStatusShipped},
		{POStatusShipped, POStatusDelivered},
		{POStatusDraft, POStatusCancelled},
		{POStatusPending, POStatusCancelled},
		{POStatusApproved, POStatusCancelled},
		{POStatusOrdered, POStatusCancelled},
		{POStatusShipped, POStatusCancelled},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to string }{
		{POStatusDraft, POStatusOrdered},
		{POStatusDraft, POStatusShipped},
		{POStatusDraft, POStatusDelivered},
		{POStatusPending, POStatusDraft},
		{POStatusApproved, POStatusShipped},
		{POStatusOrdered, POStatusDelivered},
		{POStatusDelivered, POStatusCancelled},
		{POStatusCancelled, POStatusDraft},
		{POStatusCancelled, POStatusApproved},
		{POStatusDelivered, POStatusShipped},
	}
	for _, tr := range denied {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be rejected", tr.from, tr.to)
		}
	}
}

func TestCanTransitionSameStatusIsNoop(t *testing.T) {
	for _, status := range []string{POStatusDraft, POStatusPending, POStatusApproved,
		POStatusOrdered, POStatusShipped, POStatusDelivered, POStatusCancelled} {
		if !CanTransition(status, status) {
			t.Errorf("same-status assignment %s should be allowed", status)
		}
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	if !IsTerminalOrderStatus(POStatusDelivered) || !IsTerminalOrderStatus(POStatusCancelled) {
		t.Error("DELIVERED and CANCELLED are terminal")
	}
	for _, status := range []string{POStatusDraft, POStatusPending, POStatusApproved,
		POStatusOrdered, POStatusShipped} {
		if IsTerminalOrderStatus(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestAllItemsReceived(t *testing.T) {
	po := PurchaseOrder{}
	if po.AllItemsReceived() {
		t.Error("order with no items should not count as received")
	}

	po.Items = []PurchaseOrderItem{{IsReceived: true}, {IsReceived: false}}
	if po.AllItemsReceived() {
		t.Error("partially received order should not count as received")
	}

	po.Items = []PurchaseOrderItem{{IsReceived: true}, {IsReceived: true}}
	if !po.AllItemsReceived() {
		t.Error("fully received order should count as received")
	}
}
