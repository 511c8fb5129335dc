package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rai/shop-workflow-go/internal/platform/metrics"
)

func TestMetrics_CountsTransitionsAndNotifications(t *testing.T) {
	m := metrics.New()

	m.TransitionApplied("pick_goods", "payment_confirmed", "goods_picked", false, 20*time.Millisecond)
	m.TransitionApplied("ship_order", "shipping_prepared", "order_shipped", true, time.Millisecond)
	m.TransitionFailed("cancel_order", "order_shipped", "illegal_transition")
	m.NotificationQueued("order_shipped")
	m.NotificationQueued("order_shipped")
	m.NotificationSkipped("order_shipped", "no_recipient")

	tests := []struct {
		name   string
		metric string
		want   int
	}{
		{name: "transitions", metric: "shop_workflow_transitions_total", want: 2},
		{name: "failures", metric: "shop_workflow_transition_failures_total", want: 1},
		{name: "notification series", metric: "shop_notifications_rules_total", want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testutil.GatherAndCount(m.Registry(), tt.metric)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d series, got %d", tt.want, got)
			}
		})
	}
}
