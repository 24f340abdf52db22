package reconciler

import (
	"testing"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		current  paymentdomain.PaymentStatus
		incoming paymentdomain.PaymentStatus
		want     Decision
	}{
		{paymentdomain.PaymentStatusPending, paymentdomain.PaymentStatusCompleted, DecisionApply},
		{paymentdomain.PaymentStatusPending, paymentdomain.PaymentStatusProcessing, DecisionApply},
		{paymentdomain.PaymentStatusProcessing, paymentdomain.PaymentStatusPending, DecisionApply},
		{paymentdomain.PaymentStatusPending, paymentdomain.PaymentStatusPending, DecisionDuplicate},
		{paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusCompleted, DecisionDuplicate},
		{paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusPending, DecisionStale},
		{paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusProcessing, DecisionStale},
		{paymentdomain.PaymentStatusRefunded, paymentdomain.PaymentStatusPending, DecisionStale},
		{paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusRefunded, DecisionApply},
		{paymentdomain.PaymentStatusFailed, paymentdomain.PaymentStatusCompleted, DecisionApply},
		{paymentdomain.PaymentStatusExpired, paymentdomain.PaymentStatusCompleted, DecisionApply},
		{paymentdomain.PaymentStatusCancelled, paymentdomain.PaymentStatusCompleted, DecisionApply},
		{paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusFailed, DecisionRegression},
		{paymentdomain.PaymentStatusRefunded, paymentdomain.PaymentStatusCompleted, DecisionRegression},
		{paymentdomain.PaymentStatusFailed, paymentdomain.PaymentStatusRefunded, DecisionRegression},
		{"", paymentdomain.PaymentStatusPending, DecisionApply},
	}
	for _, tc := range cases {
		if got := Decide(tc.current, tc.incoming); got != tc.want {
			t.Errorf("Decide(%q, %q) = %s, want %s", tc.current, tc.incoming, got, tc.want)
		}
	}
}

// No terminal status may ever be replaced by a non-terminal one.
func TestDecideIsMonotonic(t *testing.T) {
	all := []paymentdomain.PaymentStatus{
		paymentdomain.PaymentStatusPending,
		paymentdomain.PaymentStatusProcessing,
		paymentdomain.PaymentStatusCompleted,
		paymentdomain.PaymentStatusFailed,
		paymentdomain.PaymentStatusCancelled,
		paymentdomain.PaymentStatusRefunded,
		paymentdomain.PaymentStatusExpired,
	}
	for _, current := range all {
		for _, incoming := range all {
			d := Decide(current, incoming)
			if current.IsTerminal() && !incoming.IsTerminal() && d.Applied() {
				t.Fatalf("terminal %s replaced by %s", current, incoming)
			}
			if current.IsTerminal() && incoming.IsTerminal() && d.Applied() && !IsFollowOn(current, incoming) {
				t.Fatalf("unexpected terminal edge %s -> %s", current, incoming)
			}
		}
	}
}
