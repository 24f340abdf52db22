package reconciler

import paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"

// Decision is the outcome of merging an incoming status into the current one.
type Decision string

const (
	DecisionApply      Decision = "applied"
	DecisionDuplicate  Decision = "duplicate"
	DecisionStale      Decision = "stale"
	DecisionRegression Decision = "regression"
	// DecisionSuperseded marks a callback for a replaced payment attempt.
	DecisionSuperseded Decision = "superseded"
)

func (d Decision) Applied() bool { return d == DecisionApply }

// followOn lists the only terminal-to-terminal edges that may be applied.
var followOn = map[paymentdomain.PaymentStatus]map[paymentdomain.PaymentStatus]bool{
	paymentdomain.PaymentStatusCompleted: {
		paymentdomain.PaymentStatusRefunded: true,
	},
	// Late captures reported by the provider after a failure or expiry.
	paymentdomain.PaymentStatusFailed: {
		paymentdomain.PaymentStatusCompleted: true,
	},
	paymentdomain.PaymentStatusCancelled: {
		paymentdomain.PaymentStatusCompleted: true,
	},
	paymentdomain.PaymentStatusExpired: {
		paymentdomain.PaymentStatusCompleted: true,
	},
}

// IsFollowOn reports whether from -> to is an allowed terminal transition.
func IsFollowOn(from, to paymentdomain.PaymentStatus) bool {
	return followOn[from][to]
}

// Decide never moves a terminal status back to a non-terminal one.
func Decide(current, incoming paymentdomain.PaymentStatus) Decision {
	switch {
	case current == incoming:
		return DecisionDuplicate
	case current.IsTerminal() && !incoming.IsTerminal():
		return DecisionStale
	case current.IsTerminal() && incoming.IsTerminal() && !IsFollowOn(current, incoming):
		return DecisionRegression
	default:
		return DecisionApply
	}
}
