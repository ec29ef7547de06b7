package calculator

import "github.com/mmynk/payledger/internal/models"

// Broadcast is the notification a payment change calls for.
type Broadcast int

const (
	// BroadcastNone: un-paying, or re-marking a share that was already paid.
	BroadcastNone Broadcast = iota
	// BroadcastUserPaid: a payer just paid and others still owe.
	BroadcastUserPaid
	// BroadcastFullyPaid: the last unpaid share was just paid.
	BroadcastFullyPaid
)

func (b Broadcast) String() string {
	switch b {
	case BroadcastUserPaid:
		return "user_paid"
	case BroadcastFullyPaid:
		return "fully_paid"
	default:
		return "none"
	}
}

// SettlementDecision is the outcome of DecideSettlement.
type SettlementDecision struct {
	Broadcast  Broadcast
	Recipients []string
}

// DecideSettlement determines who hears about a payment change.
//
// shares must be the full share set of the expense read after the change was
// written. wasPaid reports that the share was already paid, that is the
// write changed nothing. The acting user
// never receives the broadcast; for USER_PAID the payer is skipped as well.
func DecideSettlement(shares []*models.PayerShare, payerID, actorID string, paid, wasPaid bool) SettlementDecision {
	if !paid || wasPaid {
		return SettlementDecision{Broadcast: BroadcastNone}
	}

	settled := true
	for _, share := range shares {
		if !share.Paid {
			settled = false
			break
		}
	}

	decision := SettlementDecision{Broadcast: BroadcastUserPaid}
	if settled {
		decision.Broadcast = BroadcastFullyPaid
	}

	for _, share := range shares {
		if share.UserID == actorID {
			continue
		}
		if decision.Broadcast == BroadcastUserPaid && share.UserID == payerID {
			continue
		}
		decision.Recipients = append(decision.Recipients, share.UserID)
	}
	return decision
}
