package quota

import (
	"github.com/martinsuhendra/manta/internal/domain/catalog"
)

// Reasons reported when a membership cannot book.
const (
	ReasonNotIncluded        = "membership does not include this class type"
	ReasonIndividualExceeded = "No remaining quota for this class"
	ReasonPoolExceeded       = "No remaining quota in pool"
	ReasonUnsupportedQuota   = "unsupported quota type"
)

// Verdict is the outcome of Evaluate. Remaining is nil for unlimited entitlements.
type Verdict struct {
	Eligible  bool
	Remaining *int
	Reason    string
}

// Evaluate decides whether a membership holding item (nil when its product does not
// include the class type) can book once more given its ledger. It has no side effects.
func Evaluate(item *catalog.ProductItem, ledger Ledger) Verdict {
	if item == nil {
		return Verdict{Reason: ReasonNotIncluded}
	}

	switch e := item.Entitlement.(type) {
	case catalog.Free:
		return Verdict{Eligible: true}
	case catalog.Individual:
		return bounded(e.Quota-ledger.Used(ItemScope(item.ID)), ReasonIndividualExceeded)
	case catalog.Shared:
		return bounded(e.TotalQuota-ledger.Used(PoolScope(e.PoolID)), ReasonPoolExceeded)
	default:
		return Verdict{Reason: ReasonUnsupportedQuota}
	}
}

func bounded(remaining int, exhausted string) Verdict {
	if remaining < 0 {
		remaining = 0
	}
	v := Verdict{Eligible: remaining > 0, Remaining: &remaining}
	if !v.Eligible {
		v.Reason = exhausted
	}
	return v
}
