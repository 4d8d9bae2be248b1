package domain

// RemittanceEntry is one canonical payment-ledger row reshaped from an ERA
// (electronic remittance advice) upload. CheckNumber is always a string so
// numeric-looking trace numbers survive without scientific-notation
// corruption; Date is an ISO calendar date or blank when unparseable.
type RemittanceEntry struct {
	Payer       string  `json:"payer"`
	Method      string  `json:"method"`
	Date        string  `json:"date"`
	CheckNumber string  `json:"check_number"`
	Amount      float64 `json:"amount"`
}

// RemittanceLedger is the canonical ERA table: entries sorted descending by
// amount with one trailing Grand Total row whose non-amount fields are blank.
type RemittanceLedger struct {
	Entries []RemittanceEntry `json:"entries"`
}

// GrandTotalLabel is the key of the appended totals row on every summary
// table the pipeline emits.
const GrandTotalLabel = "Grand Total"

// Total returns the ledger's grand-total amount, zero for an empty ledger.
func (l *RemittanceLedger) Total() float64 {
	if l == nil || len(l.Entries) == 0 {
		return 0
	}
	last := l.Entries[len(l.Entries)-1]
	if last.Payer == GrandTotalLabel {
		return last.Amount
	}
	var sum float64
	for _, e := range l.Entries {
		sum += e.Amount
	}
	return sum
}
