package domain

import "time"

// Transaction is one daily-ledger row from the transactions report. Rows are
// reconciled against claims only at the monthly aggregate level, never joined
// row-to-row.
type Transaction struct {
	Date                   *time.Time `json:"date,omitempty"`
	BilledCharges          float64    `json:"billed_charges"`
	SelfPayCharges         float64    `json:"self_pay_charges"`
	PayerCharges           float64    `json:"payer_charges"`
	TotalPayments          float64    `json:"total_payments"`
	PatientPayments        float64    `json:"patient_payments"`
	PayerPayments          float64    `json:"payer_payments"`
	ContractualAdjustments float64    `json:"contractual_adjustments"`

	// PostingStatus drives the unposted-payments view; blank when the
	// report does not carry the column.
	PostingStatus string `json:"posting_status,omitempty"`
}
