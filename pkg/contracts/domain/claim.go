package domain

import "time"

// ClaimLine is one billed service line from the claim-detail report. A claim
// may span several lines sharing the same claim number. Monetary fields are
// always finite after normalization; unparseable cells coerce to 0.0, never
// to a null marker. Dates stay nil when unparseable.
type ClaimLine struct {
	ClaimNo               string     `json:"claim_no"`
	RenderingProvider     string     `json:"rendering_provider"`
	PrimaryPayer          string     `json:"primary_payer"`
	ServiceDate           *time.Time `json:"service_date,omitempty"`
	ClaimDate             *time.Time `json:"claim_date,omitempty"`
	StatusCode            string     `json:"status_code"`
	StatusGroupName       string     `json:"status_group_name"`
	BilledCharge          float64    `json:"billed_charge"`
	PayerCharge           float64    `json:"payer_charge"`
	TotalPayment          float64    `json:"total_payment"`
	PayerPayment          float64    `json:"payer_payment"`
	PatientPayment        float64    `json:"patient_payment"`
	ContractualAdjustment float64    `json:"contractual_adjustment"`
	AllowedFee            float64    `json:"allowed_fee"`
	Balance               float64    `json:"balance"`
}

// Claim is the claim-level view: the first-seen line per distinct claim
// number, carrying that line's amounts unchanged (line amounts are never
// re-summed during deduplication), plus derived aging and balance.
type Claim struct {
	ClaimLine

	// AgingDays is whole days between the reporting date and the service
	// date; nil when the service date could not be parsed.
	AgingDays *int `json:"aging_days,omitempty"`

	// OutstandingBalance is the explicit balance column when the batch
	// carries one, otherwise billed charge minus total payment minus
	// contractual adjustment.
	OutstandingBalance float64 `json:"outstanding_balance"`
}
