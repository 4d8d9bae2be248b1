package kpi

// Column names of the claim-detail report (371.05, financial analysis at CPT
// level). Header text is matched after trimming.
const (
	ColClaimNo           = "Claim No"
	ColRenderingProvider = "Rendering Provider"
	ColPrimaryPayer      = "Primary Payer"
	ColStatusCode        = "Claim Status Code"
	ColStatusGroup       = "Claim Status Group Name"
	ColBilledCharge      = "Billed Charge"
	ColPayerCharge       = "Payer Charge"
	ColTotalPayment      = "Total Payment"
	ColPayerPayment      = "Payer Payment"
	ColPatientPayment    = "Patient Payment"
	ColContractualAdj    = "Contractual Adjustment"
	ColAllowedFee        = "Fee Schedule Allowed Fee"
	ColBalance           = "Total(Balance)"
	ColClaimDate         = "Claim Date"
)

// ServiceDateCandidates are tried in order; the first column present in the
// batch wins for the whole batch.
var ServiceDateCandidates = []string{"Start Date of Service", "DOS"}

// RequiredClaimColumns are the claim-detail columns the pipeline expects.
// Absence is non-fatal: processing continues with defaults and the missing
// names surface as warnings.
var RequiredClaimColumns = []string{
	ColStatusCode, ColStatusGroup, ColPrimaryPayer, ColClaimNo,
	ColRenderingProvider, ColBilledCharge, ColPayerCharge, ColTotalPayment,
	ColPayerPayment, ColPatientPayment, ColContractualAdj, ColAllowedFee,
	ColBalance,
}

// Column names of the daily-transactions report (123.07).
const (
	ColTxDate            = "Date"
	ColTxBilledCharges   = "Billed Charges"
	ColTxSelfPayCharges  = "Self Pay Charges"
	ColTxPayerCharges    = "Payer Charges"
	ColTxTotalPayments   = "Total Payments"
	ColTxPatientPayments = "Patient Payments"
	ColTxPayerPayments   = "Payer Payments"
	ColTxContractualAdj  = "Contractual Adjustments"
	ColTxPostingStatus   = "Posting Status"
)

// RequiredTransactionColumns are the daily-transaction columns the pipeline
// expects; absence is non-fatal and surfaces as warnings.
var RequiredTransactionColumns = []string{
	ColTxDate, ColTxBilledCharges, ColTxSelfPayCharges, ColTxPayerCharges,
	ColTxTotalPayments, ColTxPatientPayments, ColTxPayerPayments,
	ColTxContractualAdj,
}

// Column names of the ERA (remittance advice) upload. All five are
// structurally required; see NormalizeRemittance.
const (
	ColERAPayer  = "Payer"
	ColERAMethod = "Method"
	ColERADated  = "Dated"
	ColERATrace  = "Trace"
	ColERAAmount = "Amount"
)

// RequiredRemittanceColumns lists the five mandatory ERA columns.
var RequiredRemittanceColumns = []string{
	ColERAPayer, ColERAMethod, ColERADated, ColERATrace, ColERAAmount,
}
