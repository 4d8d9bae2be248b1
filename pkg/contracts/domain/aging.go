package domain

// AgingBucket labels the half-open day ranges used by the AR aging summary.
// The boundary values 30, 60, 90 and 120 belong to the lower bucket.
type AgingBucket string

const (
	Aging0To30    AgingBucket = "0 - 30 Days"
	Aging31To60   AgingBucket = "31 - 60 Days"
	Aging61To90   AgingBucket = "61 - 90 Days"
	Aging91To120  AgingBucket = "91 - 120 Days"
	AgingAbove120 AgingBucket = "Above 120 Days"
)

// AgingBucketOrder is the display order of the buckets; the AR aging table
// always emits all five, zero-filled when empty.
var AgingBucketOrder = []AgingBucket{
	Aging0To30,
	Aging31To60,
	Aging61To90,
	Aging91To120,
	AgingAbove120,
}
