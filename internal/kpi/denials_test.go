package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimskpi/pkg/contracts/domain"
)

func TestSummarizeDenials(t *testing.T) {
	claims := []domain.Claim{
		{ClaimLine: domain.ClaimLine{ClaimNo: "A1", StatusGroupName: "Denied"}, OutstandingBalance: 100},
		{ClaimLine: domain.ClaimLine{ClaimNo: "A2", StatusGroupName: "Denied"}, OutstandingBalance: 50},
		{ClaimLine: domain.ClaimLine{ClaimNo: "A3", StatusGroupName: "Denial - Medical Necessity"}, OutstandingBalance: 75},
		{ClaimLine: domain.ClaimLine{ClaimNo: "A4", StatusGroupName: "Paid"}, OutstandingBalance: 999},
		{ClaimLine: domain.ClaimLine{ClaimNo: "A5", StatusGroupName: "Pending"}, OutstandingBalance: 999},
	}

	table := SummarizeDenials(claims)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "Denied", table.Rows[0].Key)
	assert.Equal(t, 2.0, table.Rows[0].Values[0])
	assert.Equal(t, 150.0, table.Rows[0].Values[1])

	assert.Equal(t, "Denial - Medical Necessity", table.Rows[1].Key)
	assert.Equal(t, 1.0, table.Rows[1].Values[0])
	assert.Equal(t, 75.0, table.Rows[1].Values[1])
}

func TestSummarizeDenialsCaseInsensitive(t *testing.T) {
	claims := []domain.Claim{
		{ClaimLine: domain.ClaimLine{ClaimNo: "A1", StatusGroupName: "DENIED BY PAYER"}, OutstandingBalance: 10},
	}
	table := SummarizeDenials(claims)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "DENIED BY PAYER", table.Rows[0].Key)
}

func TestSummarizeDenialsTiebreak(t *testing.T) {
	claims := []domain.Claim{
		{ClaimLine: domain.ClaimLine{ClaimNo: "A1", StatusGroupName: "Denied - B"}},
		{ClaimLine: domain.ClaimLine{ClaimNo: "A2", StatusGroupName: "Denied - A"}},
	}
	table := SummarizeDenials(claims)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Denied - A", table.Rows[0].Key, "equal counts tiebreak on group name")
}

func TestSummarizeDenialsEmpty(t *testing.T) {
	table := SummarizeDenials([]domain.Claim{
		{ClaimLine: domain.ClaimLine{ClaimNo: "A1", StatusGroupName: "Paid"}},
	})
	assert.Empty(t, table.Rows, "no denials is a valid, empty result")
}
