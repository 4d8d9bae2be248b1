package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawBatchColumn(t *testing.T) {
	b := &RawBatch{Headers: []string{" Claim No ", "Primary Payer"}}

	assert.Equal(t, 0, b.Column("Claim No"), "headers match after trimming")
	assert.Equal(t, 1, b.Column("Primary Payer"))
	assert.Equal(t, -1, b.Column("Missing"))
	assert.True(t, b.HasColumn("Claim No"))
	assert.False(t, b.HasColumn("Missing"))
}

func TestRawBatchCell(t *testing.T) {
	b := &RawBatch{}
	row := []string{" A1 ", "Medicare"}

	assert.Equal(t, "A1", b.Cell(row, 0))
	assert.Equal(t, "", b.Cell(row, 5), "short rows read as blanks")
	assert.Equal(t, "", b.Cell(row, -1), "absent columns read as blanks")
}

func TestRawBatchEmpty(t *testing.T) {
	var nilBatch *RawBatch
	assert.True(t, nilBatch.Empty())
	assert.True(t, (&RawBatch{Headers: []string{"A"}}).Empty())
	assert.False(t, (&RawBatch{Rows: [][]string{{"x"}}}).Empty())
}
