package kpi

import (
	"sort"
	"strings"

	"claimskpi/pkg/contracts/domain"
)

// Denials table columns.
const (
	DenialsCountColumn   = "Count"
	DenialsBalanceColumn = "ARBalance"
)

// SummarizeDenials flags claims whose status group name contains "den"
// (case-insensitive) and aggregates them by group name: distinct-claim count
// and summed outstanding balance, sorted descending by count with group name
// as the tiebreak. An empty result is valid when nothing is denied.
func SummarizeDenials(claims []domain.Claim) *domain.SummaryTable {
	type group struct {
		claimNos map[string]bool
		balance  float64
	}
	groups := make(map[string]*group)

	for _, c := range claims {
		if !strings.Contains(strings.ToLower(c.StatusGroupName), "den") {
			continue
		}
		g, ok := groups[c.StatusGroupName]
		if !ok {
			g = &group{claimNos: make(map[string]bool)}
			groups[c.StatusGroupName] = g
		}
		g.claimNos[c.ClaimNo] = true
		g.balance += c.OutstandingBalance
	}

	table := &domain.SummaryTable{
		KeyName: ColStatusGroup,
		Columns: []string{DenialsCountColumn, DenialsBalanceColumn},
		Rows:    make([]domain.SummaryRow, 0, len(groups)),
	}

	for name, g := range groups {
		table.Rows = append(table.Rows, domain.SummaryRow{
			Key:    name,
			Values: []float64{float64(len(g.claimNos)), g.balance},
		})
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		if table.Rows[i].Values[0] != table.Rows[j].Values[0] {
			return table.Rows[i].Values[0] > table.Rows[j].Values[0]
		}
		return table.Rows[i].Key < table.Rows[j].Key
	})

	return table
}
