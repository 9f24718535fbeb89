package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Statistics aggregates a set of records.
type Statistics struct {
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	IncomeTotal  decimal.Decimal `json:"income_total"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int             `json:"count"`
}

// TagUsage is a tag with the number of records referencing it.
type TagUsage struct {
	Tag
	UsageCount int `json:"usage_count"`
}

// TagAmount is an amount aggregated by tag id.
type TagAmount struct {
	TagID  string          `json:"tag_id"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"` // 1-12
	Statistics Statistics  `json:"statistics"`
	ByTag      []TagAmount `json:"by_tag"`
}

// Summarize computes totals over records. Records of any other kind count
// towards Count only.
func Summarize(records []Record) Statistics {
	stats := Statistics{
		ExpenseTotal: decimal.Zero,
		IncomeTotal:  decimal.Zero,
		Count:        len(records),
	}
	for _, r := range records {
		switch r.Kind {
		case KindExpense:
			stats.ExpenseTotal = stats.ExpenseTotal.Add(r.Amount)
		case KindIncome:
			stats.IncomeTotal = stats.IncomeTotal.Add(r.Amount)
		}
	}
	stats.Balance = stats.IncomeTotal.Sub(stats.ExpenseTotal)
	return stats
}

// TotalsByTag sums the amounts of records of the given kind per referenced
// tag id, largest first. A record with several tags counts towards each.
func TotalsByTag(records []Record, kind Kind) []TagAmount {
	byTag := map[string]decimal.Decimal{}
	order := make([]string, 0)
	for _, r := range records {
		if r.Kind != kind {
			continue
		}
		for _, id := range r.TagIDs {
			if _, seen := byTag[id]; !seen {
				order = append(order, id)
				byTag[id] = decimal.Zero
			}
			byTag[id] = byTag[id].Add(r.Amount)
		}
	}
	out := make([]TagAmount, 0, len(order))
	for _, id := range order {
		out = append(out, TagAmount{TagID: id, Amount: byTag[id]})
	}
	slices.SortStableFunc(out, func(a, b TagAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out
}

// Overview builds the MonthOverview of records already filtered to a month.
func Overview(year, month int, records []Record) MonthOverview {
	return MonthOverview{
		Year:       year,
		Month:      month,
		Statistics: Summarize(records),
		ByTag:      TotalsByTag(records, KindExpense),
	}
}
