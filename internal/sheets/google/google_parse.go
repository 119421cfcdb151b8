package google

import (
	"fmt"
	"strconv"
	"strings"

	"manageexpense/internal/core"
)

func headerRow() []any {
	return []any{"ID", "Date", "Description", "Amount", "Version"}
}

// expenseRow renders e as a sheet row. The amount is written as a number so
// spreadsheet formulas can sum it.
func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		core.FormatDate(e.Date),
		e.Description,
		e.Amount.Euros(),
		e.Version,
	}
}

type row struct {
	ID      string
	Version int64
}

// parseRow reads the ID and version columns. ok is false for the header and
// for empty rows.
func parseRow(raw []any) (row, bool) {
	cols := toStrings(raw)
	if len(cols) == 0 || cols[0] == "" || strings.EqualFold(cols[0], "ID") {
		return row{}, false
	}
	r := row{ID: cols[0]}
	if len(cols) >= 5 {
		if v, err := strconv.ParseInt(cols[4], 10, 64); err == nil {
			r.Version = v
		}
	}
	return r, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
