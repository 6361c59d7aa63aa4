// Package ledger sums worked and overtime hours against paid hours and
// filters record lists.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// Totals are the overtime account figures. Balance is what the employer
// still owes: overtime minus paid.
type Totals struct {
	Worked   decimal.Decimal
	Overtime decimal.Decimal
	Paid     decimal.Decimal
	Balance  decimal.Decimal
}

// Compute sums records and payments. Overtime is recomputed per record from
// worked and contractual hours rather than read from the record.
func Compute(records []model.WorkRecord, payments []model.Payment) Totals {
	t := Totals{Worked: decimal.Zero, Overtime: decimal.Zero, Paid: decimal.Zero}
	for _, r := range records {
		t.Worked = t.Worked.Add(hours(r.WorkedHours))
		t.Overtime = t.Overtime.Add(Overtime(r))
	}
	for _, p := range payments {
		t.Paid = t.Paid.Add(hours(p.Hours))
	}
	t.Balance = t.Overtime.Sub(t.Paid)
	return t
}

// Overtime returns max(0, worked - contractual) for r.
func Overtime(r model.WorkRecord) decimal.Decimal {
	contractual := r.ContractualHours
	if math.IsNaN(contractual) || math.IsInf(contractual, 0) || contractual < 0 {
		contractual = 0
	}
	d := hours(r.WorkedHours).Sub(hours(contractual))
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func hours(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Format renders d with two decimals and a decimal comma.
func Format(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// PendingFilter selects records by whether they have pending tasks.
type PendingFilter string

const (
	PendingAll     PendingFilter = "all"
	PendingWith    PendingFilter = "with-pending"
	PendingWithout PendingFilter = "without-pending"
)

// ParsePending validates a pending filter name. Empty means PendingAll.
func ParsePending(s string) (PendingFilter, error) {
	switch p := PendingFilter(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PendingAll, nil
	case PendingAll, PendingWith, PendingWithout:
		return p, nil
	}
	return "", fmt.Errorf("invalid pending filter %q (want %s, %s or %s)", s, PendingAll, PendingWith, PendingWithout)
}

// Filter selects records for listing and export. From and To are inclusive
// ISO dates; an empty bound is open. Records without a date never match.
type Filter struct {
	From    string
	To      string
	Search  string
	Pending PendingFilter
}

// Apply returns the records matching f, in their original order.
func (f Filter) Apply(records []model.WorkRecord) []model.WorkRecord {
	out := []model.WorkRecord{}
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether r passes every criterion of f.
func (f Filter) Match(r model.WorkRecord) bool {
	d := r.Date
	if len(d) > 10 {
		d = d[:10]
	}
	if d == "" {
		return false
	}
	if from := strings.TrimSpace(f.From); from != "" && d < from {
		return false
	}
	if to := strings.TrimSpace(f.To); to != "" && d > to {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(haystack(r)), q) {
			return false
		}
	}

	pending := 0
	for _, p := range r.PendingTasks {
		if strings.TrimSpace(p) != "" {
			pending++
		}
	}
	switch f.Pending {
	case PendingWith:
		return pending > 0
	case PendingWithout:
		return pending == 0
	}
	return true
}

// haystack is the text a search runs against.
func haystack(r model.WorkRecord) string {
	var b strings.Builder
	add := func(s string) {
		b.WriteString(s)
		b.WriteByte(' ')
	}
	add(r.Date)
	add(r.Company)
	add(r.Locality)
	add(r.Site)
	for _, m := range r.Materials {
		add(m.Name)
	}
	for _, t := range r.CompletedTasks {
		add(t.Text)
		for _, m := range t.Materials {
			add(m.Name)
		}
	}
	for _, p := range r.PendingTasks {
		add(p)
	}
	add(r.Notes)
	return b.String()
}

// Group aggregates the records sharing one key.
type Group struct {
	Key      string
	Records  int
	Worked   decimal.Decimal
	Overtime decimal.Decimal
}

// ByWeek groups records by the ISO week of their date, newest week first.
// Records with an unreadable date are grouped under "unknown".
func ByWeek(records []model.WorkRecord) []Group {
	groups := group(records, func(r model.WorkRecord) string {
		d := r.Date
		if len(d) > 10 {
			d = d[:10]
		}
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return "unknown"
		}
		return timecalc.ISOWeekLabel(t)
	})
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	return groups
}

// ByLocality groups records by locality, sorted by name.
func ByLocality(records []model.WorkRecord) []Group {
	groups := group(records, func(r model.WorkRecord) string {
		if l := strings.TrimSpace(r.Locality); l != "" {
			return l
		}
		return "(none)"
	})
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

func group(records []model.WorkRecord, key func(model.WorkRecord) string) []Group {
	index := map[string]int{}
	var out []Group
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group{Key: k, Worked: decimal.Zero, Overtime: decimal.Zero})
		}
		out[i].Records++
		out[i].Worked = out[i].Worked.Add(hours(r.WorkedHours))
		out[i].Overtime = out[i].Overtime.Add(Overtime(r))
	}
	return out
}
