package http

import (
	"bytes"
	"encoding/json"
	"fmt"

	"rumclub/internal/core"
)

// amountJSON is how money leaves the API: exact cents plus a two-decimal
// euro string for display.
type amountJSON struct {
	Cents int64  `json:"cents"`
	Euros string `json:"euros"`
}

func toAmount(m core.Money) amountJSON {
	return amountJSON{Cents: m.Cents, Euros: m.Decimal().StringFixed(2)}
}

// amountInput accepts an amount as a JSON string ("12,50", "12.50 €") or a
// JSON number. Parsing into cents happens in core.ParseAmount.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = amountInput(n.String())
	return nil
}

func (a amountInput) money(allowNegative bool) (core.Money, error) {
	return core.ParseAmount(string(a), allowNegative)
}

type stockJSON struct {
	Sold        int        `json:"sold"`
	Reserved    int        `json:"reserved"`
	Remaining   int        `json:"remaining"`
	LatentValue amountJSON `json:"latent_value"`
}

type sampleSummaryJSON struct {
	Month              string     `json:"month"`
	Bottle             string     `json:"bottle"`
	Quantity           int        `json:"quantity"`
	PaidQuantity       int        `json:"paid_quantity"`
	Opened             bool       `json:"opened"`
	Revenue            amountJSON `json:"revenue"`
	TheoreticalRevenue amountJSON `json:"theoretical_revenue"`
	Cost               amountJSON `json:"cost"`
	Margin             amountJSON `json:"margin"`
	TheoreticalMargin  amountJSON `json:"theoretical_margin"`
	MarginRate         float64    `json:"margin_rate"`
	CollectionRate     float64    `json:"collection_rate"`
	Stock              stockJSON  `json:"stock"`
}

func toSampleSummary(s core.SampleSummary) sampleSummaryJSON {
	return sampleSummaryJSON{
		Month:              s.Month,
		Bottle:             s.Bottle,
		Quantity:           s.Quantity,
		PaidQuantity:       s.PaidQuantity,
		Opened:             s.Opened,
		Revenue:            toAmount(s.Revenue),
		TheoreticalRevenue: toAmount(s.TheoreticalRevenue),
		Cost:               toAmount(s.Cost),
		Margin:             toAmount(s.Margin),
		TheoreticalMargin:  toAmount(s.TheoreticalMargin),
		MarginRate:         s.MarginRate,
		CollectionRate:     s.CollectionRate,
		Stock: stockJSON{
			Sold:        s.Stock.Sold,
			Reserved:    s.Stock.Reserved,
			Remaining:   s.Stock.Remaining,
			LatentValue: toAmount(s.Stock.LatentValue),
		},
	}
}

type tastingSummaryJSON struct {
	Month              string     `json:"month"`
	Registered         int        `json:"registered"`
	PaidMembers        int        `json:"paid_members"`
	MealMembers        int        `json:"meal_members"`
	Guests             int        `json:"guests"`
	PaidGuests         int        `json:"paid_guests"`
	MealGuests         int        `json:"meal_guests"`
	Revenue            amountJSON `json:"revenue"`
	TheoreticalRevenue amountJSON `json:"theoretical_revenue"`
	Cost               amountJSON `json:"cost"`
	Margin             amountJSON `json:"margin"`
	TheoreticalMargin  amountJSON `json:"theoretical_margin"`
	MarginRate         float64    `json:"margin_rate"`
}

func toTastingSummary(t core.TastingSummary) tastingSummaryJSON {
	return tastingSummaryJSON{
		Month:              t.Month,
		Registered:         t.Registered,
		PaidMembers:        t.PaidMembers,
		MealMembers:        t.MealMembers,
		Guests:             t.Guests,
		PaidGuests:         t.PaidGuests,
		MealGuests:         t.MealGuests,
		Revenue:            toAmount(t.Revenue),
		TheoreticalRevenue: toAmount(t.TheoreticalRevenue),
		Cost:               toAmount(t.Cost),
		Margin:             toAmount(t.Margin),
		TheoreticalMargin:  toAmount(t.TheoreticalMargin),
		MarginRate:         t.MarginRate,
	}
}

type duesSummaryJSON struct {
	Members            int        `json:"members"`
	Paid               int        `json:"paid"`
	Revenue            amountJSON `json:"revenue"`
	TheoreticalRevenue amountJSON `json:"theoretical_revenue"`
}

type annualSummaryJSON struct {
	OpeningBalance      amountJSON           `json:"opening_balance"`
	SampleQuantity      int                  `json:"sample_quantity"`
	SampleMargin        amountJSON           `json:"sample_margin"`
	Dues                duesSummaryJSON      `json:"dues"`
	TastingMargin       amountJSON           `json:"tasting_margin"`
	Treasury            amountJSON           `json:"treasury"`
	TheoreticalTreasury amountJSON           `json:"theoretical_treasury"`
	LatentStockValue    amountJSON           `json:"latent_stock_value"`
	ArchiveValue        amountJSON           `json:"archive_value"`
	Samples             []sampleSummaryJSON  `json:"samples"`
	Tastings            []tastingSummaryJSON `json:"tastings"`
	// Fallback is set when the saved ledger could not be loaded and the
	// figures come from an empty document.
	Fallback bool `json:"fallback,omitempty"`
}

func toAnnualSummary(s core.AnnualSummary) annualSummaryJSON {
	out := annualSummaryJSON{
		OpeningBalance: toAmount(s.OpeningBalance),
		SampleQuantity: s.SampleQuantity,
		SampleMargin:   toAmount(s.SampleMargin),
		Dues: duesSummaryJSON{
			Members:            s.Dues.Members,
			Paid:               s.Dues.Paid,
			Revenue:            toAmount(s.Dues.Revenue),
			TheoreticalRevenue: toAmount(s.Dues.TheoreticalRevenue),
		},
		TastingMargin:       toAmount(s.TastingMargin),
		Treasury:            toAmount(s.Treasury),
		TheoreticalTreasury: toAmount(s.TheoreticalTreasury),
		LatentStockValue:    toAmount(s.LatentStockValue),
		ArchiveValue:        toAmount(s.ArchiveValue),
		Samples:             make([]sampleSummaryJSON, 0, len(s.Samples)),
		Tastings:            make([]tastingSummaryJSON, 0, len(s.Tastings)),
	}
	for _, m := range s.Samples {
		out.Samples = append(out.Samples, toSampleSummary(m))
	}
	for _, t := range s.Tastings {
		out.Tastings = append(out.Tastings, toTastingSummary(t))
	}
	return out
}

type statementSampleJSON struct {
	Month    string     `json:"month"`
	Bottle   string     `json:"bottle"`
	Quantity int        `json:"quantity"`
	Amount   amountJSON `json:"amount"`
	Paid     bool       `json:"paid"`
}

type statementTastingJSON struct {
	Month string `json:"month"`
	Meal  bool   `json:"meal"`
	Paid  bool   `json:"paid"`
}

type statementJSON struct {
	Member      string                 `json:"member"`
	DuesPaid    bool                   `json:"dues_paid"`
	Samples     []statementSampleJSON  `json:"samples"`
	Tastings    []statementTastingJSON `json:"tastings"`
	Outstanding amountJSON             `json:"outstanding"`
}

func toStatement(st core.MemberStatement) statementJSON {
	out := statementJSON{
		Member:      st.Member,
		DuesPaid:    st.DuesPaid,
		Samples:     make([]statementSampleJSON, 0, len(st.Samples)),
		Tastings:    make([]statementTastingJSON, 0, len(st.Tastings)),
		Outstanding: toAmount(st.Outstanding),
	}
	for _, s := range st.Samples {
		out.Samples = append(out.Samples, statementSampleJSON{
			Month: s.Month, Bottle: s.Bottle, Quantity: s.Quantity, Amount: toAmount(s.Amount), Paid: s.Paid,
		})
	}
	for _, t := range st.Tastings {
		out.Tastings = append(out.Tastings, statementTastingJSON{Month: t.Month, Meal: t.Meal, Paid: t.Paid})
	}
	return out
}
