package sheets

import (
	"context"
	"fmt"
	"time"

	"rumclub/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter mirrors the annual treasury to a spreadsheet tab.
	SummaryWriter interface {
		WriteSummary(ctx context.Context, year int, s core.AnnualSummary) error
	}
)

// Rows lays out an annual summary the way the mirror tab shows it: a block of
// totals, then one line per bottle of the month, then one per tasting.
// Amounts are euros as float64 so USER_ENTERED keeps them numeric.
func Rows(s core.AnnualSummary, updated time.Time) [][]any {
	rows := [][]any{
		{"Mis à jour", updated.Format("02/01/2006 15:04")},
		{},
		{"Solde d'ouverture", s.OpeningBalance.Float()},
		{"Cotisations", fmt.Sprintf("%d/%d", s.Dues.Paid, s.Dues.Members), s.Dues.Revenue.Float()},
		{"Marge échantillons", s.SampleQuantity, s.SampleMargin.Float()},
		{"Marge dégustations", "", s.TastingMargin.Float()},
		{"Trésorerie", "", s.Treasury.Float()},
		{"Trésorerie théorique", "", s.TheoreticalTreasury.Float()},
		{"Stock latent", "", s.LatentStockValue.Float()},
		{"Bibliothèque", "", s.ArchiveValue.Float()},
		{},
		{"Mois", "Bouteille", "Quantité", "Recette", "Coût", "Marge", "Restant"},
	}
	for _, m := range s.Samples {
		rows = append(rows, []any{
			m.Month, m.Bottle, m.Quantity,
			m.Revenue.Float(), m.Cost.Float(), m.Margin.Float(), m.Stock.Remaining,
		})
	}
	rows = append(rows, []any{}, []any{"Dégustation", "Inscrits", "Invités", "Recette", "Coût", "Marge"})
	for _, t := range s.Tastings {
		rows = append(rows, []any{
			t.Month, t.Registered, t.Guests,
			t.Revenue.Float(), t.Cost.Float(), t.Margin.Float(),
		})
	}
	return rows
}
