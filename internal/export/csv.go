package export

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"

	"rumclub/internal/core"
)

// Amount formats money the way French spreadsheets expect: "12,50".
func Amount(m core.Money) string {
	return strings.Replace(m.Decimal().StringFixed(2), ".", ",", 1)
}

func yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}

func percent(r float64) string {
	return strings.Replace(strconv.FormatFloat(r*100, 'f', 1, 64), ".", ",", 1) + " %"
}

// table accumulates rows and renders them as semicolon-separated text with
// accents transliterated.
type table struct {
	rows [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	w.UseCRLF = true
	for _, row := range t.rows {
		out := make([]string, len(row))
		for i, c := range row {
			out[i] = Transliterate(c)
		}
		if err := w.Write(out); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// orderedNames returns roster members first, then names that only appear in
// the given rows (removed members), each group sorted.
func orderedNames(members []string, keys []string) []string {
	onRoster := make(map[string]bool, len(members))
	for _, m := range members {
		onRoster[m] = true
	}
	out := append([]string{}, members...)
	var orphans []string
	for _, k := range keys {
		if !onRoster[k] {
			orphans = append(orphans, k)
		}
	}
	sort.Strings(orphans)
	return append(out, orphans...)
}

// SampleCSV lists a month's orders followed by the month's figures.
func SampleCSV(l *core.Ledger, month string) ([]byte, error) {
	s := l.Samples[month]
	sum := l.SampleSummary(month)

	var keys []string
	if s != nil {
		for n := range s.Orders {
			keys = append(keys, n)
		}
	}

	t := &table{}
	t.add("Mois", month)
	t.add("Bouteille", sum.Bottle)
	t.add()
	t.add("Adherent", "Quantite", "Paye", "Montant")
	for _, n := range orderedNames(l.Members, keys) {
		o := core.SampleOrder{}
		if s != nil {
			o = s.Orders[n]
		}
		if o.Quantity == 0 {
			continue
		}
		t.add(n, strconv.Itoa(o.Quantity), yesNo(o.Paid), Amount(s.Price.Times(o.Quantity)))
	}
	t.add()
	t.add("Quantite totale", strconv.Itoa(sum.Quantity))
	t.add("Quantite payee", strconv.Itoa(sum.PaidQuantity))
	t.add("Prix d'achat", Amount(sum.Cost))
	t.add("Recette", Amount(sum.Revenue))
	t.add("Recette theorique", Amount(sum.TheoreticalRevenue))
	t.add("Marge", Amount(sum.Margin))
	t.add("Marge theorique", Amount(sum.TheoreticalMargin))
	t.add("Rentabilite", percent(sum.MarginRate))
	t.add("Taux d'encaissement", percent(sum.CollectionRate))
	t.add("Echantillons restants", strconv.Itoa(sum.Stock.Remaining))
	t.add("Valeur latente", Amount(sum.Stock.LatentValue))
	return t.bytes()
}

// TastingCSV lists an event's members and guests followed by its figures.
func TastingCSV(l *core.Ledger, month string) ([]byte, error) {
	ev := l.Tastings[month]
	sum := l.TastingSummary(month)

	t := &table{}
	t.add("Degustation", month)
	t.add()
	t.add("Nom", "Statut", "Repas", "Paye")
	if ev != nil {
		var keys []string
		for n := range ev.Participants {
			keys = append(keys, n)
		}
		for _, n := range orderedNames(l.Members, keys) {
			p := ev.Participants[n]
			if !p.Registered {
				continue
			}
			t.add(n, "Adherent", yesNo(p.Meal), yesNo(p.Paid))
		}
		for _, g := range ev.Guests {
			t.add(g.Name, "Invite", yesNo(g.Meal), yesNo(g.Paid))
		}
	}
	t.add()
	t.add("Inscrits", strconv.Itoa(sum.Registered))
	t.add("Invites", strconv.Itoa(sum.Guests))
	t.add("Repas", strconv.Itoa(sum.MealMembers+sum.MealGuests))
	t.add("Recette", Amount(sum.Revenue))
	t.add("Recette theorique", Amount(sum.TheoreticalRevenue))
	t.add("Couts", Amount(sum.Cost))
	t.add("Marge", Amount(sum.Margin))
	t.add("Marge theorique", Amount(sum.TheoreticalMargin))
	t.add("Rentabilite", percent(sum.MarginRate))
	return t.bytes()
}

// SummaryCSV is the cross-month statement: realized and theoretical figures
// for every month, the dues, every event and the treasury.
func SummaryCSV(l *core.Ledger) ([]byte, error) {
	sum := l.Summary()

	t := &table{}
	t.add("Poste", "Realise", "Theorique")
	t.add("Solde initial", Amount(sum.OpeningBalance), Amount(sum.OpeningBalance))
	for _, s := range sum.Samples {
		t.add("Echantillons "+s.Month, Amount(s.Margin), Amount(s.TheoreticalMargin))
	}
	t.add("Cotisations", Amount(sum.Dues.Revenue), Amount(sum.Dues.TheoreticalRevenue))
	for _, e := range sum.Tastings {
		t.add("Degustation "+e.Month, Amount(e.Margin), Amount(e.TheoreticalMargin))
	}
	t.add("Tresorerie", Amount(sum.Treasury), Amount(sum.TheoreticalTreasury))
	t.add()
	t.add("Echantillons vendus", strconv.Itoa(sum.SampleQuantity))
	t.add("Cotisations payees", strconv.Itoa(sum.Dues.Paid)+"/"+strconv.Itoa(sum.Dues.Members))
	t.add("Valeur latente du stock", Amount(sum.LatentStockValue))
	t.add("Valeur de la bibliotheque", Amount(sum.ArchiveValue))
	return t.bytes()
}
