package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rumclub/internal/core"
)

const (
	sheetSummary  = "Synthèse"
	sheetSamples  = "Échantillons"
	sheetTastings = "Dégustations"
	sheetLibrary  = "Bibliothèque"
	sheetMembers  = "Adhérents"
)

// WriteWorkbook writes the annual figures as an XLSX workbook. Amounts are
// numeric cells in euros so the club can keep computing in the spreadsheet.
func WriteWorkbook(w io.Writer, l *core.Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	sum := l.Summary()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Poste", "Réalisé", "Théorique"},
		{"Solde initial", sum.OpeningBalance.Float(), sum.OpeningBalance.Float()},
		{"Marge échantillons", sum.SampleMargin.Float(), sum.TheoreticalSample.Float()},
		{"Cotisations", sum.Dues.Revenue.Float(), sum.Dues.TheoreticalRevenue.Float()},
		{"Marge dégustations", sum.TastingMargin.Float(), sum.TheoreticalTasting.Float()},
		{"Trésorerie", sum.Treasury.Float(), sum.TheoreticalTreasury.Float()},
		{},
		{"Valeur latente du stock", sum.LatentStockValue.Float()},
		{"Valeur de la bibliothèque", sum.ArchiveValue.Float()},
	}
	if err := writeRows(f, sheetSummary, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"Mois", "Bouteille", "Quantité", "Payée", "Prix d'achat", "Recette", "Marge", "Marge théorique", "Restants", "Valeur latente"}}
	for _, s := range sum.Samples {
		rows = append(rows, []interface{}{
			s.Month, s.Bottle, s.Quantity, s.PaidQuantity, s.Cost.Float(), s.Revenue.Float(),
			s.Margin.Float(), s.TheoreticalMargin.Float(), s.Stock.Remaining, s.Stock.LatentValue.Float(),
		})
	}
	if err := addSheet(f, sheetSamples, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"Mois", "Inscrits", "Invités", "Recette", "Coûts", "Marge", "Marge théorique"}}
	for _, e := range sum.Tastings {
		rows = append(rows, []interface{}{
			e.Month, e.Registered, e.Guests, e.Revenue.Float(), e.Cost.Float(), e.Margin.Float(), e.TheoreticalMargin.Float(),
		})
	}
	if err := addSheet(f, sheetTastings, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"Mois", "Bouteille", "En stock", "Valeur", "Notes"}}
	for _, m := range core.SampleMonths {
		a := l.Archive[m]
		if a == nil {
			continue
		}
		rows = append(rows, []interface{}{m, a.Bottle, yesNo(a.InStock), a.ReserveValue.Float(), a.Notes})
	}
	if err := addSheet(f, sheetLibrary, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"Adhérent", "Cotisation payée", "Reste dû"}}
	for _, m := range l.Members {
		st, err := l.Statement(m)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{m, yesNo(st.DuesPaid), st.Outstanding.Float()})
	}
	if err := addSheet(f, sheetMembers, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
