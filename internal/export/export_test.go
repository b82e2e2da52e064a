package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"rumclub/internal/core"
)

func exportLedger(t *testing.T) *core.Ledger {
	t.Helper()
	l := core.NewLedger(core.Policy{LifetimeFree: []string{"FONDATEUR"}})
	l.ReplaceMembers([]string{"SMITH John", "DUPONT Hélène", "FONDATEUR Paul"})
	l.SetOpeningBalance(core.Euros(100))
	steps := []error{
		l.SetSamplePricing("Février", core.Euros(40), core.Money{Cents: 350}),
		l.SetBottle("Février", "Rhum agricole ambré"),
		l.SetOrder("Février", "SMITH John", 4, true),
		l.SetOrder("Février", "DUPONT Hélène", 2, false),
		l.SetDuesPaid("SMITH John", true),
		l.SetTastingBottleCost("Décembre", core.Euros(90)),
		l.SetParticipant("Décembre", "DUPONT Hélène", core.Participant{Registered: true, Meal: true, Paid: true}),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := l.AddGuest("Décembre", "Zoé Crème"); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestTransliterate(t *testing.T) {
	cases := map[string]string{
		"Février":         "Fevrier",
		"Décembre":        "Decembre",
		"Août":            "Aout",
		"Trésorerie":      "Tresorerie",
		"Cœur de chauffe": "Coeur de chauffe",
		"12,50 €":         "12,50 EUR",
		"SMITH John":      "SMITH John",
	}
	for in, want := range cases {
		if got := Transliterate(in); got != want {
			t.Errorf("Transliterate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Février":             "fevrier",
		"Rhum  Vieux (8 ans)": "rhum_vieux_8_ans",
		"  Août ":             "aout",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSampleCSV(t *testing.T) {
	data, err := SampleCSV(exportLedger(t), "Février")
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"Mois;Fevrier\r\n",
		"Bouteille;Rhum agricole ambre\r\n",
		"DUPONT Helene;2;non;7,00\r\n",
		"SMITH John;4;oui;14,00\r\n",
		"Recette;14,00\r\n",
		"Marge;-26,00\r\n",
		"Marge theorique;-19,00\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("sample file missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "FONDATEUR") {
		t.Errorf("members without an order must not be listed")
	}
}

func TestTastingCSVIncludesGuests(t *testing.T) {
	data, err := TastingCSV(exportLedger(t), "Décembre")
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"DUPONT Helene;Adherent;oui;oui\r\n",
		"Zoe Creme;Invite;non;non\r\n",
		// revenue 35, cost 15 + 90
		"Marge;-70,00\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tasting file missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryCSV(t *testing.T) {
	l := exportLedger(t)
	data, err := SummaryCSV(l)
	if err != nil {
		t.Fatal(err)
	}
	// 100 - 26 (samples) + 70 (dues: SMITH + FONDATEUR) - 70 (tasting)
	want := "Tresorerie;" + Amount(l.Summary().Treasury) + ";"
	if !strings.Contains(string(data), want) || Amount(l.Summary().Treasury) != "74,00" {
		t.Errorf("summary missing %q:\n%s", want, data)
	}
	if !strings.Contains(string(data), "Echantillons Fevrier;-26,00;-19,00") {
		t.Errorf("summary missing the February line:\n%s", data)
	}
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteZip(context.Background(), &buf, exportLedger(t)); err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(zr.File), 1+len(core.SampleMonths)+len(core.TastingMonths); got != want {
		t.Fatalf("zip has %d files, want %d", got, want)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
		for _, r := range f.Name {
			if r > 127 {
				t.Errorf("file name %q is not ASCII", f.Name)
			}
		}
	}
	for _, want := range []string{"synthese.csv", "echantillons_02_fevrier.csv", "echantillons_08_aout.csv", "degustation_4_decembre.csv"} {
		if !names[want] {
			t.Errorf("zip missing %s (have %v)", want, names)
		}
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	head, _ := io.ReadAll(rc)
	if !bytes.HasPrefix(head, []byte("Poste;Realise;Theorique")) {
		t.Errorf("first file should be the summary, got %q", head)
	}
}

func TestFilesHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Files(ctx, exportLedger(t)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestWriteWorkbook(t *testing.T) {
	l := exportLedger(t)
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, l); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 5 || sheets[0] != sheetSummary {
		t.Fatalf("sheets = %v", sheets)
	}
	if v, _ := f.GetCellValue(sheetSummary, "A6"); v != "Trésorerie" {
		t.Errorf("A6 = %q", v)
	}
	if v, _ := f.GetCellValue(sheetSummary, "B6"); v != "74" {
		t.Errorf("treasury cell = %q", v)
	}
	if v, _ := f.GetCellValue(sheetLibrary, "B2"); v != "Rhum agricole ambré" {
		t.Errorf("library bottle = %q", v)
	}
	// DUPONT owes dues 35 + samples 7; tasting is paid.
	rows, err := f.GetRows(sheetMembers)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[1][0] != "DUPONT Hélène" || rows[1][2] != "42" {
		t.Errorf("members sheet = %v", rows)
	}
}
