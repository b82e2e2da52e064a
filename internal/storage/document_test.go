package storage

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"rumclub/internal/core"
)

var testPolicy = core.Policy{LifetimeFree: []string{"FONDATEUR"}}

func populatedLedger(t *testing.T) *core.Ledger {
	t.Helper()
	l := core.NewLedger(testPolicy)
	l.ReplaceMembers([]string{"SMITH John", "DUPONT Marie", "FONDATEUR Paul"})
	l.SetOpeningBalance(core.Money{Cents: 12345})
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(l.SetSamplePricing("Mars", core.Euros(42), core.Money{Cents: 350}))
	must(l.SetBottle("Mars", "Rhum agricole blanc"))
	must(l.SetOrder("Mars", "SMITH John", 3, true))
	must(l.SetOrder("Mars", "DUPONT Marie", 1, false))
	must(l.SetArchiveNotes("Mars", "étagère du haut"))
	must(l.SetDuesPaid("DUPONT Marie", true))
	must(l.SetTastingBottleCost("Juin", core.Euros(110)))
	must(l.SetParticipant("Juin", "SMITH John", core.Participant{Registered: true, Meal: true, Paid: true}))
	_, err := l.AddGuest("Juin", "Invité")
	must(err)
	_, err = l.AddGuest("Juin", "Invité")
	must(err)
	must(l.UpdateGuest("Juin", 1, core.Guest{Name: "Invité", Meal: true}))
	return l
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	l := populatedLedger(t)
	data, err := Encode(l)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data, testPolicy)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, l)
	}
	if got.Summary().Treasury != l.Summary().Treasury {
		t.Fatalf("derived treasury changed across round trip")
	}
}

func TestDecodeLegacyDocumentDefaults(t *testing.T) {
	legacy := `{
		"adherents_noms": ["SMITH John"],
		"echantillons": {"Mars": {"bouteille": "Vieux", "prix_achat": 40.0, "prix_vente": 3.5, "commandes": {"SMITH John": {"quantite": 2, "paye": true}}}},
		"degustations": {"Juin": {"participants": {}}}
	}`
	l, err := Decode([]byte(legacy), testPolicy)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if !l.OpeningBalance.IsZero() || len(l.Dues) != 0 || len(l.Archive) != 0 {
		t.Fatalf("missing fields must default: balance=%v dues=%v archive=%v", l.OpeningBalance, l.Dues, l.Archive)
	}
	if len(l.Tastings) != len(core.TastingMonths) || l.Tastings["Juin"].Guests == nil {
		t.Fatalf("tastings must be fully populated: %+v", l.Tastings)
	}
	if s := l.Samples["Mars"]; s.Price.Cents != 350 || s.Orders["SMITH John"].Quantity != 2 {
		t.Fatalf("unexpected sample: %+v", s)
	}
	if len(l.Samples) != len(core.SampleMonths) {
		t.Fatalf("expected every sample month, got %d", len(l.Samples))
	}
}

func TestDecodeWritesCurrentVersion(t *testing.T) {
	l := core.NewLedger(testPolicy)
	data, err := Encode(l)
	if err != nil {
		t.Fatal(err)
	}
	var head struct {
		Version int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Version != CurrentSchemaVersion {
		t.Fatalf("expected schema_version %d, got %d (err=%v)", CurrentSchemaVersion, head.Version, err)
	}
}

func TestDecodeRejectsCorruptDocuments(t *testing.T) {
	cases := map[string]string{
		"truncated":      `{"adherents_noms": ["A"`,
		"null":           `null`,
		"future version": `{"schema_version": 99}`,
		"wrong type":     `{"adherents_noms": "A"}`,
		"guest list":     `{"degustations": {"Mars": {"invites": {"nom": "A"}}}}`,
	}
	for name, in := range cases {
		if _, err := Decode([]byte(in), testPolicy); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestDecodeRepairsOutOfRangeRecords(t *testing.T) {
	legacy := `{
		"adherents_noms": ["A Un"],
		"echantillons": {
			"Mars": {"bouteille": "Vieux", "prix_achat": -5, "prix_vente": 4, "commandes": {"A Un": {"quantite": 50, "paye": true}}},
			"Mai": {"prix_vente": -1, "commandes": {"A Un": {"quantite": -2}}}
		},
		"degustations": {"Mars": {"prix_bouteilles": -10, "invites": [
			{"nom": "Alice", "repas": true, "paye": true},
			{"nom": "", "repas": true, "paye": false},
			{"nom": "  Bob ", "repas": false, "paye": true}
		]}},
		"bibliotheque": {"Mars": {"bouteille": "Vieux", "en_stock": true, "valeur": 8}, "Avril": {"bouteille": ""}}
	}`
	l, err := Decode([]byte(legacy), testPolicy)
	if err != nil {
		t.Fatalf("out-of-range records must be repaired, got %v", err)
	}
	mars := l.Samples["Mars"]
	if !mars.Cost.IsZero() || mars.Orders["A Un"].Quantity != core.MaxSampleQuantity || !mars.Orders["A Un"].Paid {
		t.Fatalf("unexpected Mars sample: %+v", mars)
	}
	if mai := l.Samples["Mai"]; !mai.Price.IsZero() || mai.Orders["A Un"].Quantity != 0 {
		t.Fatalf("unexpected Mai sample: %+v", mai)
	}
	ev := l.Tastings["Mars"]
	want := []core.Guest{{Name: "Alice", Meal: true, Paid: true}, {Name: "Bob", Paid: true}}
	if !ev.BottleCost.IsZero() || !reflect.DeepEqual(ev.Guests, want) {
		t.Fatalf("unexpected event: cost=%v guests=%+v", ev.BottleCost, ev.Guests)
	}
	if _, ok := l.Archive["Avril"]; ok || l.Archive["Mars"] == nil {
		t.Fatalf("unexpected library: %+v", l.Archive)
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("repaired ledger must validate: %v", err)
	}
}

func TestRepairLedgerLeavesValidLedgerAlone(t *testing.T) {
	l := core.NewLedger(testPolicy)
	l.ReplaceMembers([]string{"A Un"})
	_ = l.SetSamplePricing("Mars", core.Euros(40), core.Euros(4))
	_ = l.SetOrder("Mars", "A Un", 3, false)
	if notes := repairLedger(l); len(notes) != 0 {
		t.Fatalf("expected no repairs, got %v", notes)
	}
}
