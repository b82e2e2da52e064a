package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"rumclub/internal/core"
)

// CurrentSchemaVersion is written into every saved document.
const CurrentSchemaVersion = 1

// amount is a Money serialized as a plain JSON number in euros ("12.50").
type amount core.Money

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(core.Money(a).Decimal().StringFixed(2)), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*a = amount{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*a = amount{Cents: d.Shift(2).Round(0).IntPart()}
	return nil
}

type (
	document struct {
		SchemaVersion  int                   `json:"schema_version"`
		Members        []string              `json:"adherents_noms"`
		Samples        map[string]sampleDoc  `json:"echantillons"`
		Dues           map[string]bool       `json:"cotisations"`
		Tastings       map[string]tastingDoc `json:"degustations"`
		OpeningBalance amount                `json:"solde_initial"`
		Archive        map[string]archiveDoc `json:"bibliotheque"`
	}

	sampleDoc struct {
		Bottle string              `json:"bouteille"`
		Cost   amount              `json:"prix_achat"`
		Price  amount              `json:"prix_vente"`
		Orders map[string]orderDoc `json:"commandes"`
	}

	orderDoc struct {
		Quantity int  `json:"quantite"`
		Paid     bool `json:"paye"`
	}

	tastingDoc struct {
		BottleCost   amount                    `json:"prix_bouteilles"`
		Participants map[string]participantDoc `json:"participants"`
		Guests       []guestDoc                `json:"invites"`
	}

	participantDoc struct {
		Registered bool `json:"inscrit"`
		Meal       bool `json:"repas"`
		Paid       bool `json:"paye"`
	}

	guestDoc struct {
		Name string `json:"nom"`
		Meal bool   `json:"repas"`
		Paid bool   `json:"paye"`
	}

	archiveDoc struct {
		Bottle       string `json:"bouteille"`
		InStock      bool   `json:"en_stock"`
		ReserveValue amount `json:"valeur"`
		Notes        string `json:"notes"`
	}
)

// Encode serializes a ledger into the current document schema.
func Encode(l *core.Ledger) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("validate ledger: %w", err)
	}
	doc := document{
		SchemaVersion:  CurrentSchemaVersion,
		Members:        append([]string{}, l.Members...),
		Samples:        make(map[string]sampleDoc, len(l.Samples)),
		Dues:           make(map[string]bool, len(l.Dues)),
		Tastings:       make(map[string]tastingDoc, len(l.Tastings)),
		OpeningBalance: amount(l.OpeningBalance),
		Archive:        make(map[string]archiveDoc, len(l.Archive)),
	}
	for m, s := range l.Samples {
		sd := sampleDoc{Bottle: s.Bottle, Cost: amount(s.Cost), Price: amount(s.Price), Orders: make(map[string]orderDoc, len(s.Orders))}
		for n, o := range s.Orders {
			sd.Orders[n] = orderDoc{Quantity: o.Quantity, Paid: o.Paid}
		}
		doc.Samples[m] = sd
	}
	for n, p := range l.Dues {
		doc.Dues[n] = p
	}
	for m, t := range l.Tastings {
		td := tastingDoc{
			BottleCost:   amount(t.BottleCost),
			Participants: make(map[string]participantDoc, len(t.Participants)),
			Guests:       make([]guestDoc, 0, len(t.Guests)),
		}
		for n, p := range t.Participants {
			td.Participants[n] = participantDoc{Registered: p.Registered, Meal: p.Meal, Paid: p.Paid}
		}
		for _, g := range t.Guests {
			td.Guests = append(td.Guests, guestDoc{Name: g.Name, Meal: g.Meal, Paid: g.Paid})
		}
		doc.Tastings[m] = td
	}
	for m, a := range l.Archive {
		doc.Archive[m] = archiveDoc{Bottle: a.Bottle, InStock: a.InStock, ReserveValue: amount(a.ReserveValue), Notes: a.Notes}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode migrates a stored document to the current schema and builds the
// ledger. Missing optional collections load with their defaults and records
// outside the ledger invariants are repaired with a warning.
func Decode(data []byte, policy core.Policy) (*core.Ledger, error) {
	raw, err := migrateDocument(data)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", ErrCorrupt, err)
	}

	l := core.NewLedger(policy)
	l.ReplaceMembers(doc.Members)
	for m, sd := range doc.Samples {
		s := &core.MonthlySample{
			Bottle: sd.Bottle,
			Cost:   core.Money(sd.Cost),
			Price:  core.Money(sd.Price),
			Orders: make(map[string]core.SampleOrder, len(sd.Orders)),
		}
		for n, o := range sd.Orders {
			s.Orders[n] = core.SampleOrder{Quantity: o.Quantity, Paid: o.Paid}
		}
		l.Samples[m] = s
	}
	for n, p := range doc.Dues {
		l.Dues[n] = p
	}
	for m, td := range doc.Tastings {
		t := &core.TastingEvent{
			BottleCost:   core.Money(td.BottleCost),
			Participants: make(map[string]core.Participant, len(td.Participants)),
			Guests:       make([]core.Guest, 0, len(td.Guests)),
		}
		for n, p := range td.Participants {
			t.Participants[n] = core.Participant{Registered: p.Registered, Meal: p.Meal, Paid: p.Paid}
		}
		for _, g := range td.Guests {
			t.Guests = append(t.Guests, core.Guest{Name: g.Name, Meal: g.Meal, Paid: g.Paid})
		}
		l.Tastings[m] = t
	}
	l.OpeningBalance = core.Money(doc.OpeningBalance)
	for m, ad := range doc.Archive {
		l.Archive[m] = &core.ArchiveEntry{Bottle: ad.Bottle, InStock: ad.InStock, ReserveValue: core.Money(ad.ReserveValue), Notes: ad.Notes}
	}
	l.Normalize()
	logRepairs(repairLedger(l))
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return l, nil
}
