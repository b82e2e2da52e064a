package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Ledger is the whole club document: roster, monthly samples, dues, tastings,
// opening balance and library. It is not safe for concurrent use; callers
// serialize access (see services.LedgerService).
type Ledger struct {
	Members        []string
	Samples        map[string]*MonthlySample
	Dues           map[string]bool
	Tastings       map[string]*TastingEvent
	OpeningBalance Money
	Archive        map[string]*ArchiveEntry

	Policy Policy
}

var validate = validator.New()

// NewLedger returns an empty document with every month and event present.
func NewLedger(policy Policy) *Ledger {
	l := &Ledger{Members: []string{}, Policy: policy}
	l.resetCollections()
	return l
}

func (l *Ledger) resetCollections() {
	l.Samples = make(map[string]*MonthlySample, len(SampleMonths))
	for _, m := range SampleMonths {
		l.Samples[m] = newMonthlySample()
	}
	l.Dues = map[string]bool{}
	l.Tastings = make(map[string]*TastingEvent, len(TastingMonths))
	for _, m := range TastingMonths {
		l.Tastings[m] = newTastingEvent()
	}
	l.Archive = map[string]*ArchiveEntry{}
}

// Normalize fills any missing month, event or map so the derivation never sees nil.
func (l *Ledger) Normalize() {
	if l.Members == nil {
		l.Members = []string{}
	}
	if l.Samples == nil {
		l.Samples = map[string]*MonthlySample{}
	}
	for _, m := range SampleMonths {
		s := l.Samples[m]
		if s == nil {
			s = newMonthlySample()
			l.Samples[m] = s
		}
		if s.Orders == nil {
			s.Orders = map[string]SampleOrder{}
		}
	}
	if l.Dues == nil {
		l.Dues = map[string]bool{}
	}
	if l.Tastings == nil {
		l.Tastings = map[string]*TastingEvent{}
	}
	for _, m := range TastingMonths {
		t := l.Tastings[m]
		if t == nil {
			t = newTastingEvent()
			l.Tastings[m] = t
		}
		if t.Participants == nil {
			t.Participants = map[string]Participant{}
		}
		if t.Guests == nil {
			t.Guests = []Guest{}
		}
	}
	if l.Archive == nil {
		l.Archive = map[string]*ArchiveEntry{}
	}
}

// Validate checks every record invariant: bounded quantities, non-negative
// costs and prices, named guests and library bottles.
func (l *Ledger) Validate() error {
	for _, m := range SampleMonths {
		s, ok := l.Samples[m]
		if !ok || s == nil {
			return fmt.Errorf("%s: %w", m, ErrUnknownMonth)
		}
		if err := s.Cost.ValidateNonNegative(); err != nil {
			return fmt.Errorf("%s cost: %w", m, err)
		}
		if err := s.Price.ValidateNonNegative(); err != nil {
			return fmt.Errorf("%s price: %w", m, err)
		}
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("%s orders: %w", m, err)
		}
	}
	for _, m := range TastingMonths {
		t, ok := l.Tastings[m]
		if !ok || t == nil {
			return fmt.Errorf("%s: %w", m, ErrUnknownEvent)
		}
		if err := t.BottleCost.ValidateNonNegative(); err != nil {
			return fmt.Errorf("%s bottle cost: %w", m, err)
		}
		if err := validate.Struct(t); err != nil {
			return fmt.Errorf("%s guests: %w", m, err)
		}
	}
	for m, a := range l.Archive {
		if a == nil {
			return fmt.Errorf("library %s: %w", m, ErrUnknownArchive)
		}
		if err := validate.Struct(a); err != nil {
			return fmt.Errorf("library %s: %w", m, err)
		}
	}
	return nil
}

// HasMember reports whether name is on the roster.
func (l *Ledger) HasMember(name string) bool {
	i := sort.SearchStrings(l.Members, name)
	return i < len(l.Members) && l.Members[i] == name
}

// ReplaceMembers replaces the roster with the deduplicated, sorted names.
// Rows keyed by names that disappear are kept as orphans.
func (l *Ledger) ReplaceMembers(names []string) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	l.Members = out
}

// AddMember adds one formatted name to the roster.
func (l *Ledger) AddMember(surname, firstname string) (string, error) {
	name := FormatMemberName(surname, firstname)
	if name == "" {
		return "", ErrEmptyMemberName
	}
	l.ReplaceMembers(append(l.Members, name))
	return name, nil
}

// RemoveMember drops a name from the roster without touching its historical rows.
func (l *Ledger) RemoveMember(name string) error {
	if !l.HasMember(name) {
		return ErrUnknownMember
	}
	out := l.Members[:0:0]
	for _, n := range l.Members {
		if n != name {
			out = append(out, n)
		}
	}
	l.Members = out
	return nil
}

func (l *Ledger) sample(month string) (*MonthlySample, error) {
	if !IsSampleMonth(month) {
		return nil, fmt.Errorf("%q: %w", month, ErrUnknownMonth)
	}
	s := l.Samples[month]
	if s == nil {
		s = newMonthlySample()
		l.Samples[month] = s
	}
	return s, nil
}

func (l *Ledger) tasting(month string) (*TastingEvent, error) {
	if !IsTastingMonth(month) {
		return nil, fmt.Errorf("%q: %w", month, ErrUnknownEvent)
	}
	t := l.Tastings[month]
	if t == nil {
		t = newTastingEvent()
		l.Tastings[month] = t
	}
	return t, nil
}

// SetBottle names the bottle of the month. The first time a month gets a
// non-empty label a library entry is created, in stock, valued at the
// current sale price times ArchiveReserveUnits. Later renames only update
// the entry's label.
func (l *Ledger) SetBottle(month, label string) error {
	s, err := l.sample(month)
	if err != nil {
		return err
	}
	label = strings.TrimSpace(label)
	s.Bottle = label
	if label == "" {
		return nil
	}
	if a, ok := l.Archive[month]; ok && a != nil {
		a.Bottle = label
		return nil
	}
	l.Archive[month] = &ArchiveEntry{
		Bottle:       label,
		InStock:      true,
		ReserveValue: s.Price.Times(ArchiveReserveUnits),
	}
	return nil
}

// SetSamplePricing sets the purchase cost and per-sample sale price.
func (l *Ledger) SetSamplePricing(month string, cost, price Money) error {
	s, err := l.sample(month)
	if err != nil {
		return err
	}
	if err := cost.ValidateNonNegative(); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	if err := price.ValidateNonNegative(); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	s.Cost, s.Price = cost, price
	return nil
}

// SetOrder records a member's sample order for a month.
func (l *Ledger) SetOrder(month, member string, quantity int, paid bool) error {
	s, err := l.sample(month)
	if err != nil {
		return err
	}
	if !l.HasMember(member) {
		return fmt.Errorf("%q: %w", member, ErrUnknownMember)
	}
	o := SampleOrder{Quantity: quantity, Paid: paid}
	if err := validate.Struct(o); err != nil {
		return ErrInvalidQuantity
	}
	s.Orders[member] = o
	return nil
}

// SetDuesPaid records a member's dues. Lifetime-free members cannot be
// toggled: the call succeeds and changes nothing.
func (l *Ledger) SetDuesPaid(member string, paid bool) error {
	if !l.HasMember(member) {
		return fmt.Errorf("%q: %w", member, ErrUnknownMember)
	}
	if l.Policy.IsLifetimeFree(member) {
		return nil
	}
	l.Dues[member] = paid
	return nil
}

// DuesPaid reports a member's effective dues status.
func (l *Ledger) DuesPaid(member string) bool {
	return l.Policy.IsLifetimeFree(member) || l.Dues[member]
}

// SetTastingBottleCost sets the total bottle cost of an event.
func (l *Ledger) SetTastingBottleCost(month string, cost Money) error {
	t, err := l.tasting(month)
	if err != nil {
		return err
	}
	if err := cost.ValidateNonNegative(); err != nil {
		return err
	}
	t.BottleCost = cost
	return nil
}

// SetParticipant records a member's registration, meal and payment for an event.
func (l *Ledger) SetParticipant(month, member string, p Participant) error {
	t, err := l.tasting(month)
	if err != nil {
		return err
	}
	if !l.HasMember(member) {
		return fmt.Errorf("%q: %w", member, ErrUnknownMember)
	}
	t.Participants[member] = p
	return nil
}

// AddGuest appends a guest, without meal and unpaid, and returns its index.
// Duplicate names are allowed.
func (l *Ledger) AddGuest(month, name string) (int, error) {
	t, err := l.tasting(month)
	if err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyGuestName
	}
	t.Guests = append(t.Guests, Guest{Name: name})
	return len(t.Guests) - 1, nil
}

// UpdateGuest replaces the guest at index.
func (l *Ledger) UpdateGuest(month string, index int, g Guest) error {
	t, err := l.tasting(month)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.Guests) {
		return ErrGuestIndex
	}
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return ErrEmptyGuestName
	}
	t.Guests[index] = g
	return nil
}

// RemoveGuest deletes the guest at index; later guests shift down.
func (l *Ledger) RemoveGuest(month string, index int) error {
	t, err := l.tasting(month)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.Guests) {
		return ErrGuestIndex
	}
	t.Guests = append(t.Guests[:index], t.Guests[index+1:]...)
	return nil
}

// SetArchiveInStock toggles a library bottle in or out of stock.
func (l *Ledger) SetArchiveInStock(month string, inStock bool) error {
	a, ok := l.Archive[month]
	if !ok || a == nil {
		return fmt.Errorf("%q: %w", month, ErrUnknownArchive)
	}
	a.InStock = inStock
	return nil
}

// SetArchiveNotes replaces the free-text notes of a library bottle.
func (l *Ledger) SetArchiveNotes(month, notes string) error {
	a, ok := l.Archive[month]
	if !ok || a == nil {
		return fmt.Errorf("%q: %w", month, ErrUnknownArchive)
	}
	a.Notes = notes
	return nil
}

// SetOpeningBalance sets the balance carried from the previous year.
func (l *Ledger) SetOpeningBalance(m Money) {
	l.OpeningBalance = m
}

// ResetYear clears samples, dues, tastings and the library. The roster and
// the opening balance are kept.
func (l *Ledger) ResetYear() {
	l.resetCollections()
}

// RollBalanceForward makes the current treasury the new opening balance.
func (l *Ledger) RollBalanceForward() Money {
	l.OpeningBalance = l.Treasury()
	return l.OpeningBalance
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		Members:        append([]string{}, l.Members...),
		Samples:        make(map[string]*MonthlySample, len(l.Samples)),
		Dues:           make(map[string]bool, len(l.Dues)),
		Tastings:       make(map[string]*TastingEvent, len(l.Tastings)),
		OpeningBalance: l.OpeningBalance,
		Archive:        make(map[string]*ArchiveEntry, len(l.Archive)),
		Policy:         Policy{LifetimeFree: append([]string{}, l.Policy.LifetimeFree...)},
	}
	for k, s := range l.Samples {
		if s == nil {
			continue
		}
		cs := *s
		cs.Orders = make(map[string]SampleOrder, len(s.Orders))
		for n, o := range s.Orders {
			cs.Orders[n] = o
		}
		c.Samples[k] = &cs
	}
	for k, v := range l.Dues {
		c.Dues[k] = v
	}
	for k, t := range l.Tastings {
		if t == nil {
			continue
		}
		ct := *t
		ct.Participants = make(map[string]Participant, len(t.Participants))
		for n, p := range t.Participants {
			ct.Participants[n] = p
		}
		ct.Guests = append([]Guest{}, t.Guests...)
		c.Tastings[k] = &ct
	}
	for k, a := range l.Archive {
		if a == nil {
			continue
		}
		ca := *a
		c.Archive[k] = &ca
	}
	return c
}
