package core

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Club tariffs and stock constants.
var (
	DuesAmount = Euros(35)
	TastingFee = Euros(35)
	MealCost   = Euros(15)
)

const (
	// ArchiveReserveUnits is the number of samples kept back when a bottle goes to the library.
	ArchiveReserveUnits = 2
	// SamplesPerBottle is the nominal 3cl sample capacity of a 70cl bottle.
	SamplesPerBottle = 23
	// MaxSampleQuantity caps a single member's order for one month.
	MaxSampleQuantity = 10
)

// SampleMonths are the months with a bottle of the month. January has none.
var SampleMonths = []string{
	"Février", "Mars", "Avril", "Mai", "Juin", "Juillet",
	"Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// TastingMonths are the quarterly tasting events.
var TastingMonths = []string{"Mars", "Juin", "Septembre", "Décembre"}

// DefaultLifetimeFree lists the surnames of honorary members whose dues are always paid.
var DefaultLifetimeFree = []string{"FONDATEUR", "HONNEUR"}

type (
	// SampleOrder is one member's order for a month's bottle.
	SampleOrder struct {
		Quantity int  `validate:"gte=0,lte=10"`
		Paid     bool
	}

	// MonthlySample holds the bottle of the month and its orders, keyed by member name.
	MonthlySample struct {
		Bottle string
		Cost   Money
		Price  Money
		Orders map[string]SampleOrder `validate:"dive"`
	}

	// Participant is a member's attendance at a tasting event.
	Participant struct {
		Registered bool
		Meal       bool
		Paid       bool
	}

	// Guest is a non-member attending a tasting. Guests are addressed by position.
	Guest struct {
		Name string `validate:"required"`
		Meal bool
		Paid bool
	}

	// TastingEvent holds one quarterly tasting.
	TastingEvent struct {
		BottleCost   Money
		Participants map[string]Participant
		Guests       []Guest `validate:"dive"`
	}

	// ArchiveEntry is a library bottle. ReserveValue is a snapshot taken when the
	// entry was created and is never recomputed from later price edits.
	ArchiveEntry struct {
		Bottle       string `validate:"required"`
		InStock      bool
		ReserveValue Money
		Notes        string
	}

	// Policy carries the club rules that are not part of the persisted document.
	Policy struct {
		LifetimeFree []string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrInvalidQuantity = errors.New("quantity must be between 0 and 10")
	ErrUnknownMonth    = errors.New("unknown sample month")
	ErrUnknownEvent    = errors.New("unknown tasting event")
	ErrUnknownMember   = errors.New("unknown member")
	ErrUnknownArchive  = errors.New("no library entry for month")
	ErrGuestIndex      = errors.New("guest index out of range")
	ErrEmptyGuestName  = errors.New("empty guest name")
	ErrEmptyMemberName = errors.New("empty member name")
)

// Casers are stateful, so each call builds its own.
func upper(s string) string { return cases.Upper(language.French).String(s) }
func title(s string) string { return cases.Title(language.French).String(s) }

// FormatMemberName builds the canonical "SURNAME Firstname" display name.
// It returns "" when both parts are blank.
func FormatMemberName(surname, firstname string) string {
	surname = strings.Join(strings.Fields(surname), " ")
	firstname = strings.Join(strings.Fields(firstname), " ")
	switch {
	case surname == "" && firstname == "":
		return ""
	case firstname == "":
		return upper(surname)
	case surname == "":
		return title(firstname)
	}
	return upper(surname) + " " + title(firstname)
}

// IsLifetimeFree reports whether name belongs to an honorary member.
func (p Policy) IsLifetimeFree(name string) bool {
	for _, s := range p.LifetimeFree {
		s = upper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if name == s || strings.HasPrefix(name, s+" ") {
			return true
		}
	}
	return false
}

// IsSampleMonth reports whether month has a bottle of the month.
func IsSampleMonth(month string) bool {
	return contains(SampleMonths, month)
}

// IsTastingMonth reports whether month hosts a tasting event.
func IsTastingMonth(month string) bool {
	return contains(TastingMonths, month)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func newMonthlySample() *MonthlySample {
	return &MonthlySample{Orders: map[string]SampleOrder{}}
}

func newTastingEvent() *TastingEvent {
	return &TastingEvent{Participants: map[string]Participant{}, Guests: []Guest{}}
}
