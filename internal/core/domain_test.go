package core

import "testing"

func TestFormatMemberName(t *testing.T) {
	cases := []struct {
		surname, firstname, want string
	}{
		{"smith", "john", "SMITH John"},
		{"SMITH", "John", "SMITH John"},
		{"  de la  tour ", "jean-pierre", "DE LA TOUR Jean-Pierre"},
		{"durand", "", "DURAND"},
		{"", "marie", "Marie"},
		{"  ", " ", ""},
	}
	for _, tc := range cases {
		if got := FormatMemberName(tc.surname, tc.firstname); got != tc.want {
			t.Fatalf("FormatMemberName(%q, %q) = %q, want %q", tc.surname, tc.firstname, got, tc.want)
		}
	}
}

func TestPolicyIsLifetimeFree(t *testing.T) {
	p := Policy{LifetimeFree: []string{"fondateur", " "}}
	cases := map[string]bool{
		"FONDATEUR Paul":   true,
		"FONDATEUR":        true,
		"FONDATEURS Paul":  false,
		"SMITH John":       false,
		"DUPONT Fondateur": false,
	}
	for name, want := range cases {
		if got := p.IsLifetimeFree(name); got != want {
			t.Fatalf("IsLifetimeFree(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestMonthLists(t *testing.T) {
	if len(SampleMonths) != 11 {
		t.Fatalf("expected 11 sample months, got %d", len(SampleMonths))
	}
	if IsSampleMonth("Janvier") {
		t.Fatalf("January must not have a bottle of the month")
	}
	for _, m := range TastingMonths {
		if !IsSampleMonth(m) {
			t.Fatalf("tasting month %s should also be a sample month", m)
		}
	}
	if len(TastingMonths) != 4 || IsTastingMonth("Avril") {
		t.Fatalf("unexpected tasting months: %v", TastingMonths)
	}
}
