package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in       string
		negative bool
		out      int64
		err      error
	}{
		{"1", false, 100, nil},
		{"1.0", false, 100, nil},
		{"1.23", false, 123, nil},
		{"1,23", false, 123, nil},
		{"0.01", false, 1, nil},
		{"0", false, 0, nil},
		{"1.005", false, 101, nil}, // half-up rounding
		{" 2.50 ", false, 250, nil},
		{"12,50 €", false, 1250, nil},
		{"-1", false, 0, ErrNegativeAmount},
		{"-1,5", true, -150, nil},
		{"abc", false, 0, ErrInvalidAmount},
		{"1.2.3", false, 0, ErrInvalidAmount},
		{"", false, 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in, tc.negative)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got.Cents != tc.out {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:     "0,00 €",
		5:     "0,05 €",
		1234:  "12,34 €",
		-1500: "-15,00 €",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
}

func TestRatioZeroDenominator(t *testing.T) {
	if r := Ratio(Euros(10), Money{}); r != 0 {
		t.Fatalf("expected 0 for zero denominator, got %v", r)
	}
	if r := Ratio(Euros(5), Euros(20)); r != 0.25 {
		t.Fatalf("expected 0.25, got %v", r)
	}
}
