package roster

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseDedupesCanonicalNames(t *testing.T) {
	rep, err := Parse(strings.NewReader("Nom;Prénom\nSMITH;John\nsmith;john\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rep.Members, []string{"SMITH John"}) {
		t.Fatalf("members = %v", rep.Members)
	}
	if rep.Rows != 2 || rep.Duplicates != 1 || rep.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	in := "Nom;Prénom;Email\n" +
		"zola;émile;e@example.org\n" +
		"seulement\n" +
		" ; \n" +
		";marie\n" +
		"dupont;\n" +
		"\n"
	rep, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"DUPONT", "Marie", "ZOLA Émile"}
	if !reflect.DeepEqual(rep.Members, want) {
		t.Fatalf("members = %v, want %v", rep.Members, want)
	}
	if rep.Skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %+v", rep)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	rep, err := Parse(strings.NewReader("Nom;Prénom\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Members) != 0 || rep.Rows != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestParseWindows1252(t *testing.T) {
	// "Nom;Prénom\nLEFÈVRE;Hélène\n" encoded as Windows-1252.
	in := "Nom;Pr\xe9nom\nLEF\xc8VRE;H\xe9l\xe8ne\n"
	rep, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep.Members, []string{"LEFÈVRE Hélène"}) {
		t.Fatalf("members = %v", rep.Members)
	}
}

func TestParseStrayQuoteOnlyAffectsItsRow(t *testing.T) {
	in := "Nom;Prénom\n\"SMITH;John\nDUPONT;Marie\nMARTIN;Paul\n\"\n"
	rep, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"DUPONT Marie", "MARTIN Paul", "SMITH John"}
	if !reflect.DeepEqual(rep.Members, want) {
		t.Fatalf("members = %v, want %v", rep.Members, want)
	}
	if rep.Rows != 4 || rep.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestParseCRLF(t *testing.T) {
	rep, err := Parse(strings.NewReader("Nom;Prénom\r\nSMITH;John\r\n\"DUPONT\";\"Marie\"\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep.Members, []string{"DUPONT Marie", "SMITH John"}) {
		t.Fatalf("members = %v", rep.Members)
	}
}
