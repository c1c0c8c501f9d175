package fos

import (
	"strings"
	"testing"
)

func TestIndexOffers(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Offering{
		{InstitutionID: 1, ProgramName: "Computer Science."},
		{InstitutionID: 1, ProgramName: "Biology, General."},
		{InstitutionID: 2, ProgramName: "  Computer   Science. "},
		{InstitutionID: 3, ProgramName: ""},
	})

	if !idx.Offers(1, "Computer Science.") {
		t.Fatalf("expected institution 1 to offer computer science")
	}
	if !idx.Offers(2, "Computer Science.") {
		t.Fatalf("expected whitespace differences to be ignored")
	}
	if idx.Offers(2, "Biology, General.") {
		t.Fatalf("expected institution 2 not to offer biology")
	}
	if idx.Offers(99, "Computer Science.") {
		t.Fatalf("expected unknown institution not to offer anything")
	}

	if idx.Len() != 3 {
		t.Fatalf("expected 3 indexed rows, got %d", idx.Len())
	}

	programs := idx.Programs()
	if len(programs) != 2 || programs[0] != "Biology, General." || programs[1] != "Computer Science." {
		t.Fatalf("unexpected programs: %v", programs)
	}

	ids := idx.Institutions("Computer Science.")
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected institutions: %v", ids)
	}
}

func TestNilIndex(t *testing.T) {
	t.Parallel()

	var idx *Index
	if !idx.Empty() || idx.Offers(1, "x") || idx.Programs() != nil || idx.Len() != 0 {
		t.Fatalf("expected nil index to behave as empty")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	input := "UNITID,INSTNM,CIPCODE,CIPDESC,CREDLEV,CREDDESC\n" +
		"100654,AAMU,0101,Agriculture.,3,Bachelors Degree\n" +
		"100654,AAMU,1107,Computer Science.,3,Bachelors Degree\n" +
		"NULL,Broken,1107,Computer Science.,3,Bachelors Degree\n" +
		"100663,UAB,1107,,3,Bachelors Degree\n"

	offerings, stats, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Rows != 4 || stats.Loaded != 2 || stats.Dropped != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if offerings[1].InstitutionID != 100654 || offerings[1].CIPCode != "1107" || offerings[1].ProgramName != "Computer Science." {
		t.Fatalf("unexpected offering: %+v", offerings[1])
	}

	if !NewIndex(offerings).Offers(100654, "Agriculture.") {
		t.Fatalf("expected loaded offerings to be indexed")
	}
}
