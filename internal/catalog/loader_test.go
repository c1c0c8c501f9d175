package catalog

import (
	"strings"
	"testing"
)

const sampleCSV = `UNITID,INSTNM,CITY,STABBR,CONTROL,ADM_RATE,SAT_AVG,ACTCMMID,TUITIONFEE_IN,UGDS,ADMCON7,NPT43_PUB,NPT43_PRIV,UGDS_WHITE
100654,Alabama A & M University,Normal,AL,1,0.6622,939,18,10024,5196,1,15567,NULL,0.0159
100663,Private Example,Boston,MA,2,PrivacySuppressed,1400.0,,,,5,,31000,
,Missing Id,Nowhere,TX,1,,,,,,,,,
100690,Unknown Control,Austin,ZZ,9,,,,,,7,,,
`

func TestLoad(t *testing.T) {
	t.Parallel()

	items, stats, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Rows != 4 || stats.Loaded != 3 || stats.Dropped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	aamu := items[0]
	if aamu.ID != 100654 || aamu.StateName != "Alabama" || aamu.Control != ControlPublic {
		t.Fatalf("unexpected first institution: %+v", aamu)
	}
	if aamu.AdmissionRate == nil || *aamu.AdmissionRate != 0.6622 {
		t.Fatalf("unexpected admission rate: %v", aamu.AdmissionRate)
	}
	if aamu.SATAvg == nil || *aamu.SATAvg != 939 || aamu.ACTMedian == nil || *aamu.ACTMedian != 18 {
		t.Fatalf("unexpected test scores: %v %v", aamu.SATAvg, aamu.ACTMedian)
	}
	if aamu.TestPolicy == nil || *aamu.TestPolicy != TestRequired {
		t.Fatalf("unexpected test policy: %v", aamu.TestPolicy)
	}
	if v, ok := aamu.SelectedNetPrice(Bracket48To75k); !ok || v != 15567 {
		t.Fatalf("unexpected net price: %v %v", v, ok)
	}
	if _, ok := aamu.NetPrice.Get(Bracket48To75k, SectorPrivate); ok {
		t.Fatalf("expected NULL private net price to be absent")
	}
	if aamu.Diversity["White"] != 0.0159 {
		t.Fatalf("unexpected diversity: %v", aamu.Diversity)
	}

	private := items[1]
	if private.AdmissionRate != nil {
		t.Fatalf("expected suppressed admission rate to be absent")
	}
	if private.SATAvg == nil || *private.SATAvg != 1400 {
		t.Fatalf("expected decimal SAT to be rounded to int, got %v", private.SATAvg)
	}
	if private.ACTMedian != nil || private.TuitionInState != nil || private.UndergradEnrollment != nil {
		t.Fatalf("expected empty cells to be absent")
	}
	if private.Diversity != nil {
		t.Fatalf("expected no diversity data")
	}

	unknown := items[2]
	if unknown.Control != ControlUnknown {
		t.Fatalf("expected unknown control for code 9, got %v", unknown.Control)
	}
	if unknown.TestPolicy != nil {
		t.Fatalf("expected out of range ADMCON7 to be absent")
	}
	if unknown.StateName != "ZZ" {
		t.Fatalf("expected unknown state code to be kept as name, got %q", unknown.StateName)
	}
}
