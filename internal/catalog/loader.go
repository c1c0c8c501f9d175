package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spigell/unifit/internal/dataset"
)

// LoadStats summarizes a catalog load.
type LoadStats struct {
	Rows    int
	Loaded  int
	Dropped int
}

// diversityColumns maps UGDS_* share columns to display labels.
var diversityColumns = map[string]string{
	"UGDS_WHITE": "White",
	"UGDS_BLACK": "Black",
	"UGDS_HISP":  "Hispanic",
	"UGDS_ASIAN": "Asian",
	"UGDS_AIAN":  "American Indian/Alaska Native",
	"UGDS_NHPI":  "Native Hawaiian/Pacific Islander",
	"UGDS_2MOR":  "Two or More Races",
	"UGDS_NRA":   "Non-Resident Alien",
	"UGDS_UNKN":  "Unknown",
}

type record struct {
	UnitID    *float64 `mapstructure:"UNITID"`
	Name      string   `mapstructure:"INSTNM"`
	City      string   `mapstructure:"CITY"`
	StateCode string   `mapstructure:"STABBR"`
	Control   *float64 `mapstructure:"CONTROL"`
	URL       string   `mapstructure:"INSTURL"`

	AdmissionRate *float64 `mapstructure:"ADM_RATE"`
	SATAvg        *float64 `mapstructure:"SAT_AVG"`
	ACTMid        *float64 `mapstructure:"ACTCMMID"`
	TuitionIn     *float64 `mapstructure:"TUITIONFEE_IN"`
	TuitionOut    *float64 `mapstructure:"TUITIONFEE_OUT"`
	Enrollment    *float64 `mapstructure:"UGDS"`
	GradRate      *float64 `mapstructure:"C150_4"`
	Earnings      *float64 `mapstructure:"MD_EARN_WNE_P10"`
	Debt          *float64 `mapstructure:"GRAD_DEBT_MDN"`
	AdmCon        *float64 `mapstructure:"ADMCON7"`
}

// Load reads institutions from a Most-Recent-Cohorts style CSV. Rows without
// UNITID or INSTNM are dropped and counted.
func Load(r io.Reader) ([]*Institution, LoadStats, error) {
	var (
		items []*Institution
		stats LoadStats
	)

	err := dataset.Read(r, func(line int, row dataset.Row) error {
		stats.Rows++

		var rec record
		if err := dataset.Decode(row, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		name := strings.TrimSpace(rec.Name)
		if rec.UnitID == nil || name == "" {
			stats.Dropped++
			return nil
		}

		items = append(items, rec.institution(row))
		stats.Loaded++
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	return items, stats, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) ([]*Institution, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open institutions file: %w", err)
	}
	defer f.Close()

	items, stats, err := Load(f)
	if err != nil {
		return nil, stats, fmt.Errorf("load institutions from %s: %w", path, err)
	}
	return items, stats, nil
}

func (rec record) institution(row dataset.Row) *Institution {
	inst := &Institution{
		ID:        int(*rec.UnitID),
		Name:      strings.TrimSpace(rec.Name),
		City:      strings.TrimSpace(rec.City),
		StateCode: strings.ToUpper(strings.TrimSpace(rec.StateCode)),
		URL:       strings.TrimSpace(rec.URL),
		Control:   ControlUnknown,

		AdmissionRate:       rec.AdmissionRate,
		SATAvg:              roundInt(rec.SATAvg),
		ACTMedian:           roundInt(rec.ACTMid),
		TuitionInState:      rec.TuitionIn,
		TuitionOutState:     rec.TuitionOut,
		GradRate4yr:         rec.GradRate,
		UndergradEnrollment: roundInt(rec.Enrollment),
		MedianEarnings10yr:  rec.Earnings,
		MedianDebt:          rec.Debt,
		NetPrice:            NetPrices{},
	}

	if inst.StateCode != "" {
		inst.StateName = StateName(inst.StateCode)
	}

	if rec.Control != nil {
		inst.Control = ControlTypeFromCode(int(*rec.Control))
	}

	if rec.AdmCon != nil {
		if p, ok := TestPolicyFromCode(int(*rec.AdmCon)); ok {
			inst.TestPolicy = Ptr(p)
		}
	}

	for _, b := range AllIncomeBrackets {
		for _, s := range []Sector{SectorPublic, SectorPrivate} {
			if v, ok := dataset.Float(row, Column(b, s)); ok {
				inst.NetPrice.Set(b, s, v)
			}
		}
	}

	for column, label := range diversityColumns {
		if v, ok := dataset.Float(row, column); ok {
			if inst.Diversity == nil {
				inst.Diversity = make(map[string]float64, len(diversityColumns))
			}
			inst.Diversity[label] = v
		}
	}

	return inst
}

func roundInt(v *float64) *int {
	if v == nil {
		return nil
	}
	return Ptr(int(math.Round(*v)))
}
