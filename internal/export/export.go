// Package export writes ranked candidates to CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/scoring"
)

// Header is the column row written by WriteCSV.
var Header = []string{
	"RANK", "UNITID", "INSTNM", "CITY", "STATE_NAME", "CONTROL_TYPE", "INSTURL",
	"ADM_RATE", "SAT_AVG", "ACTCMMID", "TUITIONFEE_IN", "TUITIONFEE_OUT", "NET_PRICE",
	"C150_4", "MD_EARN_WNE_P10", "GRAD_DEBT_MDN", "TEST_POLICY",
	"Academic_Match", "Selectivity_Match", "Location_Match", "Major_Match",
	"Financial_Match", "TestPolicy_Match", "Preference_Match", "Match_Score", "Match_Category",
}

// FileName returns the download name for an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("my_university_matches_%s.csv", t.Format("20060102_150405"))
}

// WriteCSV writes candidates in rank order. NET_PRICE is the figure for
// bracket; absent values are written as empty cells.
func WriteCSV(w io.Writer, candidates []scoring.Candidate, bracket catalog.IncomeBracket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, c := range candidates {
		if err := cw.Write(record(i+1, c, bracket)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile exports candidates into dir under FileName(now) and returns
// the path written.
func WriteFile(dir string, now time.Time, candidates []scoring.Candidate, bracket catalog.IncomeBracket) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if err := WriteCSV(f, candidates, bracket); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

func record(rank int, c scoring.Candidate, bracket catalog.IncomeBracket) []string {
	inst := c.Institution
	policy := ""
	if inst.TestPolicy != nil {
		policy = inst.TestPolicy.String()
	}
	var price *float64
	if v, ok := inst.SelectedNetPrice(bracket); ok {
		price = &v
	}

	s := c.SubScores
	return []string{
		strconv.Itoa(rank),
		strconv.Itoa(inst.ID),
		inst.Name,
		inst.City,
		inst.StateName,
		inst.Control.String(),
		inst.URL,
		optFloat(inst.AdmissionRate),
		optInt(inst.SATAvg),
		optInt(inst.ACTMedian),
		optFloat(inst.TuitionInState),
		optFloat(inst.TuitionOutState),
		optFloat(price),
		optFloat(inst.GradRate4yr),
		optFloat(inst.MedianEarnings10yr),
		optFloat(inst.MedianDebt),
		policy,
		num(s.Academic),
		num(s.Selectivity),
		num(s.Location),
		num(s.Major),
		num(s.Financial),
		num(s.TestPolicy),
		num(c.Preference),
		strconv.Itoa(c.MatchScore),
		string(c.Category),
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
