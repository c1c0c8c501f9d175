// Package fos indexes which academic programs each institution offers.
package fos

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spigell/unifit/internal/dataset"
	"github.com/spigell/unifit/internal/textutil"
)

// Offering is one (institution, program) row of the field-of-study data.
type Offering struct {
	InstitutionID   int    `json:"institution_id"`
	CIPCode         string `json:"cip_code,omitempty"`
	ProgramName     string `json:"program_name"`
	CredentialLevel string `json:"credential_level,omitempty"`
}

// Index answers "does institution X offer program Y". It is immutable once
// built.
type Index struct {
	offers   map[int]map[string]struct{}
	programs []string
	rows     int
}

// NewIndex builds an index from offerings. Program names are compared after
// Unicode normalization and whitespace cleanup.
func NewIndex(offerings []Offering) *Index {
	idx := &Index{offers: make(map[int]map[string]struct{})}
	names := make(map[string]struct{})

	for _, o := range offerings {
		name := textutil.Normalize(o.ProgramName)
		if name == "" {
			continue
		}
		set, ok := idx.offers[o.InstitutionID]
		if !ok {
			set = make(map[string]struct{})
			idx.offers[o.InstitutionID] = set
		}
		set[name] = struct{}{}
		names[name] = struct{}{}
		idx.rows++
	}

	idx.programs = make([]string, 0, len(names))
	for name := range names {
		idx.programs = append(idx.programs, name)
	}
	sort.Strings(idx.programs)

	return idx
}

// Empty reports whether the index holds no offerings at all.
func (x *Index) Empty() bool {
	return x == nil || x.rows == 0
}

// Len returns the number of offering rows indexed.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.rows
}

// Offers reports whether institution id offers program.
func (x *Index) Offers(id int, program string) bool {
	if x == nil {
		return false
	}
	set, ok := x.offers[id]
	if !ok {
		return false
	}
	_, ok = set[textutil.Normalize(program)]
	return ok
}

// Programs returns the distinct program names, sorted.
func (x *Index) Programs() []string {
	if x == nil {
		return nil
	}
	out := make([]string, len(x.programs))
	copy(out, x.programs)
	return out
}

// Institutions returns the ids of institutions offering program, ascending.
func (x *Index) Institutions(program string) []int {
	if x == nil {
		return nil
	}
	name := textutil.Normalize(program)
	var ids []int
	for id, set := range x.offers {
		if _, ok := set[name]; ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// LoadStats summarizes a field-of-study load.
type LoadStats struct {
	Rows    int
	Loaded  int
	Dropped int
}

type record struct {
	UnitID          *float64 `mapstructure:"UNITID"`
	CIPCode         string   `mapstructure:"CIPCODE"`
	ProgramName     string   `mapstructure:"CIPDESC"`
	CredentialLevel string   `mapstructure:"CREDLEV"`
}

// Load reads offerings from a FieldOfStudyData CSV. Rows without UNITID or
// CIPDESC are dropped and counted.
func Load(r io.Reader) ([]Offering, LoadStats, error) {
	var (
		offerings []Offering
		stats     LoadStats
	)

	err := dataset.Read(r, func(line int, row dataset.Row) error {
		stats.Rows++

		var rec record
		if err := dataset.Decode(row, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		if rec.UnitID == nil || strings.TrimSpace(rec.ProgramName) == "" {
			stats.Dropped++
			return nil
		}

		offerings = append(offerings, Offering{
			InstitutionID:   int(*rec.UnitID),
			CIPCode:         strings.TrimSpace(rec.CIPCode),
			ProgramName:     textutil.Normalize(rec.ProgramName),
			CredentialLevel: strings.TrimSpace(rec.CredentialLevel),
		})
		stats.Loaded++
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	return offerings, stats, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) ([]Offering, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open field of study file: %w", err)
	}
	defer f.Close()

	offerings, stats, err := Load(f)
	if err != nil {
		return nil, stats, fmt.Errorf("load field of study from %s: %w", path, err)
	}
	return offerings, stats, nil
}
