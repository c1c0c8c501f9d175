package catalog

import (
	"fmt"
	"strings"

	"github.com/spigell/unifit/internal/textutil"
)

// IncomeBracket is one of the five family income brackets net price is
// published for.
type IncomeBracket int

const (
	Bracket0To30k IncomeBracket = iota + 1
	Bracket30To48k
	Bracket48To75k
	Bracket75To110k
	Bracket110kPlus
)

// DefaultIncomeBracket is used when a profile does not name a bracket.
const DefaultIncomeBracket = Bracket48To75k

// AllIncomeBrackets lists brackets from lowest to highest income.
var AllIncomeBrackets = []IncomeBracket{Bracket0To30k, Bracket30To48k, Bracket48To75k, Bracket75To110k, Bracket110kPlus}

var bracketLabels = map[IncomeBracket]string{
	Bracket0To30k:   "$0-$30,000",
	Bracket30To48k:  "$30,001-$48,000",
	Bracket48To75k:  "$48,001-$75,000",
	Bracket75To110k: "$75,001-$110,000",
	Bracket110kPlus: "$110,001+",
}

// Valid reports whether b is one of the five brackets.
func (b IncomeBracket) Valid() bool {
	return b >= Bracket0To30k && b <= Bracket110kPlus
}

// Prefix is the column prefix of the bracket, for example NPT43.
func (b IncomeBracket) Prefix() string {
	return fmt.Sprintf("NPT4%d", int(b))
}

func (b IncomeBracket) String() string {
	if label, ok := bracketLabels[b]; ok {
		return label
	}
	return fmt.Sprintf("IncomeBracket(%d)", int(b))
}

// MarshalText renders the column prefix.
func (b IncomeBracket) MarshalText() ([]byte, error) {
	return []byte(b.Prefix()), nil
}

// ParseIncomeBracket accepts an ordinal ("3"), a column prefix ("NPT43") or
// a display label ("$48,001-$75,000").
func ParseIncomeBracket(s string) (IncomeBracket, error) {
	key := textutil.Key(s)
	for _, b := range AllIncomeBrackets {
		switch key {
		case fmt.Sprint(int(b)), strings.ToLower(b.Prefix()), textutil.Key(b.String()):
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown income bracket %q", s)
}

// Sector selects the public or private net price column.
type Sector int

const (
	SectorPublic Sector = iota
	SectorPrivate
)

// SectorFor returns the net price column used for a control type. Anything
// that is not public reads the private column.
func SectorFor(c ControlType) Sector {
	if c == ControlPublic {
		return SectorPublic
	}
	return SectorPrivate
}

func (s Sector) suffix() string {
	if s == SectorPublic {
		return "PUB"
	}
	return "PRIV"
}

// Column returns the dataset column name, for example NPT43_PUB.
func Column(b IncomeBracket, s Sector) string {
	return b.Prefix() + "_" + s.suffix()
}

// NetPrices maps dataset column names (NPT41_PUB .. NPT45_PRIV) to the
// average annual net price. The table is sparse.
type NetPrices map[string]float64

// Get returns the net price for the bracket and sector.
func (n NetPrices) Get(b IncomeBracket, s Sector) (float64, bool) {
	v, ok := n[Column(b, s)]
	return v, ok
}

// Set stores a net price.
func (n NetPrices) Set(b IncomeBracket, s Sector, v float64) {
	n[Column(b, s)] = v
}
