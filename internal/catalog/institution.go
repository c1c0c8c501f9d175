// Package catalog holds the in-memory institution table the matcher works on.
//
// Every optional attribute has an explicit absent representation (a nil
// pointer or a missing map entry). Consumers check absence once, here, through
// the accessor methods instead of probing columns.
package catalog

import (
	"fmt"
	"strings"

	"github.com/spigell/unifit/internal/textutil"
)

// ControlType is the ownership/funding category of an institution.
type ControlType int

const (
	ControlUnknown ControlType = iota
	ControlPublic
	ControlPrivateNonprofit
	ControlPrivateForProfit
)

// AllControlTypes lists the known control types in display order.
var AllControlTypes = []ControlType{ControlPublic, ControlPrivateNonprofit, ControlPrivateForProfit, ControlUnknown}

// ControlTypeFromCode maps the CONTROL column codes (1, 2, 3) to a type.
func ControlTypeFromCode(code int) ControlType {
	switch code {
	case 1:
		return ControlPublic
	case 2:
		return ControlPrivateNonprofit
	case 3:
		return ControlPrivateForProfit
	default:
		return ControlUnknown
	}
}

func (c ControlType) String() string {
	switch c {
	case ControlPublic:
		return "Public"
	case ControlPrivateNonprofit:
		return "Private nonprofit"
	case ControlPrivateForProfit:
		return "Private for-profit"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the known control types.
func (c ControlType) Valid() bool {
	return c >= ControlUnknown && c <= ControlPrivateForProfit
}

// MarshalText renders the display label.
func (c ControlType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the display label or a CONTROL code.
func (c *ControlType) UnmarshalText(text []byte) error {
	parsed, err := ParseControlType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseControlType accepts display labels ("Private nonprofit"), identifiers
// ("private_nonprofit") and CONTROL codes ("2").
func ParseControlType(s string) (ControlType, error) {
	switch textutil.Key(s) {
	case "public", "1":
		return ControlPublic, nil
	case "privatenonprofit", "2":
		return ControlPrivateNonprofit, nil
	case "privateforprofit", "3":
		return ControlPrivateForProfit, nil
	case "unknown":
		return ControlUnknown, nil
	default:
		return ControlUnknown, fmt.Errorf("unknown institution type %q", s)
	}
}

// TestPolicy is the admissions test-score policy (ADMCON7).
type TestPolicy int

const (
	TestRequired                      TestPolicy = 1
	TestRecommended                   TestPolicy = 2
	TestNeitherRequiredNorRecommended TestPolicy = 3
	TestPolicyUnknown                 TestPolicy = 4
	TestConsideredNotRequired         TestPolicy = 5
)

// TestPolicyFromCode returns the policy for an ADMCON7 code. Codes outside
// 1..5 are reported as not ok.
func TestPolicyFromCode(code int) (TestPolicy, bool) {
	p := TestPolicy(code)
	switch p {
	case TestRequired, TestRecommended, TestNeitherRequiredNorRecommended, TestPolicyUnknown, TestConsideredNotRequired:
		return p, true
	default:
		return 0, false
	}
}

// Flexible reports whether applicants may apply without scores.
func (p TestPolicy) Flexible() bool {
	switch p {
	case TestRecommended, TestNeitherRequiredNorRecommended, TestConsideredNotRequired:
		return true
	default:
		return false
	}
}

func (p TestPolicy) String() string {
	switch p {
	case TestRequired:
		return "Tests required"
	case TestRecommended:
		return "Tests recommended"
	case TestNeitherRequiredNorRecommended:
		return "Tests neither required nor recommended"
	case TestPolicyUnknown:
		return "Test policy unknown"
	case TestConsideredNotRequired:
		return "Tests considered but not required"
	default:
		return fmt.Sprintf("TestPolicy(%d)", int(p))
	}
}

// MarshalText renders the policy label.
func (p TestPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Institution is one accredited institution row.
type Institution struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	City      string      `json:"city,omitempty"`
	StateCode string      `json:"state_code,omitempty"`
	StateName string      `json:"state_name,omitempty"`
	URL       string      `json:"url,omitempty"`
	Control   ControlType `json:"control_type"`

	AdmissionRate       *float64    `json:"admission_rate,omitempty"`
	SATAvg              *int        `json:"sat_avg,omitempty"`
	ACTMedian           *int        `json:"act_median,omitempty"`
	TuitionInState      *float64    `json:"tuition_in_state,omitempty"`
	TuitionOutState     *float64    `json:"tuition_out_state,omitempty"`
	NetPrice            NetPrices   `json:"net_price_by_bracket,omitempty"`
	GradRate4yr         *float64    `json:"grad_rate_4yr,omitempty"`
	UndergradEnrollment *int        `json:"undergrad_enrollment,omitempty"`
	TestPolicy          *TestPolicy `json:"test_policy,omitempty"`
	MedianEarnings10yr  *float64    `json:"median_earnings_10yr,omitempty"`
	MedianDebt          *float64    `json:"median_debt,omitempty"`

	// Diversity holds the undergraduate share per race/ethnicity label.
	Diversity map[string]float64 `json:"diversity,omitempty"`
}

// Public reports whether net prices are read from the public column.
func (i *Institution) Public() bool {
	return i.Control == ControlPublic
}

// InState reports whether the institution is located in one of the given
// state names. Comparison ignores case and spacing.
func (i *Institution) InState(names map[string]struct{}) bool {
	_, ok := names[textutil.Key(i.StateName)]
	return ok
}

// SelectedNetPrice returns the net price a family in bracket pays, read from
// the public or private column according to the control type.
func (i *Institution) SelectedNetPrice(bracket IncomeBracket) (float64, bool) {
	return i.NetPrice.Get(bracket, SectorFor(i.Control))
}

// NetPriceMissing reports whether both the public and the private net price
// for bracket are absent.
func (i *Institution) NetPriceMissing(bracket IncomeBracket) bool {
	_, pub := i.NetPrice.Get(bracket, SectorPublic)
	_, priv := i.NetPrice.Get(bracket, SectorPrivate)
	return !pub && !priv
}

func (i *Institution) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s (%d)", i.Name, i.ID))
}

// Ptr returns a pointer to v. It keeps literals for optional fields short.
func Ptr[T any](v T) *T {
	return &v
}
