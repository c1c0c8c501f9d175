package catalog

import (
	"sort"
	"strings"

	"github.com/spigell/unifit/internal/textutil"
)

var stateNames = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "District of Columbia",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
	"AS": "American Samoa",
	"GU": "Guam",
	"MP": "Northern Mariana Islands",
	"PR": "Puerto Rico",
	"FM": "Federated States of Micronesia",
	"PW": "Palau",
	"VI": "Virgin Islands",
	"MH": "Marshall Islands",
}

var stateByKey = func() map[string]string {
	m := make(map[string]string, len(stateNames)*2)
	for code, name := range stateNames {
		m[textutil.Key(code)] = name
		m[textutil.Key(name)] = name
	}
	return m
}()

// StateName returns the full name for a postal code. Unknown codes are
// returned as given.
func StateName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := stateNames[code]; ok {
		return name
	}
	return code
}

// CanonicalState resolves a postal code or a state name, in any case, to the
// full state name.
func CanonicalState(s string) (string, bool) {
	name, ok := stateByKey[textutil.Key(s)]
	return name, ok
}

// StateNames returns all known state and territory names sorted
// alphabetically.
func StateNames() []string {
	names := make([]string, 0, len(stateNames))
	for _, name := range stateNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
