package phone

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// DefaultCountryCode is prefixed to 10 digit local numbers
const DefaultCountryCode = "91"

var (
	candidateRegexp = regexp.MustCompile(`\+?\d(?:[ \-]?\d)+`)
	groupSplit      = regexp.MustCompile(`[ \-]+`)
	wordRegexp      = regexp.MustCompile(`^\p{L}[\p{L}.']*$`)

	genericWords = map[string]bool{"call": true, "calls": true, "recording": true, "record": true, "rec": true,
		"audio": true, "voice": true, "note": true, "callrecording": true, "customer": true, "client": true,
		"incoming": true, "outgoing": true, "in": true, "out": true, "ptt": true, "aud": true, "whatsapp": true,
		"wa": true, "phone": true, "mobile": true, "new": true, "file": true, "document": true, "track": true,
		"am": true, "pm": true}
)

// Info keeps data extracted from a file name
type Info struct {
	Phone string
	Name  string
}

// Normalizer converts numbers to the canonical digit only form
type Normalizer struct {
	countryCode string
}

// NewNormalizer creates a normalizer, empty code means DefaultCountryCode
func NewNormalizer(countryCode string) *Normalizer {
	cc := onlyDigits(countryCode)
	if cc == "" {
		cc = DefaultCountryCode
	}
	return &Normalizer{countryCode: cc}
}

// Normalize returns digits with a country code or "" if the value is not a phone number
func (n *Normalizer) Normalize(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	d := onlyDigits(s)
	if !plus && strings.HasPrefix(d, "00") {
		d, plus = d[2:], true
	}
	switch {
	case plus:
		if len(d) < 11 || len(d) > 15 {
			return ""
		}
		return d
	case len(d) == 10:
		return n.countryCode + d
	case len(d) == 11 && d[0] == '0':
		return n.countryCode + d[1:]
	case len(d) == len(n.countryCode)+10 && strings.HasPrefix(d, n.countryCode):
		return d
	}
	return ""
}

// Extract finds a phone number and, if possible, a customer name in a file name.
// Supported forms: Name_Phone_Date.ext, Prefix_Phone.ext, Call_+CCPhone.ext, Phone_Name.ext
func (n *Normalizer) Extract(fileName string) *Info {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	for _, loc := range candidateRegexp.FindAllStringIndex(base, -1) {
		ph, from, to := n.fromGroups(base[loc[0]:loc[1]])
		if ph == "" {
			continue
		}
		res := &Info{Phone: ph}
		res.Name = takeName(base[:loc[0]+from])
		if res.Name == "" {
			res.Name = takeName(base[loc[0]+to:])
		}
		return res
	}
	return nil
}

// fromGroups joins digit groups until they form a number. Each group is tried as a start,
// so a date written before the number does not hide it.
// Returns the number and its char range in s
func (n *Normalizer) fromGroups(s string) (string, int, int) {
	groups := groupSplit.Split(s, -1)
	starts := make([]int, len(groups))
	pos := 0
	for i, g := range groups {
		starts[i] = strings.Index(s[pos:], g) + pos
		pos = starts[i] + len(g)
	}
	for from := range groups {
		acc := ""
		for i := from; i < len(groups); i++ {
			acc += groups[i]
			d := onlyDigits(acc)
			if len(d) < 10 {
				continue
			}
			if res := n.Normalize(acc); res != "" {
				return res, starts[from], starts[i] + len(groups[i])
			}
			if len(d) > 15 {
				break
			}
		}
	}
	return "", 0, 0
}

func takeName(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ", "(", " ", ")", " ", ",", " ").Replace(s)
	res := make([]string, 0)
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".'")
		if w == "" || genericWords[strings.ToLower(w)] || !wordRegexp.MatchString(w) {
			continue
		}
		res = append(res, w)
	}
	name := strings.Join(res, " ")
	if len([]rune(name)) < 2 {
		return ""
	}
	return name
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, s)
}
