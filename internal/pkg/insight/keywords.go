package insight

import (
	"regexp"
	"strconv"
	"strings"
)

type rule struct {
	re    *regexp.Regexp
	value string
}

func words(value string, w ...string) rule {
	return rule{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(w, "|") + `)\b`), value: value}
}

var (
	leadTypeRules = []rule{
		words(LeadTypeGovernment, "government", "municipal", "municipality", "corporation", "panchayat", "tender", "pwd"),
		words(LeadTypeDealer, "dealer", "dealers", "distributor", "hardware shop", "shop", "retailer", "stockist"),
		words(LeadTypeArchitect, "architect", "architects", "designer", "engineer"),
		words(LeadTypeBuilder, "builder", "builders", "developer", "developers", "apartment", "apartments", "flats"),
		words(LeadTypeContractor, "contractor", "contractors", "mason", "mestri", "maistry", "labour contract"),
		words(LeadTypeHomeowner, "my house", "my home", "own house", "new house", "house construction", "homeowner"),
	}
	requirementRules = []rule{
		words(ReqCompoundWall, "compound wall", "boundary wall", "fencing wall"),
		words(ReqInterlockingBricks, "interlock", "interlocking", "interlock bricks"),
		words(ReqPaverBlocks, "paver", "pavers", "paver block", "paver blocks"),
		words(ReqHollowBlocks, "hollow", "hollow block", "hollow blocks"),
		words(ReqSolidBlocks, "solid", "solid block", "solid blocks"),
	}
	nextActionRules = []rule{
		words("Send quotation", "quote", "quotation", "price list", "rate list"),
		words("Schedule site visit", "site visit", "visit the site", "come to site", "come and see"),
		words("Send samples", "sample", "samples"),
		words("Call back", "call back", "callback", "call me later", "call tomorrow"),
	}
	regions = []string{"Chennai", "Avadi", "Ambattur", "Tambaram", "Porur", "Poonamallee", "Chengalpattu",
		"Kanchipuram", "Tiruvallur", "Sriperumbudur", "Guduvanchery", "Oragadam", "Pallavaram", "Velachery",
		"Madhavaram", "Redhills", "Thiruvottiyur", "Sholinganallur", "Vandalur", "Maraimalai Nagar"}
	regionRules     = makeRegionRules()
	quantityRegexp  = regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{2,3})+|\d+)\s*(k\b|thousand\b)?\s*(?:nos|numbers|blocks|bricks|pieces|pcs|units)\b`)
	classByLeadType = map[string]string{LeadTypeDealer: ClassChannelPartner, LeadTypeArchitect: ClassInfluencer,
		LeadTypeGovernment: ClassInstitutional}
)

func makeRegionRules() []rule {
	res := make([]rule, 0, len(regions))
	for _, r := range regions {
		res = append(res, words(r, regexp.QuoteMeta(strings.ToLower(r))))
	}
	return res
}

// InferFromText guesses lead details from a transcript using keywords,
// it does not call any model
func InferFromText(text string) LeadDetails {
	res := DefaultLeadDetails()
	if strings.TrimSpace(text) == "" {
		return res
	}
	res.LeadType = first(leadTypeRules, text, LeadTypeOther)
	if c, ok := classByLeadType[res.LeadType]; ok {
		res.Classification = c
	}
	res.RequirementType = first(requirementRules, text, "")
	res.Region = first(regionRules, text, "")
	res.NextAction = first(nextActionRules, text, "")
	res.EstimatedQuantity = findQuantity(text)
	return res
}

func first(rules []rule, text, def string) string {
	for _, r := range rules {
		if r.re.MatchString(text) {
			return r.value
		}
	}
	return def
}

func findQuantity(text string) int {
	m := quantityRegexp.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	res, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	if m[2] != "" {
		res *= 1000
	}
	return res
}
