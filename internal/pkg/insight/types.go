package insight

// Sentiment values
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// Lead type values
const (
	LeadTypeBuilder    = "Builder"
	LeadTypeContractor = "Contractor"
	LeadTypeDealer     = "Dealer"
	LeadTypeArchitect  = "Architect"
	LeadTypeHomeowner  = "Homeowner"
	LeadTypeGovernment = "Government"
	LeadTypeOther      = "Other"
)

// Classification values
const (
	ClassDirectCustomer = "direct_customer"
	ClassChannelPartner = "channel_partner"
	ClassInfluencer     = "influencer"
	ClassInstitutional  = "institutional"
)

// Requirement type values
const (
	ReqHollowBlocks       = "hollow_blocks"
	ReqSolidBlocks        = "solid_blocks"
	ReqPaverBlocks        = "paver_blocks"
	ReqInterlockingBricks = "interlocking_bricks"
	ReqCompoundWall       = "compound_wall"
	ReqOther              = "other"
)

const (
	// MaxListItems is a limit for every insights list
	MaxListItems = 5
	// MaxScoreImpact bounds the score impact from both sides
	MaxScoreImpact = 0.3
	// ManualReviewAction is recommended when no analysis is available
	ManualReviewAction = "Review call recording manually"
)

var (
	// Sentiments allowed values
	Sentiments = []string{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed}
	// LeadTypes allowed values
	LeadTypes = []string{LeadTypeBuilder, LeadTypeContractor, LeadTypeDealer, LeadTypeArchitect, LeadTypeHomeowner,
		LeadTypeGovernment, LeadTypeOther}
	// Classifications allowed values
	Classifications = []string{ClassDirectCustomer, ClassChannelPartner, ClassInfluencer, ClassInstitutional}
	// RequirementTypes allowed values
	RequirementTypes = []string{ReqHollowBlocks, ReqSolidBlocks, ReqPaverBlocks, ReqInterlockingBricks,
		ReqCompoundWall, ReqOther}
)

// CallInsights is a qualitative analysis of one call
type CallInsights struct {
	Sentiment          string   `json:"sentiment"`
	Summary            string   `json:"summary"`
	Complaints         []string `json:"complaints"`
	NegativeFeedback   []string `json:"negative_feedback"`
	NegotiationSignals []string `json:"negotiation_signals"`
	PriceExpectations  []string `json:"price_expectations"`
	PositiveSignals    []string `json:"positive_signals"`
	RecommendedActions []string `json:"recommended_actions"`
	ScoreImpact        float64  `json:"score_impact"`
}

// LeadDetails are lead attributes guessed from a call,
// empty string or zero value means not known
type LeadDetails struct {
	LeadType          string `json:"lead_type"`
	Classification    string `json:"classification"`
	RequirementType   string `json:"requirement_type,omitempty"`
	Region            string `json:"region,omitempty"`
	Location          string `json:"location,omitempty"`
	NextAction        string `json:"next_action,omitempty"`
	EstimatedQuantity int    `json:"estimated_quantity,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// DefaultInsights returns insights used when the model gives nothing
func DefaultInsights() CallInsights {
	return CallInsights{Sentiment: SentimentNeutral, Complaints: []string{}, NegativeFeedback: []string{},
		NegotiationSignals: []string{}, PriceExpectations: []string{}, PositiveSignals: []string{},
		RecommendedActions: []string{ManualReviewAction}}
}

// DefaultLeadDetails returns details with all enums set to their defaults
func DefaultLeadDetails() LeadDetails {
	return LeadDetails{LeadType: LeadTypeOther, Classification: ClassDirectCustomer}
}
