package domain

// Intent is the classified subject of a query.
type Intent string

const (
	IntentPersonal       Intent = "personal"
	IntentConstitutional Intent = "constitutional"
	IntentCaseLaw        Intent = "case_law"
	IntentGeneralLegal   Intent = "general_legal"
	IntentHybrid         Intent = "hybrid"
)

// Strategy is the retrieval-budget allocation policy chosen per query.
type Strategy string

const (
	StrategyPersonalFocused Strategy = "personal_focused"
	StrategyPublicFocused   Strategy = "public_focused"
	StrategyPublicOnly      Strategy = "public_only"
	StrategyHybridSearch    Strategy = "hybrid_search"
	StrategyBalancedSearch  Strategy = "balanced_search"
)

// IntentScores holds the per-category lexical indicator scores.
type IntentScores struct {
	Personal       int `json:"personal"`
	Constitutional int `json:"constitutional"`
	CaseLaw        int `json:"case_law"`
	GeneralLegal   int `json:"general_legal"`
}

func (s IntentScores) Total() int {
	return s.Personal + s.Constitutional + s.CaseLaw + s.GeneralLegal
}

// Max returns the highest-scoring intent; IntentHybrid when every score is zero.
// Ties resolve in the fixed order personal, constitutional, case_law, general_legal
// so classification stays deterministic.
func (s IntentScores) Max() (Intent, int) {
	best, score := IntentHybrid, 0
	for _, c := range []struct {
		intent Intent
		score  int
	}{
		{IntentPersonal, s.Personal},
		{IntentConstitutional, s.Constitutional},
		{IntentCaseLaw, s.CaseLaw},
		{IntentGeneralLegal, s.GeneralLegal},
	} {
		if c.score > score {
			best, score = c.intent, c.score
		}
	}
	return best, score
}

// Classification is the ephemeral result of intent scoring for one query.
type Classification struct {
	Query            string       `json:"query"`
	Scores           IntentScores `json:"intent_scores"`
	PrimaryIntent    Intent       `json:"primary_intent"`
	Strategy         Strategy     `json:"processing_strategy"`
	Confidence       float64      `json:"confidence"`
	UserHasDocuments bool         `json:"user_has_documents"`
}

// Budgets are the per-source result-count limits for one query.
type Budgets struct {
	PersonalTopK       int `json:"personal_top_k"`
	PublicSemanticTopK int `json:"public_semantic_top_k"`
	PublicGraphLimit   int `json:"public_graph_limit"`
}

// Budget ceilings enforced regardless of strategy multipliers.
const (
	MaxPersonalTopK       = 20
	MaxPublicSemanticTopK = 30
	MaxPublicGraphLimit   = 20
)

// Apply scales the caller-supplied budgets for a strategy. Focused strategies
// double their favoured plane and halve the other, clamped to the fixed maxima;
// hybrid and balanced leave the budgets untouched.
func (s Strategy) Apply(b Budgets) Budgets {
	switch s {
	case StrategyPersonalFocused:
		return Budgets{
			PersonalTopK:       min(b.PersonalTopK*2, MaxPersonalTopK),
			PublicSemanticTopK: max(b.PublicSemanticTopK/2, 3),
			PublicGraphLimit:   max(b.PublicGraphLimit/2, 3),
		}
	case StrategyPublicFocused:
		return Budgets{
			PersonalTopK:       max(b.PersonalTopK/2, 2),
			PublicSemanticTopK: min(b.PublicSemanticTopK*2, MaxPublicSemanticTopK),
			PublicGraphLimit:   min(b.PublicGraphLimit*2, MaxPublicGraphLimit),
		}
	case StrategyPublicOnly:
		return Budgets{
			PersonalTopK:       0,
			PublicSemanticTopK: min(b.PublicSemanticTopK*2, MaxPublicSemanticTopK),
			PublicGraphLimit:   min(b.PublicGraphLimit*2, MaxPublicGraphLimit),
		}
	default:
		return b
	}
}

// Clamp bounds budgets to the API-level maxima and floors negatives at zero.
func (b Budgets) Clamp() Budgets {
	clamp := func(v, limit int) int {
		if v < 0 {
			return 0
		}
		if v > limit {
			return limit
		}
		return v
	}
	return Budgets{
		PersonalTopK:       clamp(b.PersonalTopK, MaxPersonalTopK),
		PublicSemanticTopK: clamp(b.PublicSemanticTopK, MaxPublicSemanticTopK),
		PublicGraphLimit:   clamp(b.PublicGraphLimit, MaxPublicGraphLimit),
	}
}
