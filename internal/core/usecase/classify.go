package usecase

import (
	"regexp"
	"strings"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

// Classifier scores queries against fixed lexical indicator sets to pick a
// processing strategy. Classification is pure and deterministic: the same
// query and document flag always yield the same result.
type Classifier struct {
	personalIndicators       []string
	constitutionalIndicators []string
	caseLawIndicators        []string
	generalLegalIndicators   []string
	possessivePatterns       []*regexp.Regexp
}

func NewClassifier() *Classifier {
	return &Classifier{
		personalIndicators: []string{
			"my document", "my case", "my file", "my contract", "my agreement",
			"uploaded document", "personal document", "in my files",
			"according to my", "based on my", "my legal matter",
		},
		constitutionalIndicators: []string{
			"article", "constitution", "fundamental right", "directive principle",
			"amendment", "constitutional provision", "part iii", "part iv",
			"supreme court", "high court", "parliament", "president", "governor",
		},
		caseLawIndicators: []string{
			"case law", "precedent", "judgment", "ruling", "court decision",
			"vs", "v.", "appeal", "petition", "writ", "suo moto",
		},
		generalLegalIndicators: []string{
			"legal advice", "what is", "explain", "define", "meaning of",
			"how to", "procedure", "process", "steps", "requirements",
		},
		possessivePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\bmy\b`),
			regexp.MustCompile(`\bour\b`),
			regexp.MustCompile(`\bthis case\b`),
			regexp.MustCompile(`\bthis matter\b`),
		},
	}
}

// Classify scores the query and selects intent and strategy. Personal
// indicators weigh double; possessive phrasing counts toward the personal
// score only when the user actually has documents.
func (c *Classifier) Classify(query string, userHasDocuments bool) domain.Classification {
	queryLower := strings.ToLower(query)

	var scores domain.IntentScores
	for _, indicator := range c.personalIndicators {
		if strings.Contains(queryLower, indicator) {
			scores.Personal += 2
		}
	}
	if userHasDocuments {
		for _, pattern := range c.possessivePatterns {
			if pattern.MatchString(queryLower) {
				scores.Personal++
			}
		}
	}
	for _, indicator := range c.constitutionalIndicators {
		if strings.Contains(queryLower, indicator) {
			scores.Constitutional++
		}
	}
	for _, indicator := range c.caseLawIndicators {
		if strings.Contains(queryLower, indicator) {
			scores.CaseLaw++
		}
	}
	for _, indicator := range c.generalLegalIndicators {
		if strings.Contains(queryLower, indicator) {
			scores.GeneralLegal++
		}
	}

	primary, maxScore := scores.Max()

	return domain.Classification{
		Query:            query,
		Scores:           scores,
		PrimaryIntent:    primary,
		Strategy:         selectStrategy(primary, scores, userHasDocuments),
		Confidence:       float64(maxScore) / float64(scores.Total()+1),
		UserHasDocuments: userHasDocuments,
	}
}

func selectStrategy(primary domain.Intent, scores domain.IntentScores, userHasDocuments bool) domain.Strategy {
	if !userHasDocuments {
		if primary == domain.IntentConstitutional || primary == domain.IntentCaseLaw {
			return domain.StrategyPublicFocused
		}
		return domain.StrategyPublicOnly
	}

	switch {
	case primary == domain.IntentPersonal && scores.Personal >= 2:
		return domain.StrategyPersonalFocused
	case primary == domain.IntentConstitutional && scores.Constitutional >= 2:
		return domain.StrategyPublicFocused
	case primary == domain.IntentCaseLaw && scores.CaseLaw >= 2:
		return domain.StrategyPublicFocused
	case scores.Total() >= 3:
		return domain.StrategyHybridSearch
	default:
		return domain.StrategyBalancedSearch
	}
}
