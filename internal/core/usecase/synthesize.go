package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

var (
	personalDocPattern = regexp.MustCompile(`\[Personal Doc: ([^\]]+)\]`)
	articleCitePattern = regexp.MustCompile(`\[Article (\d+)\]`)
	provisionPattern   = regexp.MustCompile(`\[Constitutional Provision[^\]]*\]`)
	caseCitePattern    = regexp.MustCompile(`\[([^,\]]+, [^\]]+)\]`)
	legalAuthorityCite = regexp.MustCompile(`\[Legal Authority[^\]]*\]`)
	excessBlankLines   = regexp.MustCompile(`\n\s*\n`)
	collapsedBlankRuns = regexp.MustCompile(`\n{3,}`)
)

const legalDisclaimer = "\n\n**Legal Disclaimer**: This response is generated by an AI system and is for informational purposes only. It does not constitute legal advice and should not be relied upon as a substitute for consultation with a qualified legal professional. For specific legal matters, please consult with an attorney licensed to practice in your jurisdiction."

// SynthesizerLimits bounds generation work and response caching.
type SynthesizerLimits struct {
	MaxTokens   int
	Temperature float64
	ResponseTTL time.Duration
}

// Synthesizer turns a fused context into a cited natural-language answer.
// Generation failures never fail the query: the synthesizer always returns a
// response, degrading to a deterministic source summary when the model is
// unavailable.
type Synthesizer struct {
	completer ports.ChatCompleter
	cache     ports.ResultCache
	limits    SynthesizerLimits
}

func NewSynthesizer(completer ports.ChatCompleter, cache ports.ResultCache, limits SynthesizerLimits) *Synthesizer {
	if limits.MaxTokens <= 0 {
		limits.MaxTokens = 2048
	}
	if limits.Temperature <= 0 {
		limits.Temperature = 0.1
	}
	if limits.ResponseTTL <= 0 {
		limits.ResponseTTL = 30 * time.Minute
	}
	return &Synthesizer{completer: completer, cache: cache, limits: limits}
}

// Synthesize generates the final answer from the fused context. The returned
// response is never nil and never carries an error; the error return reports
// only that the fallback path was taken.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, fused domain.FusedContext, userID string) (*domain.SynthesisResponse, error) {
	if s.completer == nil {
		return s.fallback(query, fused), nil
	}

	key := s.cacheKey(query, fused, userID)
	if cached, ok := s.cacheGet(key); ok {
		if resp, ok := cached.(*domain.SynthesisResponse); ok {
			return resp, nil
		}
	}

	prompt := buildSynthesisPrompt(query, fused)
	raw, err := s.completer.Complete(ctx, []domain.ChatTurn{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: prompt},
	}, s.limits.MaxTokens, s.limits.Temperature)
	if err != nil || strings.TrimSpace(raw) == "" {
		return s.fallback(query, fused), fmt.Errorf("llm synthesis failed: %w", err)
	}

	text := cleanResponseText(raw)
	if !strings.Contains(strings.ToLower(text), "disclaimer") {
		text += legalDisclaimer
	}

	resp := &domain.SynthesisResponse{
		Query:              query,
		Response:           text,
		Citations:          extractCitations(text, fused.Items),
		HasPersonalContext: fused.HasPersonalContext,
		HasPublicContext:   fused.HasPublicContext,
		ContextSummary:     summarize(fused),
		GeneratedAt:        time.Now().UTC(),
		ModelUsed:          s.completer.Model(),
	}

	s.cacheSet(key, resp)
	return resp, nil
}

func (s *Synthesizer) cacheKey(query string, fused domain.FusedContext, userID string) domain.CacheKey {
	var ids strings.Builder
	for _, item := range fused.Items {
		ids.WriteString(item.OriginID)
		ids.WriteByte(';')
	}
	return domain.NewCacheKey("llm_response", query, userID, domain.HashText(ids.String()))
}

// fallback builds a deterministic answer from retrieval bookkeeping alone.
func (s *Synthesizer) fallback(query string, fused domain.FusedContext) *domain.SynthesisResponse {
	var text string
	if len(fused.Items) == 0 {
		text = fmt.Sprintf(`I apologize, but I couldn't find relevant information to answer your query: %q.

This could be because:
1. No relevant documents were found in your personal library
2. No matching constitutional provisions or legal precedents were identified
3. The query might need to be more specific or use different legal terminology

Please try rephrasing your question or providing more context about the specific legal issue you're researching.`, query)
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "Based on the available information, I found %d relevant sources for your query: %q.\n\n", len(fused.Items), query)
		if fused.HasPersonalContext {
			fmt.Fprintf(&b, "- %d matches from your personal documents\n", fused.PersonalCount)
		}
		if fused.HasPublicContext {
			fmt.Fprintf(&b, "- %d matches from public legal knowledge\n", fused.PublicSemanticCount+fused.PublicGraphCount)
		}
		b.WriteString("\nHowever, I encountered an issue generating a comprehensive analysis. Please review the source documents directly or try rephrasing your query.")
		text = b.String()
	}
	text += legalDisclaimer

	return &domain.SynthesisResponse{
		Query:              query,
		Response:           text,
		Citations:          []domain.Citation{},
		HasPersonalContext: fused.HasPersonalContext,
		HasPublicContext:   fused.HasPublicContext,
		ContextSummary:     summarize(fused),
		GeneratedAt:        time.Now().UTC(),
		ModelUsed:          domain.ModelFallback,
	}
}

func summarize(fused domain.FusedContext) domain.ContextSummary {
	return domain.ContextSummary{
		TotalContexts:       len(fused.Items),
		PersonalCount:       fused.PersonalCount,
		PublicSemanticCount: fused.PublicSemanticCount,
		PublicGraphCount:    fused.PublicGraphCount,
	}
}

// extractCitations scans the generated text for citation markers and resolves
// each back to a retrieved context when possible. Resolution is best-effort
// substring matching; unresolved citations keep a nil source.
func extractCitations(text string, contexts []domain.ContextItem) []domain.Citation {
	var citations []domain.Citation
	add := func(citationText string, citationType domain.CitationType) {
		citations = append(citations, domain.Citation{
			Text:   citationText,
			Type:   citationType,
			Source: resolveCitation(citationText, contexts),
		})
	}

	for _, m := range personalDocPattern.FindAllStringSubmatch(text, -1) {
		add(m[1], domain.CitationPersonalDocument)
	}
	for _, m := range articleCitePattern.FindAllStringSubmatch(text, -1) {
		add("Article "+m[1], domain.CitationConstitutionalArticle)
	}
	for _, m := range provisionPattern.FindAllString(text, -1) {
		add(strings.Trim(m, "[]"), domain.CitationConstitutionalProvision)
	}
	for _, m := range caseCitePattern.FindAllStringSubmatch(text, -1) {
		add(m[1], domain.CitationCaseLaw)
	}
	for _, m := range legalAuthorityCite.FindAllString(text, -1) {
		add(strings.Trim(m, "[]"), domain.CitationLegalAuthority)
	}

	// First occurrence wins on duplicate citation texts.
	seen := make(map[string]struct{}, len(citations))
	unique := citations[:0]
	for _, c := range citations {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		unique = append(unique, c)
	}
	if unique == nil {
		unique = []domain.Citation{}
	}
	return unique
}

func resolveCitation(citationText string, contexts []domain.ContextItem) *domain.ResolvedSource {
	lower := strings.ToLower(citationText)
	for _, c := range contexts {
		var matched bool
		switch c.SourceType {
		case domain.SourcePersonal:
			title := strings.ToLower(c.Title)
			id := strings.ToLower(c.OriginID)
			matched = (title != "" && (strings.Contains(title, lower) || strings.Contains(lower, title))) ||
				(id != "" && (strings.Contains(id, lower) || strings.Contains(lower, id)))
		case domain.SourcePublicGraph, domain.SourcePublicGraphRelated:
			name := strings.ToLower(c.Title)
			matched = name != "" && (strings.Contains(name, lower) || strings.Contains(lower, name))
		case domain.SourcePublicSemantic:
			matched = strings.Contains(strings.ToLower(c.Text), lower)
		}
		if matched {
			return &domain.ResolvedSource{
				SourceType: c.SourceType,
				OriginID:   c.OriginID,
				Title:      c.Title,
				Score:      c.CombinedScore,
			}
		}
	}
	return nil
}

func cleanResponseText(text string) string {
	cleaned := excessBlankLines.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	return collapsedBlankRuns.ReplaceAllString(cleaned, "\n\n")
}

func (s *Synthesizer) cacheGet(key domain.CacheKey) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Synthesizer) cacheSet(key domain.CacheKey, resp *domain.SynthesisResponse) {
	if s.cache == nil {
		return
	}
	s.cache.Set(key, resp, s.limits.ResponseTTL)
}
