package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

type completerFake struct {
	response string
	err      error
	prompt   string
}

func (f *completerFake) Complete(_ context.Context, turns []domain.ChatTurn, _ int, _ float64) (string, error) {
	for _, turn := range turns {
		if turn.Role == "user" {
			f.prompt = turn.Content
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *completerFake) Model() string { return "llama3-8b-8192" }

func fusedFrom(items ...domain.ContextItem) domain.FusedContext {
	fused := domain.FusedContext{Query: "q", Items: items}
	fused.Recount()
	return fused
}

func TestSynthesizeAppendsDisclaimer(t *testing.T) {
	completer := &completerFake{response: "The contract is governed by [Article 21]."}
	s := NewSynthesizer(completer, nil, SynthesizerLimits{})

	resp, err := s.Synthesize(context.Background(), "q", fusedFrom(domain.ContextItem{
		Text: "text", SourceType: domain.SourcePublicSemantic, OriginID: "pub-1",
	}), "")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(strings.ToLower(resp.Response), "disclaimer") {
		t.Fatalf("disclaimer missing from response")
	}
	if resp.ModelUsed != "llama3-8b-8192" {
		t.Fatalf("model = %s", resp.ModelUsed)
	}
}

func TestSynthesizeKeepsExistingDisclaimer(t *testing.T) {
	completer := &completerFake{response: "Answer.\n\nDisclaimer: not legal advice."}
	s := NewSynthesizer(completer, nil, SynthesizerLimits{})

	resp, err := s.Synthesize(context.Background(), "q", fusedFrom(), "")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if strings.Count(strings.ToLower(resp.Response), "disclaimer") != 1 {
		t.Fatalf("disclaimer duplicated: %s", resp.Response)
	}
}

func TestSynthesizeFallbackOnError(t *testing.T) {
	completer := &completerFake{err: errors.New("groq unavailable")}
	s := NewSynthesizer(completer, nil, SynthesizerLimits{})

	fused := fusedFrom(
		domain.ContextItem{Text: "a", SourceType: domain.SourcePersonal, OriginID: "doc-1"},
		domain.ContextItem{Text: "b", SourceType: domain.SourcePublicSemantic, OriginID: "pub-1"},
	)
	resp, _ := s.Synthesize(context.Background(), "my query", fused, "")
	if resp == nil {
		t.Fatalf("fallback must always produce a response")
	}
	if resp.ModelUsed != domain.ModelFallback {
		t.Fatalf("model = %s, want fallback", resp.ModelUsed)
	}
	if !strings.Contains(resp.Response, "2 relevant sources") {
		t.Fatalf("fallback summary missing: %s", resp.Response)
	}
	if !resp.HasPersonalContext || !resp.HasPublicContext {
		t.Fatalf("context flags lost in fallback")
	}
}

func TestSynthesizeFallbackNoContexts(t *testing.T) {
	s := NewSynthesizer(nil, nil, SynthesizerLimits{})

	resp, err := s.Synthesize(context.Background(), "obscure question", fusedFrom(), "")
	if err != nil {
		t.Fatalf("nil completer fallback must not error, got %v", err)
	}
	if resp.ModelUsed != domain.ModelFallback {
		t.Fatalf("model = %s", resp.ModelUsed)
	}
	if !strings.Contains(resp.Response, "couldn't find relevant information") {
		t.Fatalf("no-context fallback text missing: %s", resp.Response)
	}
	if len(resp.Citations) != 0 {
		t.Fatalf("fallback must carry no citations")
	}
}

func TestSynthesizeCachesResponses(t *testing.T) {
	completer := &completerFake{response: "First answer."}
	cache := newCacheFake()
	s := NewSynthesizer(completer, cache, SynthesizerLimits{})

	fused := fusedFrom(domain.ContextItem{Text: "t", SourceType: domain.SourcePublicSemantic, OriginID: "pub-1"})
	first, err := s.Synthesize(context.Background(), "q", fused, "u1")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	completer.response = "Second answer."
	second, err := s.Synthesize(context.Background(), "q", fused, "u1")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if first.Response != second.Response {
		t.Fatalf("expected cached response, got %q then %q", first.Response, second.Response)
	}
}

func TestExtractCitations(t *testing.T) {
	text := `Based on [Personal Doc: Lease Agreement] and [Article 21], see also
[Maneka Gandhi, AIR 1978 SC 597] and [Legal Authority] and [Constitutional Provision].`

	contexts := []domain.ContextItem{
		{SourceType: domain.SourcePersonal, OriginID: "doc-9", Title: "Lease Agreement", CombinedScore: 0.9},
		{SourceType: domain.SourcePublicGraph, OriginID: "case-1", Title: "Maneka Gandhi, AIR 1978 SC 597"},
	}

	citations := extractCitations(text, contexts)

	byType := map[domain.CitationType]domain.Citation{}
	for _, c := range citations {
		byType[c.Type] = c
	}

	personal, ok := byType[domain.CitationPersonalDocument]
	if !ok || personal.Text != "Lease Agreement" {
		t.Fatalf("personal citation: %+v", byType)
	}
	if personal.Source == nil || personal.Source.OriginID != "doc-9" {
		t.Fatalf("personal citation unresolved: %+v", personal.Source)
	}

	article, ok := byType[domain.CitationConstitutionalArticle]
	if !ok || article.Text != "Article 21" {
		t.Fatalf("article citation: %+v", byType)
	}

	caseCite, ok := byType[domain.CitationCaseLaw]
	if !ok || !strings.Contains(caseCite.Text, "Maneka Gandhi") {
		t.Fatalf("case citation: %+v", byType)
	}
	if caseCite.Source == nil || caseCite.Source.OriginID != "case-1" {
		t.Fatalf("case citation should resolve to graph entity: %+v", caseCite.Source)
	}

	if _, ok := byType[domain.CitationLegalAuthority]; !ok {
		t.Fatalf("legal authority citation missing")
	}
	if _, ok := byType[domain.CitationConstitutionalProvision]; !ok {
		t.Fatalf("constitutional provision citation missing")
	}
}

func TestExtractCitationsDeduplicates(t *testing.T) {
	text := "[Article 21] and again [Article 21]"
	citations := extractCitations(text, nil)
	if len(citations) != 1 {
		t.Fatalf("expected deduplicated citations, got %d", len(citations))
	}
	if citations[0].Source != nil {
		t.Fatalf("unresolvable citation must keep nil source")
	}
}

func TestBuildSynthesisPromptTemplateSelection(t *testing.T) {
	personal := domain.ContextItem{Text: "my clause", SourceType: domain.SourcePersonal, Title: "Contract"}
	public := domain.ContextItem{Text: "public law", SourceType: domain.SourcePublicSemantic}

	hybrid := buildSynthesisPrompt("q", fusedFrom(personal, public))
	if !strings.Contains(hybrid, "PERSONAL DOCUMENTS") || !strings.Contains(hybrid, "PUBLIC LEGAL KNOWLEDGE") {
		t.Fatalf("hybrid template missing sections")
	}

	personalOnly := buildSynthesisPrompt("q", fusedFrom(personal))
	if strings.Contains(personalOnly, "PUBLIC LEGAL KNOWLEDGE") {
		t.Fatalf("personal-only template leaked public section")
	}

	publicOnly := buildSynthesisPrompt("q", fusedFrom(public))
	if strings.Contains(publicOnly, "PERSONAL DOCUMENTS") {
		t.Fatalf("public-only template leaked personal section")
	}

	noContext := buildSynthesisPrompt("q", fusedFrom())
	if !strings.Contains(noContext, "No specific relevant documents") {
		t.Fatalf("no-context template wrong: %s", noContext[:80])
	}
}

func TestBuildSynthesisPromptIncludesGraphRelationships(t *testing.T) {
	graph := domain.ContextItem{
		Text:         "Case: Maneka Gandhi",
		SourceType:   domain.SourcePublicGraphRelated,
		Title:        "Maneka Gandhi",
		Relationship: "INTERPRETED_BY",
	}
	prompt := buildSynthesisPrompt("q", fusedFrom(graph))
	if !strings.Contains(prompt, "Related via: INTERPRETED_BY") {
		t.Fatalf("relationship annotation missing from prompt")
	}
}
