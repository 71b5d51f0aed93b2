package usecase

import (
	"fmt"
	"strings"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

const synthesisSystemPrompt = "You are a helpful Legal AI Assistant specializing in Indian constitutional law and legal analysis. Provide accurate, well-cited legal information while including appropriate disclaimers."

const citationFormatHybrid = `CITATION FORMAT:
- Personal documents: [Personal Doc: document_title]
- Constitutional provisions: [Article X] or [Constitutional Provision]
- Case law: [Case Name, Citation]
- Legal precedents: [Legal Authority]`

const citationFormatPublic = `CITATION FORMAT:
- Constitutional provisions: [Article X] or [Constitutional Provision]
- Case law: [Case Name, Citation]
- Legal precedents: [Legal Authority]`

// buildSynthesisPrompt selects one of four templates by which context planes
// produced results, then renders the fused contexts into it.
func buildSynthesisPrompt(query string, fused domain.FusedContext) string {
	var personal, publicSemantic, publicGraph []domain.ContextItem
	for _, item := range fused.Items {
		switch item.SourceType {
		case domain.SourcePersonal:
			personal = append(personal, item)
		case domain.SourcePublicSemantic:
			publicSemantic = append(publicSemantic, item)
		case domain.SourcePublicGraph, domain.SourcePublicGraphRelated:
			publicGraph = append(publicGraph, item)
		}
	}

	switch {
	case fused.HasPersonalContext && fused.HasPublicContext:
		return buildHybridPrompt(query, personal, publicSemantic, publicGraph)
	case fused.HasPersonalContext:
		return buildPersonalOnlyPrompt(query, personal)
	case fused.HasPublicContext:
		return buildPublicOnlyPrompt(query, publicSemantic, publicGraph)
	default:
		return buildNoContextPrompt(query)
	}
}

func buildHybridPrompt(query string, personal, publicSemantic, publicGraph []domain.ContextItem) string {
	return fmt.Sprintf(`You are a Legal AI Assistant specializing in Indian constitutional law and legal analysis. You have access to both the user's personal legal documents and public legal knowledge including constitutional provisions, case law, and legal precedents.

QUERY: %s

PERSONAL DOCUMENTS (User's specific case files and documents):
%s

PUBLIC LEGAL KNOWLEDGE (Constitutional law, precedents, and legal framework):
Semantic Search Results:
%s

Legal Relationship Knowledge:
%s

INSTRUCTIONS:
1. Provide a comprehensive legal analysis that combines insights from the user's personal documents with relevant public legal knowledge
2. Clearly distinguish between information from personal documents vs. public legal sources
3. Use proper legal citation format and reference specific sources
4. If the user's personal documents relate to the constitutional provisions or case law, explain the connections
5. Provide practical legal guidance while noting that this is AI-generated analysis
6. Include appropriate legal disclaimers about the limitations of AI legal advice

%s

Please provide a detailed response that synthesizes all available information while maintaining clear source attribution.`,
		query,
		formatPersonalContexts(personal),
		formatPublicSemanticContexts(publicSemantic),
		formatPublicGraphContexts(publicGraph),
		citationFormatHybrid,
	)
}

func buildPersonalOnlyPrompt(query string, personal []domain.ContextItem) string {
	return fmt.Sprintf(`You are a Legal AI Assistant analyzing the user's personal legal documents. You have access to the user's specific case files and legal documents but no additional public legal knowledge for this query.

QUERY: %s

PERSONAL DOCUMENTS (User's specific case files and documents):
%s

INSTRUCTIONS:
1. Analyze the user's personal documents in relation to their query
2. Provide insights based solely on the information available in their documents
3. Use proper citation format referencing the specific documents
4. Note any limitations due to the scope of available personal documents
5. Suggest areas where additional legal research or consultation might be beneficial
6. Include appropriate disclaimers about AI-generated analysis

CITATION FORMAT:
- Personal documents: [Personal Doc: document_title]

Please provide an analysis based on the user's personal documents while noting any limitations in scope.`,
		query,
		formatPersonalContexts(personal),
	)
}

func buildPublicOnlyPrompt(query string, publicSemantic, publicGraph []domain.ContextItem) string {
	return fmt.Sprintf(`You are a Legal AI Assistant specializing in Indian constitutional law and legal analysis. You have access to public legal knowledge including constitutional provisions, case law, and legal precedents.

QUERY: %s

PUBLIC LEGAL KNOWLEDGE (Constitutional law, precedents, and legal framework):
Semantic Search Results:
%s

Legal Relationship Knowledge:
%s

INSTRUCTIONS:
1. Provide a comprehensive legal analysis based on constitutional law and legal precedents
2. Use proper legal citation format and reference specific sources
3. Explain relevant constitutional provisions, case law, and legal principles
4. Provide general legal guidance while noting that this is AI-generated analysis
5. Include appropriate legal disclaimers about the limitations of AI legal advice
6. Suggest when personalized legal consultation might be necessary

%s

Please provide a detailed response based on constitutional law and legal precedents.`,
		query,
		formatPublicSemanticContexts(publicSemantic),
		formatPublicGraphContexts(publicGraph),
		citationFormatPublic,
	)
}

func buildNoContextPrompt(query string) string {
	return fmt.Sprintf(`You are a Legal AI Assistant specializing in Indian constitutional law. No specific relevant documents or legal precedents were found for this query.

QUERY: %s

INSTRUCTIONS:
1. Provide general legal guidance based on your knowledge of Indian constitutional law
2. Explain relevant legal principles and constitutional provisions that might apply
3. Note the limitations of providing advice without specific case details or relevant precedents
4. Suggest steps the user might take to get more specific legal guidance
5. Include appropriate disclaimers about AI-generated legal advice
6. Recommend consulting with qualified legal professionals for specific legal matters

Please provide a helpful response while clearly noting the limitations of general legal guidance.`, query)
}

func formatPersonalContexts(contexts []domain.ContextItem) string {
	if len(contexts) == 0 {
		return "No personal documents found relevant to this query."
	}
	var b strings.Builder
	for i, c := range contexts {
		title := c.Title
		if title == "" {
			title = c.OriginID
		}
		fmt.Fprintf(&b, "Document %d (ID: %s, Relevance: %.2f):\n%s\n\n", i+1, title, c.CombinedScore, c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPublicSemanticContexts(contexts []domain.ContextItem) string {
	if len(contexts) == 0 {
		return "No relevant semantic matches found in public legal knowledge."
	}
	var b strings.Builder
	for i, c := range contexts {
		fmt.Fprintf(&b, "Legal Document %d (Relevance: %.2f):\n%s\n\n", i+1, c.CombinedScore, c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPublicGraphContexts(contexts []domain.ContextItem) string {
	if len(contexts) == 0 {
		return "No relevant legal relationships found in knowledge graph."
	}
	var b strings.Builder
	for i, c := range contexts {
		relInfo := ""
		if c.Relationship != "" {
			relInfo = fmt.Sprintf(" (Related via: %s)", c.Relationship)
		}
		fmt.Fprintf(&b, "Legal Entity %d: %s%s\n%s\n\n", i+1, c.Title, relInfo, c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
