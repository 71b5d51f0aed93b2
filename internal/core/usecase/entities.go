package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

var (
	articlePattern  = regexp.MustCompile(`\b[Aa]rticle\s+(\d+)\b`)
	caseNamePattern = regexp.MustCompile(`\b([A-Z][a-z]+\s+v\.?\s+[A-Z][a-z]+)\b`)
)

// legalTerms is a fixed glossary of graph-indexed legal concepts.
var legalTerms = []string{
	"fundamental rights", "directive principles", "emergency provisions",
	"parliament", "supreme court", "high court", "president", "governor",
	"constitution", "amendment", "equality", "liberty", "justice",
}

// ExtractLegalEntities pulls candidate graph lookup keys out of a query:
// article numbers, X v. Y case names, and glossary terms. Order is first-seen
// so extraction stays deterministic.
func ExtractLegalEntities(query string) []string {
	seen := make(map[string]struct{})
	var entities []string
	add := func(e string) {
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		entities = append(entities, e)
	}

	for _, m := range articlePattern.FindAllStringSubmatch(query, -1) {
		add("Article " + m[1])
	}
	for _, m := range caseNamePattern.FindAllStringSubmatch(query, -1) {
		add(m[1])
	}

	queryLower := strings.ToLower(query)
	for _, term := range legalTerms {
		if strings.Contains(queryLower, term) {
			add(term)
		}
	}
	return entities
}

// FormatEntityText renders a graph entity as a readable context passage.
// Articles, cases and judges get structured layouts; anything else falls back
// to a type-prefixed name plus content.
func FormatEntityText(entity domain.GraphEntity) string {
	var b strings.Builder

	switch entity.Type {
	case "articles":
		b.WriteString("Article " + entity.Attrs["number"])
		if part := entity.Attrs["part"]; part != "" {
			b.WriteString(" (Part " + part + ")")
		}
		if chapter := entity.Attrs["chapter"]; chapter != "" {
			b.WriteString(" (Chapter " + chapter + ")")
		}
		b.WriteString(": " + entity.Name)
		if entity.Content != "" {
			b.WriteString("\n" + entity.Content)
		}
	case "cases":
		b.WriteString("Case: " + entity.Name)
		if citation := entity.Attrs["citation"]; citation != "" {
			b.WriteString(" (" + citation + ")")
		}
		if court := entity.Attrs["court"]; court != "" {
			b.WriteString("\nCourt: " + court)
		}
		if date := entity.Attrs["date"]; date != "" {
			b.WriteString("\nDate: " + date)
		}
		if entity.Content != "" {
			b.WriteString("\nSummary: " + entity.Content)
		}
	case "judges":
		b.WriteString("Judge: " + entity.Name)
		if court := entity.Attrs["court"]; court != "" {
			b.WriteString("\nCourt: " + court)
		}
		if tenure := entity.Attrs["tenure_start"]; tenure != "" {
			b.WriteString("\nTenure: " + tenure)
		}
		if entity.Content != "" {
			b.WriteString("\nContext: " + entity.Content)
		}
	default:
		entityType := entity.Type
		if entityType == "" {
			entityType = "entity"
		}
		b.WriteString(fmt.Sprintf("%s: %s", titleCase(entityType), entity.Name))
		if entity.Content != "" {
			b.WriteString("\n" + entity.Content)
		}
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
