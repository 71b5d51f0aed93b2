package usecase

import (
	"sort"
	"strings"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

// FusionConfig carries the tunable fusion constants. Deployments may override
// them; the defaults match the documented scoring model.
type FusionConfig struct {
	PersonalPriority       float64
	PublicSemanticPriority float64
	PublicGraphPriority    float64
	RelatedPriority        float64

	RawWeight          float64
	CrossEncoderWeight float64
	PriorityWeight     float64

	MinPublicScore   float64
	MaxContexts      int
	DuplicateJaccard float64
}

func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		PersonalPriority:       1.0,
		PublicSemanticPriority: 0.8,
		PublicGraphPriority:    0.7,
		RelatedPriority:        0.6,

		RawWeight:          0.4,
		CrossEncoderWeight: 0.4,
		PriorityWeight:     0.2,

		MinPublicScore:   0.1,
		MaxContexts:      15,
		DuplicateJaccard: 0.8,
	}
}

func (c FusionConfig) normalize() FusionConfig {
	out := c
	def := DefaultFusionConfig()
	if out.PersonalPriority <= 0 {
		out.PersonalPriority = def.PersonalPriority
	}
	if out.PublicSemanticPriority <= 0 {
		out.PublicSemanticPriority = def.PublicSemanticPriority
	}
	if out.PublicGraphPriority <= 0 {
		out.PublicGraphPriority = def.PublicGraphPriority
	}
	if out.RelatedPriority <= 0 {
		out.RelatedPriority = def.RelatedPriority
	}
	if out.RawWeight <= 0 && out.CrossEncoderWeight <= 0 && out.PriorityWeight <= 0 {
		out.RawWeight = def.RawWeight
		out.CrossEncoderWeight = def.CrossEncoderWeight
		out.PriorityWeight = def.PriorityWeight
	}
	if out.MinPublicScore < 0 {
		out.MinPublicScore = def.MinPublicScore
	}
	if out.MaxContexts <= 0 {
		out.MaxContexts = def.MaxContexts
	}
	if out.DuplicateJaccard <= 0 || out.DuplicateJaccard > 1 {
		out.DuplicateJaccard = def.DuplicateJaccard
	}
	return out
}

func (c FusionConfig) priorityFor(source domain.SourceType) float64 {
	switch source {
	case domain.SourcePersonal:
		return c.PersonalPriority
	case domain.SourcePublicSemantic:
		return c.PublicSemanticPriority
	case domain.SourcePublicGraph:
		return c.PublicGraphPriority
	case domain.SourcePublicGraphRelated:
		return c.RelatedPriority
	default:
		return 0
	}
}

// dedupeContexts removes near-duplicate passages. Two items are duplicates
// when their word-set Jaccard similarity reaches the configured threshold;
// the survivor is the one with higher source priority, ties broken by higher
// raw score. Empty texts are dropped outright.
func dedupeContexts(cfg FusionConfig, items []domain.ContextItem) []domain.ContextItem {
	deduped := make([]domain.ContextItem, 0, len(items))
	wordSets := make([]map[string]struct{}, 0, len(items))

	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		words := wordSet(text)

		duplicateOf := -1
		for i := range deduped {
			if jaccard(words, wordSets[i]) >= cfg.DuplicateJaccard {
				duplicateOf = i
				break
			}
		}
		if duplicateOf < 0 {
			deduped = append(deduped, item)
			wordSets = append(wordSets, words)
			continue
		}
		if prefersOver(item, deduped[duplicateOf]) {
			deduped[duplicateOf] = item
			wordSets[duplicateOf] = words
		}
	}
	return deduped
}

func prefersOver(candidate, incumbent domain.ContextItem) bool {
	if candidate.SourcePriority != incumbent.SourcePriority {
		return candidate.SourcePriority > incumbent.SourcePriority
	}
	return candidate.RawScore > incumbent.RawScore
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// sortByPriorityScore is the re-ranking fallback when no cross-encoder is
// available: descending (source priority, raw score), then origin id for a
// stable total order.
func sortByPriorityScore(items []domain.ContextItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SourcePriority != items[j].SourcePriority {
			return items[i].SourcePriority > items[j].SourcePriority
		}
		if items[i].RawScore != items[j].RawScore {
			return items[i].RawScore > items[j].RawScore
		}
		return items[i].OriginID < items[j].OriginID
	})
}

func sortByCombinedScore(items []domain.ContextItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CombinedScore != items[j].CombinedScore {
			return items[i].CombinedScore > items[j].CombinedScore
		}
		return items[i].OriginID < items[j].OriginID
	})
}

// filterAndCap applies the relevance floor and the context cap. Personal
// items always survive the floor: private documents must surface whenever
// they were retrieved. When capping, up to a third of the cap is reserved for
// personal items before the remainder is filled with the top public items.
func filterAndCap(cfg FusionConfig, items []domain.ContextItem) []domain.ContextItem {
	filtered := make([]domain.ContextItem, 0, len(items))
	for _, item := range items {
		if item.SourceType == domain.SourcePersonal || item.CombinedScore >= cfg.MinPublicScore {
			filtered = append(filtered, item)
		}
	}

	if len(filtered) <= cfg.MaxContexts {
		return filtered
	}

	personal := make([]domain.ContextItem, 0, len(filtered))
	public := make([]domain.ContextItem, 0, len(filtered))
	for _, item := range filtered {
		if item.SourceType == domain.SourcePersonal {
			personal = append(personal, item)
		} else {
			public = append(public, item)
		}
	}

	personalLimit := min(len(personal), cfg.MaxContexts/3)
	publicLimit := cfg.MaxContexts - personalLimit

	out := make([]domain.ContextItem, 0, cfg.MaxContexts)
	out = append(out, personal[:personalLimit]...)
	if publicLimit > len(public) {
		publicLimit = len(public)
	}
	out = append(out, public[:publicLimit]...)
	return out
}
