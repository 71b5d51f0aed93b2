package config

import "testing"

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("DEFAULT_PERSONAL_TOP_K", "")
	t.Setenv("DEFAULT_PUBLIC_TOP_K", "")
	t.Setenv("DEFAULT_GRAPH_LIMIT", "")
	t.Setenv("SOURCE_TIMEOUT_SECONDS", "")
	t.Setenv("FUSION_MIN_PUBLIC_SCORE", "")
	t.Setenv("FUSION_MAX_CONTEXTS", "")

	cfg := Load()
	if cfg.DefaultPersonalTopK != 10 {
		t.Fatalf("expected default personal top k 10, got %d", cfg.DefaultPersonalTopK)
	}
	if cfg.DefaultPublicTopK != 15 {
		t.Fatalf("expected default public top k 15, got %d", cfg.DefaultPublicTopK)
	}
	if cfg.DefaultGraphLimit != 10 {
		t.Fatalf("expected default graph limit 10, got %d", cfg.DefaultGraphLimit)
	}
	if cfg.SourceTimeoutSeconds != 8 {
		t.Fatalf("expected default source timeout 8s, got %d", cfg.SourceTimeoutSeconds)
	}
	if cfg.FusionMinPublicScore != 0.1 {
		t.Fatalf("expected default min public score 0.1, got %v", cfg.FusionMinPublicScore)
	}
	if cfg.FusionMaxContexts != 15 {
		t.Fatalf("expected default max contexts 15, got %d", cfg.FusionMaxContexts)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DEFAULT_PERSONAL_TOP_K", "12")
	t.Setenv("SOURCE_TIMEOUT_SECONDS", "4")
	t.Setenv("FUSION_MIN_PUBLIC_SCORE", "0.25")
	t.Setenv("GROQ_TEMPERATURE", "0.3")
	t.Setenv("API_RATE_LIMIT_RPS", "5")

	cfg := Load()
	if cfg.DefaultPersonalTopK != 12 {
		t.Fatalf("expected personal top k override, got %d", cfg.DefaultPersonalTopK)
	}
	if cfg.SourceTimeoutSeconds != 4 {
		t.Fatalf("expected source timeout override, got %d", cfg.SourceTimeoutSeconds)
	}
	if cfg.FusionMinPublicScore != 0.25 {
		t.Fatalf("expected min public score override, got %v", cfg.FusionMinPublicScore)
	}
	if cfg.GroqTemperature != 0.3 {
		t.Fatalf("expected temperature override, got %v", cfg.GroqTemperature)
	}
	if cfg.APIRateLimitRPS != 5 {
		t.Fatalf("expected rate limit override, got %d", cfg.APIRateLimitRPS)
	}
}

func TestLoadFusionDefaults(t *testing.T) {
	t.Setenv("FUSION_PERSONAL_PRIORITY", "")
	t.Setenv("FUSION_RAW_WEIGHT", "")
	t.Setenv("FUSION_DUPLICATE_JACCARD", "")

	cfg := Load()
	if cfg.FusionPersonalPriority != 1.0 {
		t.Fatalf("expected default personal priority 1.0, got %v", cfg.FusionPersonalPriority)
	}
	if cfg.FusionPublicSemanticPriority != 0.8 || cfg.FusionPublicGraphPriority != 0.7 || cfg.FusionRelatedPriority != 0.6 {
		t.Fatalf("unexpected default source priorities: %v %v %v",
			cfg.FusionPublicSemanticPriority, cfg.FusionPublicGraphPriority, cfg.FusionRelatedPriority)
	}
	if cfg.FusionRawWeight != 0.4 || cfg.FusionCrossEncoderWeight != 0.4 || cfg.FusionPriorityWeight != 0.2 {
		t.Fatalf("unexpected default score weights: %v %v %v",
			cfg.FusionRawWeight, cfg.FusionCrossEncoderWeight, cfg.FusionPriorityWeight)
	}
	if cfg.FusionDuplicateJaccard != 0.8 {
		t.Fatalf("expected default duplicate jaccard 0.8, got %v", cfg.FusionDuplicateJaccard)
	}
}

func TestLoadParsesFusionOverrides(t *testing.T) {
	t.Setenv("FUSION_PERSONAL_PRIORITY", "0.9")
	t.Setenv("FUSION_RAW_WEIGHT", "0.5")
	t.Setenv("FUSION_CROSS_ENCODER_WEIGHT", "0.3")
	t.Setenv("FUSION_PRIORITY_WEIGHT", "0.2")
	t.Setenv("FUSION_DUPLICATE_JACCARD", "0.9")

	cfg := Load()
	if cfg.FusionPersonalPriority != 0.9 {
		t.Fatalf("expected personal priority override, got %v", cfg.FusionPersonalPriority)
	}
	if cfg.FusionRawWeight != 0.5 || cfg.FusionCrossEncoderWeight != 0.3 || cfg.FusionPriorityWeight != 0.2 {
		t.Fatalf("unexpected weight overrides: %v %v %v",
			cfg.FusionRawWeight, cfg.FusionCrossEncoderWeight, cfg.FusionPriorityWeight)
	}
	if cfg.FusionDuplicateJaccard != 0.9 {
		t.Fatalf("expected duplicate jaccard override, got %v", cfg.FusionDuplicateJaccard)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FUSION_MAX_CONTEXTS", "plenty")
	t.Setenv("GROQ_TEMPERATURE", "warm")

	cfg := Load()
	if cfg.FusionMaxContexts != 15 {
		t.Fatalf("expected fallback max contexts 15, got %d", cfg.FusionMaxContexts)
	}
	if cfg.GroqTemperature != 0.1 {
		t.Fatalf("expected fallback temperature 0.1, got %v", cfg.GroqTemperature)
	}
}
