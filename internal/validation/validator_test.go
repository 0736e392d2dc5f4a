package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/types"
)

func frag(specialist, content string, confidence float64) types.KnowledgeFragment {
	return types.KnowledgeFragment{
		Content:      content,
		Source:       "test",
		Confidence:   confidence,
		SpecialistID: specialist,
		Status:       types.ValidationPending,
	}
}

func TestValidateEmpty(t *testing.T) {
	v := New(DefaultConfig())
	result := v.Validate(nil)

	assert.Equal(t, 1.0, result.ConsistencyScore)
	assert.Zero(t, result.OverallConfidence)
	assert.Empty(t, result.ValidatedFragments)
}

func TestValidateSingleFragment(t *testing.T) {
	v := New(DefaultConfig())
	result := v.Validate([]types.KnowledgeFragment{
		frag("docs", "gateway timeout default thirty seconds", 0.85),
	})

	// A single source cannot disagree with itself.
	assert.Equal(t, 1.0, result.ConsistencyScore)
	assert.InDelta(t, 0.85, result.OverallConfidence, 1e-9)
	require.Len(t, result.ValidatedFragments, 1)
	assert.Equal(t, types.ValidationValidated, result.ValidatedFragments[0].Status)
	assert.Contains(t, result.Recommendations, "Single-source result - consider cross-validation")
}

func TestValidateOverallConfidence(t *testing.T) {
	v := New(DefaultConfig())

	// Token sets overlap 3 of 4: consistency 0.75. No conflicts.
	result := v.Validate([]types.KnowledgeFragment{
		frag("docs", "gateway timeout configuration threshold", 0.9),
		frag("tickets", "gateway timeout configuration", 0.7),
	})

	assert.InDelta(t, 0.75, result.ConsistencyScore, 1e-9)
	assert.Empty(t, result.Conflicts)
	// mean confidence 0.8, no conflict penalty
	assert.InDelta(t, 0.8*1.0*0.75, result.OverallConfidence, 1e-9)
}

func TestConflictDetection(t *testing.T) {
	v := New(DefaultConfig())

	t.Run("antonym pair is exactly one conflict", func(t *testing.T) {
		result := v.Validate([]types.KnowledgeFragment{
			frag("tickets", "the primary database is healthy", 0.8),
			frag("topology", "the primary database is unhealthy", 0.8),
		})

		require.Len(t, result.Conflicts, 1)
		assert.Equal(t, "healthy", result.Conflicts[0].TermA)
		assert.Equal(t, "unhealthy", result.Conflicts[0].TermB)
	})

	t.Run("conflict lowers overall confidence", func(t *testing.T) {
		agree := v.Validate([]types.KnowledgeFragment{
			frag("tickets", "the primary database is healthy", 0.8),
			frag("topology", "the primary database is healthy", 0.8),
		})
		disagree := v.Validate([]types.KnowledgeFragment{
			frag("tickets", "the primary database is healthy", 0.8),
			frag("topology", "the primary database is unhealthy", 0.8),
		})

		assert.Less(t, disagree.OverallConfidence, agree.OverallConfidence)
	})

	t.Run("short antonym terms are detected", func(t *testing.T) {
		// "up" and "down" would be dropped by the keyword tokenizer.
		result := v.Validate([]types.KnowledgeFragment{
			frag("tickets", "edge gateway link currently up", 0.8),
			frag("topology", "edge gateway link currently down", 0.8),
		})
		require.Len(t, result.Conflicts, 1)
		assert.Equal(t, "up", result.Conflicts[0].TermA)
		assert.Equal(t, "down", result.Conflicts[0].TermB)
	})

	t.Run("penalty floors at zero", func(t *testing.T) {
		v := New(Config{ConflictPenalty: 0.6, ConfidenceFloor: 0.6, ConsistencyWarning: 0.7})
		result := v.Validate([]types.KnowledgeFragment{
			frag("a", "service healthy available connected", 0.9),
			frag("b", "service unhealthy unavailable disconnected", 0.9),
		})
		require.Len(t, result.Conflicts, 3)
		assert.Zero(t, result.OverallConfidence)
	})
}

func TestPartition(t *testing.T) {
	v := New(DefaultConfig())
	result := v.Validate([]types.KnowledgeFragment{
		frag("docs", "gateway timeout configuration threshold", 0.9),
		frag("tickets", "gateway timeout configuration history", 0.4),
	})

	require.Len(t, result.ValidatedFragments, 1)
	require.Len(t, result.RejectedFragments, 1)
	assert.Equal(t, types.ValidationValidated, result.ValidatedFragments[0].Status)
	assert.Equal(t, types.ValidationRejected, result.RejectedFragments[0].Status)
	assert.Equal(t, "docs", result.ValidatedFragments[0].SpecialistID)
	assert.Contains(t, result.Recommendations, "Some information has low confidence - verify accuracy")
}

func TestRecommendationsDeterministic(t *testing.T) {
	v := New(DefaultConfig())
	fragments := []types.KnowledgeFragment{
		frag("a", "completely unrelated first statement", 0.8),
		frag("b", "orthogonal second remark entirely", 0.8),
	}

	first := v.Validate(fragments)
	second := v.Validate(fragments)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Contains(t, first.Recommendations, "Low consistency across sources - cross-validate from additional sources")
}

func TestSetConfigDuringValidate(t *testing.T) {
	v := New(DefaultConfig())
	fragments := []types.KnowledgeFragment{
		frag("a", "gateway timeout configuration threshold", 0.9),
		frag("b", "gateway timeout configuration", 0.7),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			cfg := DefaultConfig()
			cfg.ConfidenceFloor = float64(i%10) / 10
			v.SetConfig(cfg)
		}
	}()

	for i := 0; i < 200; i++ {
		result := v.Validate(fragments)
		// one knob snapshot per round: the partition is always complete
		assert.Len(t, result.ValidatedFragments, 2-len(result.RejectedFragments))
	}
	<-done
}

func TestWithAntonyms(t *testing.T) {
	v := New(DefaultConfig()).WithAntonyms([]AntonymPair{{"hot", "cold"}})
	result := v.Validate([]types.KnowledgeFragment{
		frag("a", "the cache runs hot under load", 0.8),
		frag("b", "the cache stays cold under load", 0.8),
	})
	require.Len(t, result.Conflicts, 1)

	// default table no longer applies
	none := v.Validate([]types.KnowledgeFragment{
		frag("a", "replica healthy", 0.8),
		frag("b", "replica unhealthy", 0.8),
	})
	assert.Empty(t, none.Conflicts)
}
