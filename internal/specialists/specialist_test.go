package specialists

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/types"
)

func TestCanHandle(t *testing.T) {
	kb := NewKnowledgeBase("test", []string{"network", "routing"}, 0.3, nil)

	t.Run("no overlap refuses", func(t *testing.T) {
		ok, rel := kb.CanHandle(types.Query{Content: "billing statement question"})
		assert.False(t, ok)
		assert.Zero(t, rel)
	})

	t.Run("partial overlap reports the fraction", func(t *testing.T) {
		ok, rel := kb.CanHandle(types.Query{Content: "network latency spike"})
		assert.True(t, ok)
		assert.InDelta(t, 0.5, rel, 1e-9)
	})

	t.Run("full overlap reports one", func(t *testing.T) {
		ok, rel := kb.CanHandle(types.Query{Content: "network routing table"})
		assert.True(t, ok)
		assert.InDelta(t, 1.0, rel, 1e-9)
	})
}

func TestProcess(t *testing.T) {
	kb := NewKnowledgeBase("test", []string{"network"}, 0.3, []Entry{
		{
			Keywords:   []string{"gateway", "timeout"},
			Content:    "Gateway knowledge.",
			Source:     "kb:1",
			Confidence: 0.8,
			Tags:       []string{"topology"},
		},
		{
			Keywords:   []string{"database"},
			Content:    "Database knowledge.",
			Source:     "kb:2",
			Confidence: 0.8,
			Tags:       []string{"database"},
		},
	})

	t.Run("matching entries become fragments", func(t *testing.T) {
		resp, err := kb.Process(context.Background(), types.Query{ID: "q1", Content: "gateway timeout storm"})
		require.NoError(t, err)
		require.Len(t, resp.Fragments, 1)

		f := resp.Fragments[0]
		assert.Equal(t, "Gateway knowledge.", f.Content)
		assert.Equal(t, "test", f.SpecialistID)
		assert.Equal(t, types.ValidationPending, f.Status)
		// both keywords hit, so the full base confidence applies
		assert.InDelta(t, 0.8, f.Confidence, 1e-9)
		assert.InDelta(t, 0.8, resp.Confidence, 1e-9)
	})

	t.Run("partial keyword hit scales confidence down", func(t *testing.T) {
		resp, err := kb.Process(context.Background(), types.Query{ID: "q1", Content: "gateway congestion"})
		require.NoError(t, err)
		require.Len(t, resp.Fragments, 1)
		// one of two keywords: 0.8 * (0.7 + 0.15)
		assert.InDelta(t, 0.68, resp.Fragments[0].Confidence, 1e-9)
	})

	t.Run("no matches yields empty response", func(t *testing.T) {
		resp, err := kb.Process(context.Background(), types.Query{ID: "q1", Content: "unrelated topic"})
		require.NoError(t, err)
		assert.Empty(t, resp.Fragments)
		assert.Zero(t, resp.Confidence)
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := kb.Process(ctx, types.Query{ID: "q1", Content: "gateway timeout"})
		assert.Error(t, err)
	})
}

func TestValidateFragment(t *testing.T) {
	kb := NewKnowledgeBase("test", []string{"network"}, 0.5, nil)

	assert.True(t, kb.ValidateFragment(types.KnowledgeFragment{Content: "x", Confidence: 0.5}))
	assert.False(t, kb.ValidateFragment(types.KnowledgeFragment{Content: "x", Confidence: 0.49}))
	assert.False(t, kb.ValidateFragment(types.KnowledgeFragment{Content: "", Confidence: 0.9}))
}

func TestBuiltinsAnswerTheirDomains(t *testing.T) {
	tests := []struct {
		specialist types.Specialist
		query      string
	}{
		{NewTickets(), "recurring gateway timeout incidents"},
		{NewTopology(), "how does network traffic reach the gateway"},
		{NewDocs(), "what does the documentation say about timeout configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.specialist.ID(), func(t *testing.T) {
			ok, rel := tt.specialist.CanHandle(types.Query{Content: tt.query})
			assert.True(t, ok)
			assert.Greater(t, rel, 0.0)

			resp, err := tt.specialist.Process(context.Background(), types.Query{ID: "q1", Content: tt.query})
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Fragments)
			for _, f := range resp.Fragments {
				assert.Equal(t, tt.specialist.ID(), f.SpecialistID)
				assert.NotEmpty(t, f.Source)
				assert.True(t, tt.specialist.ValidateFragment(f))
			}
		})
	}
}

func TestBuiltinIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []types.Specialist{NewTickets(), NewTopology(), NewDocs()} {
		assert.False(t, seen[s.ID()], s.ID())
		seen[s.ID()] = true
		assert.NotEmpty(t, s.DomainTags())
	}
}
