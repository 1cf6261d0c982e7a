package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureQuestionIDs_FillsMissing(t *testing.T) {
	in := []Question{
		{Question: "Tell me about a conflict", TalkingPoints: []TalkingPoint{{Text: "context"}, {ID: "tp-1", Text: "outcome"}}},
		{Question: "Why this team?"},
	}

	out := EnsureQuestionIDs(in)
	require.Len(t, out, 2)

	assert.NotEmpty(t, out[0].ID)
	assert.NotEmpty(t, out[0].TalkingPoints[0].ID)
	assert.Equal(t, "tp-1", out[0].TalkingPoints[1].ID)
	assert.NotEmpty(t, out[1].ID)
	assert.NotNil(t, out[1].TalkingPoints)
	assert.Empty(t, out[1].TalkingPoints)

	// input is left untouched
	assert.Empty(t, in[0].ID)
}

func TestEnsureQuestionIDs_KeepsExisting(t *testing.T) {
	in := []Question{{ID: "q-1", Question: "Design a cache", TalkingPoints: []TalkingPoint{{ID: "tp-1", Text: "eviction"}}}}

	out := EnsureQuestionIDs(in)
	assert.Equal(t, in, out)
}

func TestEnsureQuestionIDs_KeepsWhitespaceIDs(t *testing.T) {
	in := []Question{{ID: "  ", Question: "Why this team?", TalkingPoints: []TalkingPoint{{ID: " ", Text: "mission"}}}}

	out := EnsureQuestionIDs(in)
	require.Len(t, out, 1)
	assert.Equal(t, "  ", out[0].ID)
	assert.Equal(t, " ", out[0].TalkingPoints[0].ID)
}

func TestEnsureQuestionIDs_Idempotent(t *testing.T) {
	once := EnsureQuestionIDs([]Question{{Question: "a", TalkingPoints: []TalkingPoint{{Text: "b"}}}})
	twice := EnsureQuestionIDs(once)
	assert.Equal(t, once, twice)
}

func TestEnsureQuestionIDs_NilBecomesEmpty(t *testing.T) {
	out := EnsureQuestionIDs(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestReconcile_UniqueIDsAcrossArtifact(t *testing.T) {
	a := &InterviewPrepArtifact{
		BehavioralQuestions: []Question{{Question: "b1", TalkingPoints: []TalkingPoint{{Text: "p"}, {Text: "q"}}}},
		TechnicalQuestions:  []Question{{Question: "t1"}, {Question: "t2"}},
	}
	a.Reconcile()

	seen := map[string]bool{}
	for _, qs := range [][]Question{a.BehavioralQuestions, a.TechnicalQuestions, a.RoleSpecificQuestions} {
		for _, q := range qs {
			assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
			seen[q.ID] = true
			for _, p := range q.TalkingPoints {
				assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
				seen[p.ID] = true
			}
		}
	}
	assert.Len(t, seen, 5)
	assert.NotNil(t, a.RoleSpecificQuestions)
	assert.NotNil(t, a.JobDetails.Skills)
}
