package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync/internal/matcher"
	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/reconcile"
)

func internal(id int64, code string) assessments.InternalAssignment {
	return assessments.InternalAssignment{ID: id, CourseModuleID: id * 10, LinkCode: code}
}

func external(code, scheme string) assessments.ExternalAssessment {
	return assessments.ExternalAssessment{LinkCode: code, MarkSchemeCode: scheme}
}

func TestMatch(t *testing.T) {
	res := reconcile.Match(
		[]assessments.InternalAssignment{internal(1, "LC1"), internal(2, "LC2"), internal(3, "")},
		[]assessments.ExternalAssessment{external("LC2", "B"), external("LC1", "A"), external("LC9", "Z")},
	)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, "LC1", res.Pairs[0].LinkCode())
	assert.Equal(t, "A", res.Pairs[0].External.MarkSchemeCode)
	assert.Equal(t, int64(2), res.Pairs[1].Internal.ID)

	require.Len(t, res.Orphans, 1)
	assert.Equal(t, "LC9", res.Orphans[0].LinkCode)
	assert.Empty(t, res.Unmatched)

	assert.Equal(t, reconcile.Stats{
		Internal: 3, External: 3, Ineligible: 1, Matched: 2, Orphans: 1,
	}, res.Stats)
}

func TestMatchUnmatchedInternal(t *testing.T) {
	res := reconcile.Match([]assessments.InternalAssignment{internal(1, "LC1")}, nil)
	assert.Empty(t, res.Pairs)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, 1, res.Stats.Unmatched)
}

func TestMatchLastRecordWins(t *testing.T) {
	res := reconcile.Match(
		[]assessments.InternalAssignment{internal(1, "LC1"), internal(2, "LC2"), internal(5, "LC1")},
		[]assessments.ExternalAssessment{external("LC1", "old"), external("LC2", "B"), external("LC1", "new")},
	)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, "LC1", res.Pairs[0].LinkCode())
	assert.Equal(t, int64(5), res.Pairs[0].Internal.ID)
	assert.Equal(t, "new", res.Pairs[0].External.MarkSchemeCode)
	assert.Equal(t, 2, res.Stats.Duplicates)
}

func TestMatchTrimsCodes(t *testing.T) {
	res := reconcile.Match(
		[]assessments.InternalAssignment{internal(1, " LC1 ")},
		[]assessments.ExternalAssessment{external("LC1", "A"), external("  ", "blank")},
	)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "LC1", res.Pairs[0].LinkCode())
	assert.Equal(t, " LC1 ", res.Pairs[0].Internal.LinkCode, "the LMS value keys grade_items and is kept as stored")
	assert.Empty(t, res.Orphans)
}

func TestMatchWithFilter(t *testing.T) {
	filter, err := matcher.NewFilter([]string{"*_2019/20_*"}, nil)
	require.NoError(t, err)

	res := reconcile.Match(
		[]assessments.InternalAssignment{internal(1, "A_2019/20_001"), internal(2, "A_2020/21_001")},
		[]assessments.ExternalAssessment{external("A_2019/20_001", "X"), external("A_2020/21_001", "Y")},
		reconcile.WithFilter(filter),
	)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "A_2019/20_001", res.Pairs[0].LinkCode())
	assert.Equal(t, []string{"A_2020/21_001"}, res.Filtered)
	assert.Equal(t, 1, res.Stats.Filtered)
}
