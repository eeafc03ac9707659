package service

import (
	"testing"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "jane@x.com", NormalizeValue(view.CompareEmail, "  Jane@X.com "))
	assert.Equal(t, "5551234567", NormalizeValue(view.ComparePhone, "+1 (555) 123-4567"))
	assert.Equal(t, "", NormalizeValue(view.ComparePhone, "12-34"))
	assert.Equal(t, "doe jane", NormalizeValue(view.CompareName, "Jane  DOE"))
	assert.Equal(t, "doe jose", NormalizeValue(view.CompareName, "José Doe"))
	assert.Equal(t, "linkedin.com/in/jane", NormalizeValue(view.CompareUrl, "https://www.LinkedIn.com/in/jane/?trk=1"))
	assert.Equal(t, "acme.io", NormalizeValue(view.CompareDomain, "http://www.acme.io/about"))
	assert.Equal(t, "new york ny", NormalizeValue(view.CompareText, "New York, NY"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 0.0, Similarity(view.CompareEmail, "", ""))
	assert.Equal(t, 1.0, Similarity(view.CompareEmail, "a@x.com", "a@x.com"))
	assert.Equal(t, 0.0, Similarity(view.CompareEmail, "a@x.com", "b@x.com"))

	pairs := [][2]string{
		{"doe jane", "doe janet"},
		{"doe jane", "jane"},
		{"smith john", "doe jane"},
	}
	for _, p := range pairs {
		ab := Similarity(view.CompareName, p[0], p[1])
		ba := Similarity(view.CompareName, p[1], p[0])
		assert.Equal(t, ab, ba, "%v", p)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
	assert.Greater(t, Similarity(view.CompareName, "doe jane", "doe janet"), 0.8)
	assert.Less(t, Similarity(view.CompareName, "smith john", "doe jane"), 0.5)
	assert.Greater(t, Similarity(view.CompareName, "doe jane", "doe jane mary"), 0.6)
	assert.GreaterOrEqual(t, Similarity(view.CompareName, "doe jane", "jane"), 0.5)
}

func scoring(t *testing.T, record view.Record) ScoringRecord {
	return NewScoringRecord(candidateSchema(t), record)
}

func TestScorePairSameEmail(t *testing.T) {
	schema := candidateSchema(t)
	a := scoring(t, view.Record{"id": "a", "full_name": "Jane Doe", "email": "jane@x.com"})
	b := scoring(t, view.Record{"id": "b", "full_name": "Doe Jane", "email": "Jane@X.com", "phone": "555 123 4567"})

	confidence, matchFields := ScorePair(schema.DuplicateFields, a, b)
	assert.GreaterOrEqual(t, confidence, 0.7)
	assert.Contains(t, matchFields, "email")
	assert.Contains(t, matchFields, "fullName")
	assert.NotContains(t, matchFields, "phone")

	reverse, _ := ScorePair(schema.DuplicateFields, b, a)
	assert.InDelta(t, confidence, reverse, 1e-12)
}

func TestScorePairMonotonic(t *testing.T) {
	schema := candidateSchema(t)
	base := view.Record{"id": "a", "full_name": "Jane Doe"}
	other := view.Record{"id": "b", "full_name": "Jane Doe"}

	nameOnly, _ := ScorePair(schema.DuplicateFields, scoring(t, base), scoring(t, other))

	base["phone"] = "5551234567"
	other["phone"] = "+1 555-123-4567"
	withPhone, _ := ScorePair(schema.DuplicateFields, scoring(t, base), scoring(t, other))

	base["email"] = "jane@x.com"
	other["email"] = "jane@x.com"
	withEmail, _ := ScorePair(schema.DuplicateFields, scoring(t, base), scoring(t, other))

	assert.InDelta(t, 0.5, nameOnly, 1e-9)
	assert.Greater(t, withPhone, nameOnly)
	assert.Greater(t, withEmail, withPhone)
	assert.LessOrEqual(t, withEmail, 1.0)
}

func TestScorePairNoOverlap(t *testing.T) {
	schema := candidateSchema(t)
	confidence, matchFields := ScorePair(schema.DuplicateFields,
		scoring(t, view.Record{"id": "a", "email": "a@x.com"}),
		scoring(t, view.Record{"id": "b", "phone": "5551234567"}))
	assert.Equal(t, 0.0, confidence)
	assert.Empty(t, matchFields)
}

func TestFindCandidates(t *testing.T) {
	schema := candidateSchema(t)
	records := []ScoringRecord{
		scoring(t, view.Record{"id": "c3", "full_name": "Jane Doe", "email": "jane@x.com"}),
		scoring(t, view.Record{"id": "c1", "full_name": "J. Doe", "email": "JANE@x.com"}),
		scoring(t, view.Record{"id": "c2", "full_name": "John Smith", "email": "john@y.com"}),
		scoring(t, view.Record{"id": "c4", "full_name": "John Smith", "email": "js@z.com", "phone": "555 000 1111"}),
	}

	candidates, stats := FindCandidates(schema.DuplicateFields, records, 100, 0.4)
	require.Len(t, candidates, 2)
	assert.Equal(t, "c1", candidates[0].RecordId1)
	assert.Equal(t, "c3", candidates[0].RecordId2)
	assert.Contains(t, candidates[0].MatchFields, "email")
	assert.Equal(t, "c2", candidates[1].RecordId1)
	assert.Equal(t, "c4", candidates[1].RecordId2)
	assert.InDelta(t, 0.5, candidates[1].ConfidenceScore, 1e-9)
	assert.Equal(t, 2, stats.PairsCompared)

	candidates, _ = FindCandidates(schema.DuplicateFields, records, 100, 0.6)
	require.Len(t, candidates, 1)
	assert.Equal(t, "c1", candidates[0].RecordId1)
}

func TestFindCandidatesSkipsOversizedBlocks(t *testing.T) {
	schema := candidateSchema(t)
	records := []ScoringRecord{
		scoring(t, view.Record{"id": "a", "email": "same@x.com"}),
		scoring(t, view.Record{"id": "b", "email": "same@x.com"}),
		scoring(t, view.Record{"id": "c", "email": "same@x.com"}),
	}
	candidates, stats := FindCandidates(schema.DuplicateFields, records, 2, 0.1)
	assert.Empty(t, candidates)
	assert.Equal(t, 1, stats.Blocks)
	assert.Equal(t, 1, stats.SkippedBlocks)
}

func TestBlockingKeysSingleTextFieldIsNotAKey(t *testing.T) {
	schema := candidateSchema(t)
	keys := BlockingKeys(schema.DuplicateFields, scoring(t, view.Record{"id": "a", "location": "Berlin"}))
	assert.Empty(t, keys)
}
