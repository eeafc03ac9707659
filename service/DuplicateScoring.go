package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nameEditMetric    = metrics.NewLevenshtein()
	nameOverlapMetric = metrics.NewJaccard()
)

// MatchThreshold is the per-field similarity from which a field is reported in matchFields.
const MatchThreshold = 0.8

const (
	phoneKeyDigits      = 10
	phoneShortKeyDigits = 4
	minPhoneDigits      = 7
)

// ScoringRecord holds the normalized values of the compared fields, keyed by field name.
type ScoringRecord struct {
	Id     string
	Values map[string]string
}

type BlockingStats struct {
	Blocks        int
	SkippedBlocks int
	PairsCompared int
}

func NewScoringRecord(schema *view.EntitySchema, record view.Record) ScoringRecord {
	result := ScoringRecord{Id: record.Id(), Values: make(map[string]string, len(schema.DuplicateFields))}
	for _, df := range schema.DuplicateFields {
		f := schema.FieldByName(df.Field)
		if f == nil {
			continue
		}
		raw := record[f.DbColumn]
		if raw == nil {
			continue
		}
		if v := NormalizeValue(df.Kind, FormatValue(raw)); v != "" {
			result.Values[df.Field] = v
		}
	}
	return result
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

func normalizeText(s string) string {
	s = strings.ToLower(foldAccents(s))
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
		} else {
			space = true
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func normalizeUrl(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "/")
}

func normalizeDomain(s string) string {
	s = normalizeUrl(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// NormalizeValue brings a raw value to the canonical form used for blocking and comparison.
// Empty result means the value does not take part in matching.
func NormalizeValue(kind view.ComparisonKind, raw string) string {
	switch kind {
	case view.CompareEmail:
		return strings.ToLower(strings.TrimSpace(raw))
	case view.ComparePhone:
		digits := digitsOnly(raw)
		if len(digits) < minPhoneDigits {
			return ""
		}
		return lastDigits(digits, phoneKeyDigits)
	case view.CompareName:
		tokens := strings.Fields(normalizeText(raw))
		sort.Strings(tokens)
		return strings.Join(tokens, " ")
	case view.CompareUrl:
		return normalizeUrl(raw)
	case view.CompareDomain:
		return normalizeDomain(raw)
	default:
		return normalizeText(raw)
	}
}

// Similarity compares two normalized values. It is symmetric and bounded in [0,1].
func Similarity(kind view.ComparisonKind, a string, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if kind != view.CompareName {
		return 0
	}
	// names arrive token sorted from NormalizeValue
	edit := strutil.Similarity(a, b, nameEditMetric)
	overlap := strutil.Similarity(a, b, nameOverlapMetric)
	if overlap > edit {
		return overlap
	}
	return edit
}

// ScorePair combines field similarities as 1 - prod(1 - weight*similarity).
// Fields missing on either side do not contribute.
func ScorePair(fields []view.DuplicateField, a ScoringRecord, b ScoringRecord) (float64, []string) {
	miss := 1.0
	matchFields := make([]string, 0)
	for _, df := range fields {
		s := Similarity(df.Kind, a.Values[df.Field], b.Values[df.Field])
		if s <= 0 {
			continue
		}
		miss *= 1 - df.Weight*s
		if s >= MatchThreshold {
			matchFields = append(matchFields, df.Field)
		}
	}
	confidence := 1 - miss
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, matchFields
}

// BlockingKeys returns the hashed keys of the blocks a record belongs to.
func BlockingKeys(fields []view.DuplicateField, r ScoringRecord) []uint64 {
	var keys []uint64
	var names []string
	var texts []string
	textFields := 0
	phone := ""
	for _, df := range fields {
		v := r.Values[df.Field]
		switch df.Kind {
		case view.CompareText:
			textFields++
			if v != "" {
				texts = append(texts, v)
			}
			continue
		case view.CompareName:
			if v != "" {
				names = append(names, v)
			}
			continue
		case view.ComparePhone:
			if v != "" {
				phone = v
			}
		}
		if v != "" {
			keys = append(keys, utils.GetXXHash64(string(df.Kind), v))
		}
	}
	if len(names) > 0 {
		tokens := strings.Fields(strings.Join(names, " "))
		sort.Strings(tokens)
		name := strings.Join(tokens, " ")
		keys = append(keys, utils.GetXXHash64("name", name))
		if phone != "" {
			keys = append(keys, utils.GetXXHash64("name-phone", name, lastDigits(phone, phoneShortKeyDigits)))
		}
	}
	// a single low-weight text field would produce oversized blocks
	if textFields > 1 && len(texts) == textFields {
		keys = append(keys, utils.GetXXHash64(append([]string{"text"}, texts...)...))
	}
	return keys
}

// FindCandidates compares every pair sharing a block and returns pairs scoring at least minConfidence,
// ordered by (RecordId1, RecordId2) with RecordId1 < RecordId2.
func FindCandidates(fields []view.DuplicateField, records []ScoringRecord, maxBlockSize int, minConfidence float64) ([]view.DuplicateCandidate, BlockingStats) {
	blocks := make(map[uint64][]int)
	for i, r := range records {
		for _, key := range BlockingKeys(fields, r) {
			blocks[key] = append(blocks[key], i)
		}
	}
	stats := BlockingStats{}
	compared := make(map[[2]string]struct{})
	result := make([]view.DuplicateCandidate, 0)
	for _, members := range blocks {
		if len(members) < 2 {
			continue
		}
		stats.Blocks++
		if maxBlockSize > 0 && len(members) > maxBlockSize {
			stats.SkippedBlocks++
			continue
		}
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				a, b := records[members[x]], records[members[y]]
				if a.Id == b.Id {
					continue
				}
				if b.Id < a.Id {
					a, b = b, a
				}
				pair := [2]string{a.Id, b.Id}
				if _, done := compared[pair]; done {
					continue
				}
				compared[pair] = struct{}{}
				stats.PairsCompared++
				confidence, matchFields := ScorePair(fields, a, b)
				if confidence < minConfidence {
					continue
				}
				result = append(result, view.DuplicateCandidate{
					RecordId1:       a.Id,
					RecordId2:       b.Id,
					ConfidenceScore: confidence,
					MatchFields:     matchFields,
				})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RecordId1 != result[j].RecordId1 {
			return result[i].RecordId1 < result[j].RecordId1
		}
		return result[i].RecordId2 < result[j].RecordId2
	})
	return result, stats
}
