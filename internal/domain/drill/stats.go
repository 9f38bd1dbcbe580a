package drill

import "math"

// ═══════════════════════════════════════════════════════════════════════════
// STATISTICS AGGREGATOR
// ═══════════════════════════════════════════════════════════════════════════

// BestRecord is the best session within some slice of history.
type BestRecord struct {
	Score       int
	TimeSeconds float64
	Operation   Operation
	Difficulty  Difficulty
}

// CategoryStats aggregates sessions for one (operation, difficulty) pair.
type CategoryStats struct {
	Operation    Operation
	Difficulty   Difficulty
	SessionCount int
	Best         BestRecord
	AvgAccuracy  float64
}

// Stats is a computed snapshot over an explorer's drill history.
// HasData is false when no sessions exist; all other fields are then zero
// and must not be rendered as records.
type Stats struct {
	HasData      bool
	SessionCount int

	// GlobalBest is the single best session across every category.
	GlobalBest BestRecord

	// AvgAccuracy is the exact mean accuracy across all sessions, kept
	// unrounded for comparisons. AvgAccuracyRounded is the same value
	// rounded to the nearest integer for display.
	AvgAccuracy        float64
	AvgAccuracyRounded float64

	// PerfectCount is the number of full-score sessions.
	PerfectCount int

	Categories []CategoryStats
}

type categoryKey struct {
	op   Operation
	diff Difficulty
}

// Compute aggregates a full session history into a Stats snapshot.
// Sessions compete on score first, then on lower time as the tie-break:
// a slow perfect run still beats a fast imperfect one.
func Compute(sessions []*Session) Stats {
	if len(sessions) == 0 {
		return Stats{}
	}

	stats := Stats{
		HasData:      true,
		SessionCount: len(sessions),
	}

	var (
		best     *Session
		accSum   float64
		byCat    = map[categoryKey]*CategoryStats{}
		catBest  = map[categoryKey]*Session{}
		catOrder []categoryKey
		catAcc   = map[categoryKey]float64{}
	)

	for _, s := range sessions {
		accSum += s.Accuracy
		if s.IsPerfect() {
			stats.PerfectCount++
		}
		if best == nil || best.BeatenBy(s) {
			best = s
		}

		key := categoryKey{op: s.Operation, diff: s.Difficulty}
		cat, ok := byCat[key]
		if !ok {
			cat = &CategoryStats{Operation: s.Operation, Difficulty: s.Difficulty}
			byCat[key] = cat
			catOrder = append(catOrder, key)
		}
		cat.SessionCount++
		catAcc[key] += s.Accuracy
		if cb, ok := catBest[key]; !ok || cb.BeatenBy(s) {
			catBest[key] = s
		}
	}

	stats.GlobalBest = recordOf(best)
	stats.AvgAccuracy = accSum / float64(len(sessions))
	stats.AvgAccuracyRounded = math.Round(stats.AvgAccuracy)

	// First-seen order keeps the breakdown stable across recomputations
	// of the same history.
	for _, key := range catOrder {
		cat := byCat[key]
		cat.Best = recordOf(catBest[key])
		cat.AvgAccuracy = catAcc[key] / float64(cat.SessionCount)
		stats.Categories = append(stats.Categories, *cat)
	}

	return stats
}

// BestPerOperation maps each operation to its best session, ignoring
// difficulty. Operations never drilled are absent from the map.
func BestPerOperation(sessions []*Session) map[Operation]BestRecord {
	best := map[Operation]*Session{}
	for _, s := range sessions {
		if cb, ok := best[s.Operation]; !ok || cb.BeatenBy(s) {
			best[s.Operation] = s
		}
	}

	out := make(map[Operation]BestRecord, len(best))
	for op, s := range best {
		out[op] = recordOf(s)
	}
	return out
}

// MaxConsecutivePerfect returns the longest run of full-score sessions
// in chronological order of the given history.
func MaxConsecutivePerfect(sessions []*Session) int {
	longest, run := 0, 0
	for _, s := range sessions {
		if s.IsPerfect() {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

func recordOf(s *Session) BestRecord {
	return BestRecord{
		Score:       s.Score,
		TimeSeconds: s.TimeSeconds,
		Operation:   s.Operation,
		Difficulty:  s.Difficulty,
	}
}
