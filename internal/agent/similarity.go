package agent

import (
	"sort"
	"strings"

	"github.com/steveyegge/tagtrace/internal/types"
)

// Similarity thresholds.
const (
	createRecommendThreshold = 0.7
	createReuseThreshold     = 0.8
	searchMatchThreshold     = 0.3
	searchShowThreshold      = 0.5
	searchReuseThreshold     = 0.7
	repairThreshold          = 0.5

	maxSuggestions = 10
)

// ReuseSuggestion recommends an existing tag instead of minting a new one.
type ReuseSuggestion struct {
	ID          string  `json:"id"`
	Similarity  float64 `json:"similarity"`
	ShouldReuse bool    `json:"shouldReuse"`
}

// Similarity is 1 - levenshtein(a, b) / max(len(a), len(b)), compared
// case-insensitively. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToUpper(a))
	rb := []rune(strings.ToUpper(b))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// domainMatches scores domain against the domain stem of every id and keeps
// those strictly above threshold, best first.
func domainMatches(domain string, ids []string, threshold, reuseAt float64) []ReuseSuggestion {
	var out []ReuseSuggestion
	for _, id := range ids {
		sim := Similarity(domain, types.DomainStem(id))
		if sim > threshold {
			out = append(out, ReuseSuggestion{ID: id, Similarity: round2(sim), ShouldReuse: sim > reuseAt})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// mostSimilar returns the id closest to target above threshold, skipping
// exclude. Ties go to the smaller id.
func mostSimilar(target string, ids []string, threshold float64, exclude string) (string, bool) {
	best, bestSim := "", threshold
	for _, id := range ids {
		if id == exclude {
			continue
		}
		sim := Similarity(target, id)
		if sim > bestSim || (sim == bestSim && best != "" && id < best) {
			best, bestSim = id, sim
		}
	}
	return best, best != ""
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func capSuggestions(s []ReuseSuggestion) []ReuseSuggestion {
	if len(s) > maxSuggestions {
		return s[:maxSuggestions]
	}
	return s
}
