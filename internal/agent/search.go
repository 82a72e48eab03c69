package agent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/tagtrace/internal/types"
)

// commonDomains seeds keyword suggestions.
var commonDomains = []string{
	"AUTH", "USER", "API", "DATA", "PAYMENT", "ORDER", "CONFIG",
	"SEARCH", "NOTIFY", "REPORT", "ADMIN", "SECURITY", "CACHE", "LOG",
}

// KeywordResult is returned by SearchTags.
type KeywordResult struct {
	Keyword         string            `json:"keyword"`
	Tags            []*types.TagEntry `json:"tags"`
	Total           int               `json:"total"`
	Recommendations []ReuseSuggestion `json:"recommendations,omitempty"`
	Suggestions     []string          `json:"suggestions,omitempty"`
	Elapsed         time.Duration     `json:"elapsed"`
}

// SearchTags finds tags related to keyword. A tag matches when its id
// contains the keyword, its type equals the keyword, one of its files
// contains the keyword (only when the keyword looks like a path), or its
// domain is similar to the keyword.
func (a *Agent) SearchTags(ctx context.Context, keyword string) (*KeywordResult, error) {
	start := time.Now()
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil, fmt.Errorf("keyword is required")
	}
	upper := strings.ToUpper(kw)

	queries := []types.TagQuery{{IDPattern: "(?i)" + regexp.QuoteMeta(kw)}}
	if t := types.TagType(upper); t.IsValid() {
		queries = append(queries, types.TagQuery{Types: []types.TagType{t}})
	}
	if strings.ContainsAny(kw, "/.") {
		queries = append(queries, types.TagQuery{FilePath: kw})
	}

	found := make(map[string]*types.TagEntry)
	for _, q := range queries {
		r, err := a.store.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		for _, t := range r.Tags {
			found[t.ID] = t
		}
	}

	tags, ids, err := a.allTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	for _, t := range tags {
		if _, ok := found[t.ID]; ok {
			continue
		}
		if Similarity(upper, types.DomainStem(t.ID)) > searchMatchThreshold {
			found[t.ID] = t
		}
	}

	res := &KeywordResult{
		Keyword:         kw,
		Tags:            make([]*types.TagEntry, 0, len(found)),
		Recommendations: capSuggestions(domainMatches(upper, ids, searchShowThreshold, searchReuseThreshold)),
		Suggestions:     keywordSuggestions(upper),
	}
	for _, t := range found {
		res.Tags = append(res.Tags, t)
	}
	sort.Slice(res.Tags, func(i, j int) bool { return res.Tags[i].ID < res.Tags[j].ID })
	res.Total = len(res.Tags)
	if res.Total == 0 {
		res.Suggestions = append(res.Suggestions, fmt.Sprintf("no tags found; create one with `tt chain %s`", kw))
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// keywordSuggestions proposes type names and common domains related to kw.
func keywordSuggestions(kw string) []string {
	var out []string
	for _, t := range types.AllTypes {
		name := string(t)
		if name == kw {
			continue
		}
		if strings.Contains(name, kw) || (len(name) > 2 && strings.Contains(kw, name)) {
			out = append(out, fmt.Sprintf("type %s", name))
		}
	}
	for _, d := range commonDomains {
		if d == kw {
			continue
		}
		if strings.HasPrefix(d, kw) || Similarity(kw, d) > searchShowThreshold {
			out = append(out, fmt.Sprintf("domain %s", d))
		}
	}
	return out
}
