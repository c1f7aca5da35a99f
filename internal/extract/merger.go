package extract

import "github.com/kbvault/ingestor/pkg/types"

// mergeKey is the dedup key for entities: name and type, with the name
// compared case-sensitively as produced by the extractors.
type mergeKey struct {
	name string
	typ  string
}

// Merge deduplicates and reconciles entities from multiple sources (chunks,
// video frames, audio transcript) into one canonical list. Entities sharing
// a (name, type) key are collapsed into one entity whose mentions are the
// concatenation of all sources' mentions in order of appearance; the first
// non-empty description wins. Output order is first-seen order across the
// inputs.
func Merge(lists ...[]types.Entity) []types.Entity {
	index := make(map[mergeKey]int)
	var merged []types.Entity

	for _, list := range lists {
		for _, e := range list {
			key := mergeKey{name: e.Name, typ: e.Type}
			i, seen := index[key]
			if !seen {
				index[key] = len(merged)
				copied := e
				copied.Mentions = append([]types.Mention(nil), e.Mentions...)
				merged = append(merged, copied)
				continue
			}
			merged[i].Mentions = append(merged[i].Mentions, e.Mentions...)
			if merged[i].Description == "" && e.Description != "" {
				merged[i].Description = e.Description
			}
		}
	}

	return merged
}
