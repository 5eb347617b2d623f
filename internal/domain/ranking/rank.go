package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/unirank/internal/domain/model"
)

// Concat joins per-file record slices in file-processing order. Records are
// not merged by id.
func Concat(files ...[]model.RankingRecord) []model.RankingRecord {
	n := 0
	for _, f := range files {
		n += len(f)
	}
	out := make([]model.RankingRecord, 0, n)
	for _, f := range files {
		out = append(out, f...)
	}
	return out
}

// MergeAndRank returns a copy of records ordered by GPA descending with
// Rank = index+1. The sort is stable: equal GPAs keep their input order and
// still receive distinct consecutive ranks.
func MergeAndRank(records []model.RankingRecord) []model.RankingRecord {
	out := make([]model.RankingRecord, len(records))
	copy(out, records)
	slices.SortStableFunc(out, func(a, b model.RankingRecord) int {
		return cmp.Compare(b.GPA, a.GPA)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
