// Package types contains common types used across the application
package types

import "github.com/okian/unirank/internal/domain/model"

// Entry is the read shape of one ranked student.
type Entry struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	ExternalID string  `json:"id"`
	Department string  `json:"department"`
	GPA        float64 `json:"gpa"`
}

// FromRecord converts a ranked record to its read shape.
func FromRecord(r model.RankingRecord) Entry {
	return Entry{
		Rank:       r.Rank,
		Name:       r.Name,
		ExternalID: r.ExternalID,
		Department: r.Department,
		GPA:        r.GPA,
	}
}

// FromRecords converts records in order. The result is never nil.
func FromRecords(rs []model.RankingRecord) []Entry {
	out := make([]Entry, len(rs))
	for i, r := range rs {
		out[i] = FromRecord(r)
	}
	return out
}
