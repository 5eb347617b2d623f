// Package model contains domain models passed between layers.
package model

import "time"

// RankingRecord is one student's row in a ranking file.
// Rank is assigned by the aggregator and never read from input.
type RankingRecord struct {
	Name       string  `validate:"required"`
	ExternalID string  `validate:"required"` // the file's "id" column; not necessarily numeric
	Department string  `validate:"required"`
	GPA        float64 // finite; expected within [0, 4] but not enforced
	Rank       int
}

// RankingFile is an uploaded source artifact. It lives only until its
// records have been extracted.
type RankingFile struct {
	FileName   string
	ByteSize   int64
	RawContent string
}

// Session is the explicit ranking state owned by one caller.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Records   []RankingRecord // ranked; Records[i].Rank == i+1
	Batches   int             // accepted import batches
}

// Clone returns a copy of s that shares no slice memory with it.
func (s Session) Clone() Session {
	c := s
	if s.Records != nil {
		c.Records = make([]RankingRecord, len(s.Records))
		copy(c.Records, s.Records)
	}
	return c
}
