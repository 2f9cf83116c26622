package models

import (
	"fmt"
	"strings"
	"time"
)

// Candidate is an entry voters can cast their single vote for.
// VoteCount always equals len(Votes).
type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Party     string    `json:"party"`
	Age       int       `json:"age,omitempty"`
	Votes     []Vote    `json:"votes"`
	VoteCount int       `json:"voteCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Vote is one entry of a candidate's voter list, in the order votes were cast.
type Vote struct {
	User    string    `json:"user"`
	VotedAt time.Time `json:"votedAt"`
}

// CandidateSummary is the public listing form of a candidate, without voters.
type CandidateSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Party     string `json:"party"`
	Age       int    `json:"age,omitempty"`
	VoteCount int    `json:"voteCount"`
}

// TallyEntry is one row of the vote count report.
type TallyEntry struct {
	Party string `json:"party"`
	Count int    `json:"count"`
}

// VoteCountDrift describes a candidate whose counter disagrees with its voter list.
type VoteCountDrift struct {
	CandidateID string `json:"candidateId"`
	VoteCount   int    `json:"voteCount"`
	Voters      int    `json:"voters"`
}

// UncountedVote describes a user marked as voted whose vote is missing from
// the candidate they chose.
type UncountedVote struct {
	UserID      string `json:"userId"`
	CandidateID string `json:"candidateId"`
}

// CandidatePayload is the body accepted when creating a candidate.
type CandidatePayload struct {
	Name  string `json:"name"`
	Party string `json:"party"`
	Age   int    `json:"age"`
}

// Validate trims the payload in place and checks required fields.
func (p *CandidatePayload) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Party = strings.TrimSpace(p.Party)
	return validateCandidateFields(p.Name, p.Party, p.Age)
}

// CandidatePatch is a partial update. Nil fields are left untouched.
type CandidatePatch struct {
	Name  *string `json:"name"`
	Party *string `json:"party"`
	Age   *int    `json:"age"`
}

// Apply merges the patch into c and re-validates the result.
func (p CandidatePatch) Apply(c *Candidate) error {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Party != nil {
		c.Party = strings.TrimSpace(*p.Party)
	}
	if p.Age != nil {
		c.Age = *p.Age
	}
	return validateCandidateFields(c.Name, c.Party, c.Age)
}

func validateCandidateFields(name, party string, age int) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case party == "":
		return fmt.Errorf("%w: party is required", ErrInvalidInput)
	case age < 0:
		return fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	return nil
}
