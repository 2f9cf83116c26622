package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/rs/zerolog/log"
)

// CandidateServiceProvider defines the interface for candidate and voting services.
type CandidateServiceProvider interface {
	CreateCandidate(ctx context.Context, payload models.CandidatePayload) (models.Candidate, error)
	GetCandidateByID(ctx context.Context, id string) (models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.CandidateSummary, error)
	UpdateCandidate(ctx context.Context, id string, patch models.CandidatePatch) (models.Candidate, error)
	DeleteCandidate(ctx context.Context, id string) (models.Candidate, error)
	CastVote(ctx context.Context, candidateID, userID string) error
	GetTally(ctx context.Context) ([]models.TallyEntry, error)
	FindVoteCountDrift(ctx context.Context) ([]models.VoteCountDrift, error)
	FindUncountedVotes(ctx context.Context) ([]models.UncountedVote, error)
}

// CandidateService provides business logic for candidates and vote casting.
type CandidateService struct {
	db *sql.DB
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(db *sql.DB) *CandidateService {
	return &CandidateService{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// CreateCandidate validates the payload and stores a new candidate with no votes.
func (s *CandidateService) CreateCandidate(ctx context.Context, payload models.CandidatePayload) (models.Candidate, error) {
	if err := payload.Validate(); err != nil {
		return models.Candidate{}, err
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO candidates (id, name, party, age) VALUES (?, ?, ?, ?)",
		id, payload.Name, payload.Party, payload.Age)
	if err != nil {
		return models.Candidate{}, err
	}
	return s.GetCandidateByID(ctx, id)
}

// GetCandidateByID retrieves a candidate together with its ordered voter list.
func (s *CandidateService) GetCandidateByID(ctx context.Context, id string) (models.Candidate, error) {
	return getCandidate(ctx, s.db, id)
}

// ListCandidates returns every candidate without voter identities, in creation order.
func (s *CandidateService) ListCandidates(ctx context.Context) ([]models.CandidateSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, party, age, vote_count FROM candidates ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.CandidateSummary{}
	for rows.Next() {
		var c models.CandidateSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Party, &c.Age, &c.VoteCount); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// UpdateCandidate applies a partial update and re-validates the merged record.
func (s *CandidateService) UpdateCandidate(ctx context.Context, id string, patch models.CandidatePatch) (models.Candidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Candidate{}, err
	}
	defer tx.Rollback()

	candidate, err := getCandidate(ctx, tx, id)
	if err != nil {
		return models.Candidate{}, err
	}
	if err := patch.Apply(&candidate); err != nil {
		return models.Candidate{}, err
	}

	_, err = tx.ExecContext(ctx, "UPDATE candidates SET name = ?, party = ?, age = ? WHERE id = ?",
		candidate.Name, candidate.Party, candidate.Age, id)
	if err != nil {
		return models.Candidate{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Candidate{}, err
	}
	return s.GetCandidateByID(ctx, id)
}

// DeleteCandidate removes a candidate and returns the record as it was before deletion.
// Voters of a deleted candidate keep their has-voted flag.
func (s *CandidateService) DeleteCandidate(ctx context.Context, id string) (models.Candidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Candidate{}, err
	}
	defer tx.Rollback()

	candidate, err := getCandidate(ctx, tx, id)
	if err != nil {
		return models.Candidate{}, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM candidates WHERE id = ?", id); err != nil {
		return models.Candidate{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Candidate{}, err
	}
	return candidate, nil
}

// CastVote records userID's vote for candidateID. The eligibility checks and
// both writes run in one transaction, and the has-voted flag is flipped with a
// conditional update, so a user can never be counted twice.
func (s *CandidateService) CastVote(ctx context.Context, candidateID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM candidates WHERE id = ?", candidateID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", models.ErrCandidateNotFound, candidateID)
	}
	if err != nil {
		return err
	}

	var role string
	var isVoted bool
	err = tx.QueryRowContext(ctx, "SELECT role, is_voted FROM users WHERE id = ?", userID).Scan(&role, &isVoted)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, userID)
	}
	if err != nil {
		return err
	}
	if models.Role(role) == models.RoleAdmin {
		return models.ErrAdminCannotVote
	}
	if isVoted {
		return models.ErrAlreadyVoted
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET is_voted = 1, voted_for = ? WHERE id = ? AND is_voted = 0", candidateID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return models.ErrAlreadyVoted
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO candidate_votes (candidate_id, user_id, voted_at) VALUES (?, ?, ?)",
		candidateID, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyVoted
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE candidates SET vote_count = vote_count + 1 WHERE id = ?", candidateID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Str("candidate_id", candidateID).Str("user_id", userID).Msg("Vote recorded")
	return nil
}

// GetTally returns party and vote count per candidate, highest count first.
// Ties keep creation order.
func (s *CandidateService) GetTally(ctx context.Context) ([]models.TallyEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT party, vote_count FROM candidates ORDER BY vote_count DESC, rowid ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tally := []models.TallyEntry{}
	for rows.Next() {
		var entry models.TallyEntry
		if err := rows.Scan(&entry.Party, &entry.Count); err != nil {
			return nil, err
		}
		tally = append(tally, entry)
	}
	return tally, rows.Err()
}

// FindVoteCountDrift lists candidates whose counter disagrees with their ledger rows.
func (s *CandidateService) FindVoteCountDrift(ctx context.Context) ([]models.VoteCountDrift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.vote_count, COUNT(v.seq)
		FROM candidates c LEFT JOIN candidate_votes v ON v.candidate_id = c.id
		GROUP BY c.id
		HAVING c.vote_count != COUNT(v.seq)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drift []models.VoteCountDrift
	for rows.Next() {
		var d models.VoteCountDrift
		if err := rows.Scan(&d.CandidateID, &d.VoteCount, &d.Voters); err != nil {
			return nil, err
		}
		drift = append(drift, d)
	}
	return drift, rows.Err()
}

// FindUncountedVotes lists voters whose chosen candidate still exists but has
// no ledger row for them. Voters of deleted candidates are not reported.
func (s *CandidateService) FindUncountedVotes(ctx context.Context) ([]models.UncountedVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.voted_for
		FROM users u
		JOIN candidates c ON c.id = u.voted_for
		LEFT JOIN candidate_votes v ON v.user_id = u.id
		WHERE u.is_voted = 1 AND v.seq IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uncounted []models.UncountedVote
	for rows.Next() {
		var u models.UncountedVote
		if err := rows.Scan(&u.UserID, &u.CandidateID); err != nil {
			return nil, err
		}
		uncounted = append(uncounted, u)
	}
	return uncounted, rows.Err()
}

func getCandidate(ctx context.Context, q queryer, id string) (models.Candidate, error) {
	var c models.Candidate
	err := q.QueryRowContext(ctx,
		"SELECT id, name, party, age, vote_count, created_at FROM candidates WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Party, &c.Age, &c.VoteCount, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Candidate{}, fmt.Errorf("%w: %s", models.ErrCandidateNotFound, id)
		}
		return models.Candidate{}, err
	}

	rows, err := q.QueryContext(ctx,
		"SELECT user_id, voted_at FROM candidate_votes WHERE candidate_id = ? ORDER BY seq", id)
	if err != nil {
		return models.Candidate{}, err
	}
	defer rows.Close()

	c.Votes = []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.User, &v.VotedAt); err != nil {
			return models.Candidate{}, err
		}
		c.Votes = append(c.Votes, v)
	}
	return c, rows.Err()
}
