package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/voting-be/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DriftFinder reports candidates whose vote counter disagrees with their voter
// list, and voters whose vote never reached their candidate.
type DriftFinder interface {
	FindVoteCountDrift(ctx context.Context) ([]models.VoteCountDrift, error)
	FindUncountedVotes(ctx context.Context) ([]models.UncountedVote, error)
}

// EventRecorder appends entries to the activity log.
type EventRecorder interface {
	CreateEvent(ctx context.Context, eventType, level, message string, candidateID *string) error
}

// Reconciler periodically checks that every candidate's vote count matches
// its voter list and that every recorded voter was counted, and reports any
// mismatch.
type Reconciler struct {
	finder  DriftFinder
	events  EventRecorder
	cron    *cron.Cron
	timeout time.Duration
}

// NewReconciler creates a Reconciler running on the standard cron spec.
// events may be nil.
func NewReconciler(finder DriftFinder, events EventRecorder, spec string) (*Reconciler, error) {
	r := &Reconciler{
		finder:  finder,
		events:  events,
		cron:    cron.New(),
		timeout: 30 * time.Second,
	}
	if _, err := r.cron.AddFunc(spec, func() { r.Check(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	return r, nil
}

// Run starts the schedule in the background.
func (r *Reconciler) Run() {
	log.Info().Msg("Starting vote count reconciler...")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
	log.Info().Msg("Stopped vote count reconciler.")
}

// Report is the outcome of one reconciliation pass.
type Report struct {
	Drift     []models.VoteCountDrift
	Uncounted []models.UncountedVote
}

// Check runs one pass and returns what it found. A failing query is logged
// and leaves its part of the report empty.
func (r *Reconciler) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var report Report
	drift, err := r.finder.FindVoteCountDrift(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Reconciler: failed to check vote counts")
		drift = nil
	}
	for _, d := range drift {
		log.Warn().
			Str("candidate_id", d.CandidateID).
			Int("vote_count", d.VoteCount).
			Int("voters", d.Voters).
			Msg("Reconciler: vote count does not match voter list")
		r.record(ctx, models.EventVoteCountDrift, d.CandidateID,
			fmt.Sprintf("Vote count %d does not match %d recorded voters", d.VoteCount, d.Voters))
	}
	report.Drift = drift

	uncounted, err := r.finder.FindUncountedVotes(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Reconciler: failed to check voters")
		uncounted = nil
	}
	for _, u := range uncounted {
		log.Warn().
			Str("candidate_id", u.CandidateID).
			Str("user_id", u.UserID).
			Msg("Reconciler: user is marked as voted but the vote was not counted")
		r.record(ctx, models.EventVoteUncounted, u.CandidateID, "A voter is marked as voted but the vote was not counted")
	}
	report.Uncounted = uncounted
	return report
}

func (r *Reconciler) record(ctx context.Context, eventType, candidateID, msg string) {
	if r.events == nil {
		return
	}
	if err := r.events.CreateEvent(ctx, eventType, models.LevelWarning, msg, &candidateID); err != nil {
		log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Reconciler: failed to record event")
	}
}
