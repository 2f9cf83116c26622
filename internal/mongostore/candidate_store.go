package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/voting-be/internal/models"
	"github.com/isdelr/voting-be/internal/services"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CandidateStore implements services.CandidateServiceProvider on MongoDB.
//
// Each candidate document embeds its voter list, so appending a voter and
// incrementing voteCount happen in one atomic document update.
type CandidateStore struct {
	candidates *mongo.Collection
	users      *mongo.Collection
}

var _ services.CandidateServiceProvider = (*CandidateStore)(nil)

// NewCandidateStore creates a CandidateStore backed by db.
func NewCandidateStore(db *mongo.Database) *CandidateStore {
	return &CandidateStore{
		candidates: db.Collection(candidatesCollection),
		users:      db.Collection(usersCollection),
	}
}

func candidateNotFound(id string) error {
	return fmt.Errorf("%w: %s", models.ErrCandidateNotFound, id)
}

// CreateCandidate validates the payload and inserts a candidate with no votes.
func (s *CandidateStore) CreateCandidate(ctx context.Context, payload models.CandidatePayload) (models.Candidate, error) {
	if err := payload.Validate(); err != nil {
		return models.Candidate{}, err
	}
	doc := candidateDoc{
		Name:      payload.Name,
		Party:     payload.Party,
		Age:       payload.Age,
		Votes:     []voteDoc{},
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.candidates.InsertOne(ctx, doc)
	if err != nil {
		return models.Candidate{}, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.Candidate{}, fmt.Errorf("unexpected inserted id %v", res.InsertedID)
	}
	doc.ID = oid
	return doc.model(), nil
}

// GetCandidateByID retrieves a candidate with its voter list.
func (s *CandidateStore) GetCandidateByID(ctx context.Context, id string) (models.Candidate, error) {
	oid, ok := objectID(id)
	if !ok {
		return models.Candidate{}, candidateNotFound(id)
	}
	var doc candidateDoc
	err := s.candidates.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Candidate{}, candidateNotFound(id)
	}
	if err != nil {
		return models.Candidate{}, err
	}
	return doc.model(), nil
}

// ListCandidates returns every candidate without voter identities.
func (s *CandidateStore) ListCandidates(ctx context.Context) ([]models.CandidateSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"votes": 0})
	cursor, err := s.candidates.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []candidateDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	list := make([]models.CandidateSummary, 0, len(docs))
	for _, d := range docs {
		list = append(list, models.CandidateSummary{
			ID: d.ID.Hex(), Name: d.Name, Party: d.Party, Age: d.Age, VoteCount: d.VoteCount,
		})
	}
	return list, nil
}

// UpdateCandidate applies a partial update, re-validating the merged record.
// Only the fields named by patch are written, so concurrent updates to
// other fields are kept.
func (s *CandidateStore) UpdateCandidate(ctx context.Context, id string, patch models.CandidatePatch) (models.Candidate, error) {
	current, err := s.GetCandidateByID(ctx, id)
	if err != nil {
		return models.Candidate{}, err
	}
	if err := patch.Apply(&current); err != nil {
		return models.Candidate{}, err
	}
	set := patchFields(patch, current)
	if len(set) == 0 {
		return current, nil
	}

	oid, _ := objectID(id)
	update := bson.M{"$set": set}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc candidateDoc
	err = s.candidates.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Candidate{}, candidateNotFound(id)
	}
	if err != nil {
		return models.Candidate{}, err
	}
	return doc.model(), nil
}

// patchFields builds the $set document for the fields patch names, using the
// trimmed values from the merged record.
func patchFields(patch models.CandidatePatch, merged models.Candidate) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = merged.Name
	}
	if patch.Party != nil {
		set["party"] = merged.Party
	}
	if patch.Age != nil {
		set["age"] = merged.Age
	}
	return set
}

// DeleteCandidate removes a candidate and returns the deleted record.
func (s *CandidateStore) DeleteCandidate(ctx context.Context, id string) (models.Candidate, error) {
	oid, ok := objectID(id)
	if !ok {
		return models.Candidate{}, candidateNotFound(id)
	}
	var doc candidateDoc
	err := s.candidates.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Candidate{}, candidateNotFound(id)
	}
	if err != nil {
		return models.Candidate{}, err
	}
	return doc.model(), nil
}

// CastVote records userID's vote for candidateID.
//
// The user's isVoted flag is claimed with a compare-and-set before the
// candidate is touched, so concurrent requests from one user cannot both be
// counted. The claim also stores the chosen candidate in votedFor. If the
// candidate write then fails the user stays marked as voted without a counted
// vote; that outcome is logged here and reported by FindUncountedVotes.
func (s *CandidateStore) CastVote(ctx context.Context, candidateID, userID string) error {
	candidateOID, ok := objectID(candidateID)
	if !ok {
		return candidateNotFound(candidateID)
	}
	n, err := s.candidates.CountDocuments(ctx, bson.M{"_id": candidateOID})
	if err != nil {
		return err
	}
	if n == 0 {
		return candidateNotFound(candidateID)
	}

	userOID, ok := objectID(userID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, userID)
	}
	var user userDoc
	err = s.users.FindOne(ctx, bson.M{"_id": userOID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, userID)
	}
	if err != nil {
		return err
	}
	if models.Role(user.Role) == models.RoleAdmin {
		return models.ErrAdminCannotVote
	}
	if user.IsVoted {
		return models.ErrAlreadyVoted
	}

	claim, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userOID, "isVoted": false, "role": bson.M{"$ne": string(models.RoleAdmin)}},
		bson.M{"$set": bson.M{"isVoted": true, "votedFor": candidateOID}})
	if err != nil {
		return err
	}
	if claim.MatchedCount == 0 {
		return models.ErrAlreadyVoted
	}

	res, err := s.candidates.UpdateOne(ctx,
		bson.M{"_id": candidateOID},
		bson.M{
			"$push": bson.M{"votes": voteDoc{User: userOID, VotedAt: time.Now().UTC()}},
			"$inc":  bson.M{"voteCount": 1},
		})
	if err == nil && res.MatchedCount == 0 {
		err = candidateNotFound(candidateID)
	}
	if err != nil {
		log.Error().Err(err).Str("candidate_id", candidateID).Str("user_id", userID).
			Msg("User marked as voted but the vote was not recorded")
		return err
	}

	log.Info().Str("candidate_id", candidateID).Str("user_id", userID).Msg("Vote recorded")
	return nil
}

// GetTally returns party and vote count per candidate, highest count first.
func (s *CandidateStore) GetTally(ctx context.Context) ([]models.TallyEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "voteCount", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"party": 1, "voteCount": 1})
	cursor, err := s.candidates.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []candidateDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tally := make([]models.TallyEntry, 0, len(docs))
	for _, d := range docs {
		tally = append(tally, models.TallyEntry{Party: d.Party, Count: d.VoteCount})
	}
	return tally, nil
}

// FindVoteCountDrift lists candidates whose voteCount differs from len(votes).
func (s *CandidateStore) FindVoteCountDrift(ctx context.Context) ([]models.VoteCountDrift, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"voteCount": 1,
			"voters":    bson.M{"$size": bson.M{"$ifNull": bson.A{"$votes", bson.A{}}}},
		}}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$ne": bson.A{"$voteCount", "$voters"}}}}},
	}
	cursor, err := s.candidates.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID        primitive.ObjectID `bson:"_id"`
		VoteCount int                `bson:"voteCount"`
		Voters    int                `bson:"voters"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	var drift []models.VoteCountDrift
	for _, r := range rows {
		drift = append(drift, models.VoteCountDrift{CandidateID: r.ID.Hex(), VoteCount: r.VoteCount, Voters: r.Voters})
	}
	return drift, nil
}

// FindUncountedVotes lists voters whose chosen candidate still exists but does
// not hold their vote. Voters of deleted candidates are not reported.
func (s *CandidateStore) FindUncountedVotes(ctx context.Context) ([]models.UncountedVote, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isVoted": true, "votedFor": bson.M{"$exists": true}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         candidatesCollection,
			"localField":   "votedFor",
			"foreignField": "_id",
			"as":           "candidate",
		}}},
		{{Key: "$unwind", Value: "$candidate"}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$not": bson.A{
			bson.M{"$in": bson.A{"$_id", bson.M{"$ifNull": bson.A{"$candidate.votes.user", bson.A{}}}}},
		}}}}},
		{{Key: "$project", Value: bson.M{"votedFor": 1}}},
	}
	cursor, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID       primitive.ObjectID `bson:"_id"`
		VotedFor primitive.ObjectID `bson:"votedFor"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	var uncounted []models.UncountedVote
	for _, r := range rows {
		uncounted = append(uncounted, models.UncountedVote{UserID: r.ID.Hex(), CandidateID: r.VotedFor.Hex()})
	}
	return uncounted, nil
}
