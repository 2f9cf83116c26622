package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func countResponse(ns string, n int32) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func voterResponse(id primitive.ObjectID, role models.Role, isVoted bool) bson.D {
	return mtest.CreateCursorResponse(0, "voting.users", mtest.FirstBatch, bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ann"},
		{Key: "email", Value: "ann@example.com"},
		{Key: "role", Value: string(role)},
		{Key: "isVoted", Value: isVoted},
	})
}

func updateResponse(matched int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: matched},
	)
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func TestCastVoteMock(t *testing.T) {
	mt := newMock(t)
	candidateID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	mt.Run("records vote", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(
			countResponse("voting.candidates", 1),
			voterResponse(userID, models.RoleVoter, false),
			updateResponse(1),
			updateResponse(1),
		)

		require.NoError(t, store.CastVote(context.Background(), candidateID.Hex(), userID.Hex()))
		assert.Equal(t, []string{"aggregate", "find", "update", "update"}, commandNames(mt))

		claim := mt.GetAllStartedEvents()[2].Command
		set := claim.Lookup("updates", "0", "u", "$set").Document()
		assert.True(t, set.Lookup("isVoted").Boolean())
		assert.Equal(t, candidateID, set.Lookup("votedFor").ObjectID())
		filter := claim.Lookup("updates", "0", "q").Document()
		assert.False(t, filter.Lookup("isVoted").Boolean())
	})

	mt.Run("lost compare-and-set is already voted", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(
			countResponse("voting.candidates", 1),
			voterResponse(userID, models.RoleVoter, false),
			updateResponse(0),
		)

		err := store.CastVote(context.Background(), candidateID.Hex(), userID.Hex())
		assert.ErrorIs(t, err, models.ErrAlreadyVoted)
		assert.Equal(t, []string{"aggregate", "find", "update"}, commandNames(mt), "candidate must not be touched")
	})

	mt.Run("already voted", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(
			countResponse("voting.candidates", 1),
			voterResponse(userID, models.RoleVoter, true),
		)

		err := store.CastVote(context.Background(), candidateID.Hex(), userID.Hex())
		assert.ErrorIs(t, err, models.ErrAlreadyVoted)
	})

	mt.Run("admin", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(
			countResponse("voting.candidates", 1),
			voterResponse(userID, models.RoleAdmin, false),
		)

		err := store.CastVote(context.Background(), candidateID.Hex(), userID.Hex())
		assert.ErrorIs(t, err, models.ErrAdminCannotVote)
	})

	mt.Run("unknown candidate", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(countResponse("voting.candidates", 0))

		err := store.CastVote(context.Background(), candidateID.Hex(), userID.Hex())
		assert.ErrorIs(t, err, models.ErrCandidateNotFound)
	})

	mt.Run("malformed ids", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		ctx := context.Background()

		assert.ErrorIs(t, store.CastVote(ctx, "nope", userID.Hex()), models.ErrCandidateNotFound)
		_, err := store.GetCandidateByID(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrCandidateNotFound)
		assert.Empty(t, mt.GetAllStartedEvents())
	})

	mt.Run("candidate write fails after claim", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(
			countResponse("voting.candidates", 1),
			voterResponse(userID, models.RoleVoter, false),
			updateResponse(1),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 8000, Message: "write failed", Name: "AtlasError"}),
		)

		err := store.CastVote(context.Background(), candidateID.Hex(), userID.Hex())
		require.Error(t, err)
		assert.False(t, errors.Is(err, models.ErrAlreadyVoted))
	})
}

func TestUpdateCandidateMock(t *testing.T) {
	mt := newMock(t)
	id := primitive.NewObjectID()
	stored := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "A"},
		{Key: "party", Value: "X"},
		{Key: "age", Value: int32(40)},
		{Key: "votes", Value: bson.A{}},
		{Key: "voteCount", Value: int32(0)},
	}

	mt.Run("sets only patched fields", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		updated := append(bson.D{}, stored...)
		updated[2] = bson.E{Key: "party", Value: "Y"}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "voting.candidates", mtest.FirstBatch, stored),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: updated}),
		)

		party := "  Y "
		got, err := store.UpdateCandidate(context.Background(), id.Hex(), models.CandidatePatch{Party: &party})
		require.NoError(t, err)
		assert.Equal(t, "Y", got.Party)
		assert.Equal(t, "A", got.Name)

		events := mt.GetAllStartedEvents()
		require.Len(t, events, 2)
		assert.Equal(t, "findAndModify", events[1].CommandName)
		set := events[1].Command.Lookup("update", "$set").Document()
		elems, err := set.Elements()
		require.NoError(t, err)
		require.Len(t, elems, 1)
		assert.Equal(t, "party", elems[0].Key())
		assert.Equal(t, "Y", elems[0].Value().StringValue())
	})

	mt.Run("invalid merge is rejected before writing", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "voting.candidates", mtest.FirstBatch, stored))

		empty := ""
		_, err := store.UpdateCandidate(context.Background(), id.Hex(), models.CandidatePatch{Name: &empty})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		assert.Equal(t, []string{"find"}, commandNames(mt))
	})

	mt.Run("empty patch writes nothing", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "voting.candidates", mtest.FirstBatch, stored))

		got, err := store.UpdateCandidate(context.Background(), id.Hex(), models.CandidatePatch{})
		require.NoError(t, err)
		assert.Equal(t, "X", got.Party)
		assert.Equal(t, []string{"find"}, commandNames(mt))
	})
}

func TestPatchFields(t *testing.T) {
	merged := models.Candidate{Name: "A", Party: "Y", Age: 41}
	age := 41
	party := " Y"

	assert.Equal(t, bson.M{"party": "Y", "age": 41}, patchFields(models.CandidatePatch{Party: &party, Age: &age}, merged))
	assert.Empty(t, patchFields(models.CandidatePatch{}, merged))
}

func TestUserStoreMock(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate email", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		_, err := store.CreateUser(context.Background(), models.SignupPayload{
			Name: "Ann", Email: "ann@example.com", Password: "password1",
		})
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})

	mt.Run("second admin", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(countResponse("voting.users", 1))

		_, err := store.CreateUser(context.Background(), models.SignupPayload{
			Name: "Root", Email: "root@example.com", Password: "password1", Role: models.RoleAdmin,
		})
		assert.ErrorIs(t, err, models.ErrAdminExists)
	})

	mt.Run("role check fails closed", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		assert.False(t, store.HasRole(context.Background(), primitive.NewObjectID().Hex(), models.RoleAdmin))
		assert.False(t, store.HasRole(context.Background(), "not-hex", models.RoleAdmin))
	})

	mt.Run("login", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		hash, err := auth.HashPassword("password1")
		require.NoError(t, err)
		doc := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "name", Value: "Ann"},
			{Key: "email", Value: "ann@example.com"},
			{Key: "role", Value: "voter"},
			{Key: "password", Value: hash},
			{Key: "createdAt", Value: time.Now().UTC()},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "voting.users", mtest.FirstBatch, doc),
			mtest.CreateCursorResponse(0, "voting.users", mtest.FirstBatch, doc),
		)

		user, err := store.AuthenticateUser(context.Background(), " Ann@Example.com ", "password1")
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", user.Email)

		_, err = store.AuthenticateUser(context.Background(), "ann@example.com", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestFindUncountedVotesMock(t *testing.T) {
	mt := newMock(t)

	mt.Run("maps rows", func(mt *mtest.T) {
		store := NewCandidateStore(mt.DB)
		userID := primitive.NewObjectID()
		candidateID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "voting.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: userID},
			{Key: "votedFor", Value: candidateID},
		}))

		got, err := store.FindUncountedVotes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []models.UncountedVote{{UserID: userID.Hex(), CandidateID: candidateID.Hex()}}, got)

		events := mt.GetAllStartedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "aggregate", events[0].CommandName)
		assert.Equal(t, usersCollection, events[0].Command.Lookup("aggregate").StringValue())
	})
}
