package mongostore

import (
	"time"

	"github.com/isdelr/voting-be/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDoc struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Name         string              `bson:"name"`
	Email        string              `bson:"email"`
	Age          int                 `bson:"age,omitempty"`
	Address      string              `bson:"address,omitempty"`
	Role         string              `bson:"role"`
	IsVoted      bool                `bson:"isVoted"`
	VotedFor     *primitive.ObjectID `bson:"votedFor,omitempty"`
	PasswordHash string              `bson:"password"`
	CreatedAt    time.Time           `bson:"createdAt"`
}

func (d userDoc) model() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Age:       d.Age,
		Address:   d.Address,
		Role:      models.Role(d.Role),
		IsVoted:   d.IsVoted,
		CreatedAt: d.CreatedAt,
	}
}

type voteDoc struct {
	User    primitive.ObjectID `bson:"user"`
	VotedAt time.Time          `bson:"votedAt"`
}

type candidateDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Party     string             `bson:"party"`
	Age       int                `bson:"age,omitempty"`
	Votes     []voteDoc          `bson:"votes"`
	VoteCount int                `bson:"voteCount"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d candidateDoc) model() models.Candidate {
	c := models.Candidate{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Party:     d.Party,
		Age:       d.Age,
		Votes:     make([]models.Vote, 0, len(d.Votes)),
		VoteCount: d.VoteCount,
		CreatedAt: d.CreatedAt,
	}
	for _, v := range d.Votes {
		c.Votes = append(c.Votes, models.Vote{User: v.User.Hex(), VotedAt: v.VotedAt})
	}
	return c
}

type eventDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Type        string             `bson:"type"`
	Level       string             `bson:"level"`
	Message     string             `bson:"message"`
	CandidateID *string            `bson:"candidateId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d eventDoc) model() models.Event {
	return models.Event{
		ID:          d.ID.Hex(),
		Type:        d.Type,
		Level:       d.Level,
		Message:     d.Message,
		CandidateID: d.CandidateID,
		CreatedAt:   d.CreatedAt,
	}
}
