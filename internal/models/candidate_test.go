package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatePayloadValidate(t *testing.T) {
	p := CandidatePayload{Name: "  A ", Party: " X"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "A", p.Name)
	assert.Equal(t, "X", p.Party)

	for name, bad := range map[string]CandidatePayload{
		"missing name":  {Party: "X"},
		"missing party": {Name: "A", Party: "   "},
		"negative age":  {Name: "A", Party: "X", Age: -1},
	} {
		t.Run(name, func(t *testing.T) {
			err := bad.Validate()
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestCandidatePatchApply(t *testing.T) {
	c := Candidate{Name: "A", Party: "X", Age: 40}

	party := "Y"
	require.NoError(t, CandidatePatch{Party: &party}.Apply(&c))
	assert.Equal(t, "A", c.Name)
	assert.Equal(t, "Y", c.Party)
	assert.Equal(t, 40, c.Age)

	empty := " "
	err := CandidatePatch{Name: &empty}.Apply(&c)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignupPayload(t *testing.T) {
	p := SignupPayload{Name: "Ann", Email: " Ann@Example.COM ", Password: "secret1"}
	p.Normalize()
	require.NoError(t, p.Validate())
	assert.Equal(t, "ann@example.com", p.Email)
	assert.Equal(t, RoleVoter, p.Role)

	p.Role = "superuser"
	assert.ErrorIs(t, p.Validate(), ErrInvalidInput)

	p.Role = RoleAdmin
	p.Password = "123"
	assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
}
