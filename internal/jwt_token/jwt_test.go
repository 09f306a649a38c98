package jwttoken

import (
	"testing"
	"time"

	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")

func operator() domain.Actor {
	return domain.Actor{
		UserID: domain.UserID(uuid.New()),
		Email:  "secretaria@igreja.org",
		Role:   domain.RoleOperator,
	}
}

func Test_GenerateAndValidate_Operator(t *testing.T) {
	actor := operator()
	token, err := jwtService.GenerateToken(actor, time.Hour)
	require.NoError(t, err)

	got, err := jwtService.ValidateActor(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func Test_GenerateAndValidate_Subject(t *testing.T) {
	actor := domain.Actor{
		Email:     "membro@example.org",
		Role:      domain.RoleSubject,
		SubjectID: domain.NewSubjectID(),
	}
	token, err := jwtService.GenerateToken(actor, time.Hour)
	require.NoError(t, err)

	got, err := jwtService.ValidateActor(token)
	require.NoError(t, err)
	assert.True(t, got.SelfService())
	assert.Equal(t, actor.SubjectID, got.SubjectID)
	assert.Nil(t, got.ActorUserID())
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateToken(operator(), -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", err.Error())
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService("test-signing-key", "someone-else")
	token, err := other.GenerateToken(operator(), time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ClaimsActor(t *testing.T) {
	tests := []struct {
		name    string
		claims  Claims
		wantErr bool
	}{
		{"operator without user id", Claims{Role: "operator"}, true},
		{"subject without subject id", Claims{Role: "subject"}, true},
		{"unknown role", Claims{Role: "root", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}, true},
		{"admin", Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.claims.Actor()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
