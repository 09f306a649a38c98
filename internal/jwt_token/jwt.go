package jwttoken

import (
	"errors"
	"time"

	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the actor claims carried by access tokens. Tokens are issued by
// the external identity service; this package validates them and mints
// tokens for tests and local tooling.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SubjectID string `json:"subject_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService validates HS256 actor tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken signs a token for actor that expires after expiresIn.
func (s *JWTService) GenerateToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: actor.Email,
		Role:  string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if !actor.UserID.IsNil() {
		claims.Subject = actor.UserID.String()
	}
	if !actor.SubjectID.IsNil() {
		claims.SubjectID = actor.SubjectID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateActor validates the token and maps its claims to an Actor.
// Operators must carry a user id; subjects must carry a subject id.
func (s *JWTService) ValidateActor(tokenString string) (domain.Actor, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	return claims.Actor()
}

func (c *Claims) Actor() (domain.Actor, error) {
	actor := domain.Actor{Email: c.Email, Role: domain.Role(c.Role)}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleOperator:
		userID, err := domain.ParseUserID(c.Subject)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user id")
		}
		actor.UserID = userID
	case domain.RoleSubject:
		subjectID, err := domain.ParseSubjectID(c.SubjectID)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token carries no subject id")
		}
		actor.SubjectID = subjectID
	default:
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
	return actor, nil
}
