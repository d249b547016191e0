package usecase

import (
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/jwt"
)

//go:generate mockgen -destination=../testutil/mock/usecase/token_validator_mock.go -package=usecasemock stayhub/internal/usecase TokenValidator

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (user.Identity, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (user.Identity, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return user.Identity{}, err
	}

	role, err := user.NewRole(claims.Role)
	if err != nil {
		return user.Identity{}, err
	}

	return user.Identity{ID: claims.UserID, Role: role}, nil
}
