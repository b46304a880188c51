package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Dosada05/scoreboard/models"
	"github.com/golang-jwt/jwt/v4"
)

// Имена claims в токенах внешнего провайдера
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

var errNoClaims = errors.New("user claims not found in context or invalid type")

// GetUserIDFromContext возвращает user_id судьи. Провайдер выдает его числом JSON.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errNoClaims
	}

	raw, ok := claims[jwtClaimUserID].(float64)
	if !ok {
		return 0, fmt.Errorf("missing or non-numeric '%s' claim in token", jwtClaimUserID)
	}
	if raw != math.Trunc(raw) || raw <= 0 || raw > math.MaxInt32 {
		return 0, fmt.Errorf("invalid user ID value in '%s' claim: %v", jwtClaimUserID, raw)
	}
	return int(raw), nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", fmt.Errorf("missing or non-string '%s' claim in token", jwtClaimRole)
	}

	role := models.UserRole(roleStr)
	if !role.Valid() {
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
	return role, nil
}
