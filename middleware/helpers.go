package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/duel-system/models"
	"github.com/golang-jwt/jwt/v4"
)

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errors.New("user claims not found in context or invalid type")
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing %q claim in token", jwtClaimUserID)
	}

	// JSON numbers decode as float64.
	userIDFloat, ok := userIDClaim.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid type for %q claim: expected number, got %T", jwtClaimUserID, userIDClaim)
	}
	if userIDFloat != float64(int(userIDFloat)) {
		return 0, fmt.Errorf("%q claim is not an integer: %f", jwtClaimUserID, userIDFloat)
	}

	userID := int(userIDFloat)
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value in %q claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}

func GetUserTierFromContext(ctx context.Context) (models.SubscriptionTier, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}

	tierClaim, ok := claims[jwtClaimTier]
	if !ok {
		return "", fmt.Errorf("missing %q claim in token", jwtClaimTier)
	}

	tierStr, ok := tierClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for %q claim: expected string, got %T", jwtClaimTier, tierClaim)
	}

	tier := models.SubscriptionTier(tierStr)
	if !tier.Valid() {
		return "", fmt.Errorf("invalid tier value in claim: %q", tierStr)
	}
	return tier, nil
}
