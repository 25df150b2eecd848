package session

import (
	"fmt"
	"time"

	"dispatchportal/lib/models"

	"github.com/golang-jwt/jwt/v5"
)

// EncodeSnapshot signs the raw user snapshot as an HS256 JWT so the session
// context can be handed across processes (portal frontend to a companion
// service) without re-fetching the profile.
func EncodeSnapshot(secret string, raw *models.RawUser, ttl time.Duration) (string, error) {
	if raw == nil {
		return "", fmt.Errorf("no user snapshot to encode")
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":            firstNonEmpty(raw.ID, raw.MongoID),
		"primaryRole":    raw.PrimaryRole,
		"secondaryRoles": models.NormalizeSecondaryRolesList(raw.SecondaryRoles),
		"vendorId":       firstNonEmpty(raw.VendorID, raw.VendorNumber),
		"regions":        raw.Regions,
		"username":       raw.Username,
		"name":           raw.Name,
		"email":          raw.Email,
		"exp":            now.Add(ttl).Unix(),
		"iat":            now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign snapshot token: %w", err)
	}
	return signed, nil
}

// DecodeSnapshot verifies a snapshot token and rebuilds the raw user. The
// secondary-roles claim decodes through the same normalization adapter as
// every other upstream shape.
func DecodeSnapshot(secret, tokenString string) (*models.RawUser, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid snapshot token")
	}

	raw := &models.RawUser{
		ID:             claimString(claims, "sub"),
		PrimaryRole:    claimString(claims, "primaryRole"),
		SecondaryRoles: claims["secondaryRoles"],
		VendorID:       claimString(claims, "vendorId"),
		Regions:        claimStrings(claims, "regions"),
		Username:       claimString(claims, "username"),
		Name:           claimString(claims, "name"),
		Email:          claimString(claims, "email"),
	}
	return raw, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimStrings(claims jwt.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
