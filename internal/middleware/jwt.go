package middleware

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

var (
	errInvalidSubject = errors.New("subject is not a positive whole number")
	maxStaffID        = float64(math.MaxUint32)
	staffIDClaims     = []string{"sub", "user_id", "id"}
	staffRoleClaims   = []string{"role", "roles"}
	signingMethods    = []string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}
)

// JWTProtected verifies the HMAC-signed staff bearer token and stores the
// staff id and role in the request locals. A role outside admin, teacher and
// bursar is dropped so RequireIdentity rejects the request.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods(signingMethods))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "staff token required")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		if userID := extractUserIDFromClaims(claims); userID != nil {
			c.Locals("user_id", *userID)
		}
		if role := extractUserRoleFromClaims(claims); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	for _, key := range staffIDClaims {
		value, ok := claims[key]
		if !ok {
			continue
		}
		if id, err := normalizeUserID(value); err == nil {
			return &id
		}
	}
	return nil
}

// normalizeUserID accepts a staff id encoded as a JSON number or a decimal
// string. Zero, negative, fractional and out of range values are rejected.
func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 1 || v > maxStaffID || v != math.Trunc(v) {
			return 0, errInvalidSubject
		}
		return uint(v), nil
	case int:
		if v < 1 || float64(v) > maxStaffID {
			return 0, errInvalidSubject
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil || parsed == 0 {
			return 0, errInvalidSubject
		}
		return uint(parsed), nil
	default:
		return 0, errInvalidSubject
	}
}

// extractUserRoleFromClaims returns the first staff role named by the role
// or roles claim.
func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	for _, key := range staffRoleClaims {
		switch v := claims[key].(type) {
		case string:
			if role := staffRole(v); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				name, ok := item.(string)
				if !ok {
					continue
				}
				if role := staffRole(name); role != "" {
					return role
				}
			}
		}
	}
	return ""
}

func staffRole(name string) string {
	switch role := strings.ToLower(strings.TrimSpace(name)); role {
	case RoleAdmin, RoleTeacher, RoleBursar:
		return role
	default:
		return ""
	}
}
