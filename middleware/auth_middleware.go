package middleware

import (
	"errors"
	"fmt"

	config "github.com/anjiri1684/tutor_live/configs"
	"github.com/anjiri1684/tutor_live/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidClaims = errors.New("invalid token claims")

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// ParseToken validates an HS256 token outside the HTTP middleware chain, as
// the websocket auth frame needs.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ClaimsIdentity extracts the caller's id and role. "teacher" is accepted as
// the legacy name of the tutor role.
func ClaimsIdentity(claims jwt.MapClaims) (uuid.UUID, models.Role, error) {
	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, "", ErrInvalidClaims
	}

	role, _ := claims["role"].(string)
	switch role {
	case "student":
		return userID, models.RoleStudent, nil
	case "tutor", "teacher":
		return userID, models.RoleTutor, nil
	}
	return uuid.Nil, "", ErrInvalidClaims
}

// Identity returns the authenticated caller of a Protected route.
func Identity(c *fiber.Ctx) (uuid.UUID, models.Role, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, "", ErrInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", ErrInvalidClaims
	}
	return ClaimsIdentity(claims)
}

func requireRole(want models.Role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, err := Identity(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
		}
		if role != want {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": message})
		}
		return c.Next()
	}
}

func TutorRequired() fiber.Handler {
	return requireRole(models.RoleTutor, "Forbidden: Tutor access required")
}

func StudentRequired() fiber.Handler {
	return requireRole(models.RoleStudent, "Forbidden: Student access required")
}
