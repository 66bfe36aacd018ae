package echoapi

import (
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const tokenContextKey = "userToken"

// Claims are the authorization claims transmitted via a JWT minted by the
// upstream; darasa verifies them with the shared secret but never issues
// tokens of its own.
type Claims struct {
	jwt.StandardClaims
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	IsStudent bool   `json:"is_student,omitempty"`
	IsTeacher bool   `json:"is_teacher,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getRawToken returns the bearer token as received, for forwarding upstream.
func getRawToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return auth[len("Bearer "):]
	}
	return ""
}
