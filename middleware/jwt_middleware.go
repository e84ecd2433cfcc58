// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/services"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

var (
	ErrWrongTokenType = errors.New("wrong token type")
	ErrTokenRevoked   = errors.New("token has been revoked")
)

// JwtCustomClaims for JWT token. Id (jti) names the token in the token store.
type JwtCustomClaims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.StandardClaims
}

// TokenIssuer signs, verifies, rotates and revokes token pairs.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      services.TokenStore
	now        func() time.Time
}

func NewTokenIssuer(cfg config.AppConfig, store services.TokenStore) *TokenIssuer {
	if cfg.JWTSecret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return &TokenIssuer{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		store:      store,
		now:        time.Now,
	}
}

func (t *TokenIssuer) sign(userID, email, role, tokenType string, ttl time.Duration) (string, string, time.Time, error) {
	now := t.now()
	expires := now.Add(ttl)
	jti := uuid.New().String()
	claims := &JwtCustomClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			Id:        jti,
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expires.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, jti, expires, nil
}

// Issue creates an access and refresh token and registers the refresh session.
func (t *TokenIssuer) Issue(ctx context.Context, userID, email, role string) (*models.TokenPair, error) {
	access, _, accessExp, err := t.sign(userID, email, role, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, jti, refreshExp, err := t.sign(userID, email, role, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := t.store.SaveSession(ctx, jti, userID, t.refreshTTL); err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Parse verifies signature, expiry and token type.
func (t *TokenIssuer) Parse(tokenString, tokenType string) (*JwtCustomClaims, error) {
	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// Rotate exchanges a live refresh token for a new pair. The old session is
// revoked so a refresh token works once.
func (t *TokenIssuer) Rotate(ctx context.Context, refreshToken string) (*models.TokenPair, *JwtCustomClaims, error) {
	claims, err := t.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, nil, err
	}
	live, err := t.store.SessionExists(ctx, claims.Id)
	if err != nil {
		return nil, nil, err
	}
	if !live {
		return nil, nil, ErrTokenRevoked
	}
	if err := t.store.RevokeSession(ctx, claims.Id); err != nil {
		return nil, nil, err
	}
	pair, err := t.Issue(ctx, claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// Revoke blacklists an access token for its remaining lifetime and ends the
// refresh session, when given.
func (t *TokenIssuer) Revoke(ctx context.Context, access *JwtCustomClaims, refreshToken string) error {
	if access != nil {
		remaining := time.Unix(access.ExpiresAt, 0).Sub(t.now())
		if err := t.store.Blacklist(ctx, access.Id, remaining); err != nil {
			return err
		}
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := t.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil
	}
	return t.store.RevokeSession(ctx, claims.Id)
}

// Middleware authenticates requests from the Authorization header, the access
// cookie or the token query parameter used by websocket clients.
func (t *TokenIssuer) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		TokenLookup: "header:Authorization,cookie:" + AccessCookie + ",query:token",
		AuthScheme:  "Bearer",
		ParseTokenFunc: func(auth string, c echo.Context) (interface{}, error) {
			claims, err := t.Parse(auth, TokenTypeAccess)
			if err != nil {
				return nil, err
			}
			revoked, err := t.store.IsBlacklisted(c.Request().Context(), claims.Id)
			if err != nil {
				log.Printf("Token blacklist lookup failed: %v", err)
				return nil, err
			}
			if revoked {
				return nil, ErrTokenRevoked
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			claims := c.Get("user").(*JwtCustomClaims)
			c.Set("userId", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("email", claims.Email)
		},
		ErrorHandler: func(err error) error {
			if errors.Is(err, ErrTokenRevoked) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token has been revoked")
			}
			if errors.Is(err, middleware.ErrJWTMissing) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication token")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		},
	})
}

// GetClaims returns the claims stored by Middleware.
func GetClaims(c echo.Context) *JwtCustomClaims {
	claims, _ := c.Get("user").(*JwtCustomClaims)
	return claims
}

// CurrentUserID returns the authenticated account id.
func CurrentUserID(c echo.Context) (primitive.ObjectID, error) {
	id, _ := c.Get("userId").(string)
	return primitive.ObjectIDFromHex(id)
}

// CurrentRole returns the authenticated account role.
func CurrentRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// SetAuthCookies stores both tokens as HTTP-only cookies.
func SetAuthCookies(c echo.Context, pair *models.TokenPair, secure bool) {
	c.SetCookie(authCookie(AccessCookie, pair.AccessToken, pair.AccessExpiresAt, secure))
	c.SetCookie(authCookie(RefreshCookie, pair.RefreshToken, pair.RefreshExpiresAt, secure))
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(c echo.Context, secure bool) {
	expired := time.Unix(0, 0)
	c.SetCookie(authCookie(AccessCookie, "", expired, secure))
	c.SetCookie(authCookie(RefreshCookie, "", expired, secure))
}

func authCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	return cookie
}
