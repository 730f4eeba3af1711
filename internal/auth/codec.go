package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "authkit"

// Claims is the payload shared by access and refresh tokens. The subject is
// the user uuid, TokenUUID points at the backing auth token row and Version
// snapshots the row's rotation counter at signing time. Refresh tokens carry
// IsRefreshToken; access tokens omit the claim entirely.
type Claims struct {
	TokenUUID      string `json:"token"`
	Version        int    `json:"version"`
	IsRefreshToken bool   `json:"isRefreshToken,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the compact tokens. Both token kinds share one
// HS256 secret; the IsRefreshToken claim is what keeps them from being
// interchangeable.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Sign issues a token for the given claims. A zero expiresIn leaves the exp
// claim out, so the token only dies with its backing record.
func (c *Codec) Sign(claims Claims, expiresIn time.Duration) (string, error) {
	now := c.now()

	claims.Issuer = Issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	if expiresIn > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiresIn))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify fails closed: any parse, signature or exp failure comes back as
// ErrInvalidToken with no further detail.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
