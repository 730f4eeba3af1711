package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/authkit/api/internal/config"
	"github.com/authkit/api/internal/metrics"
	"github.com/authkit/api/internal/model"
	"github.com/authkit/api/internal/store"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type CreateOptions struct {
	// Version of the new lineage; zero means start at 1.
	Version int
	// ExpirationMinutes bounds the record's lifetime; nil means the record
	// never expires by time.
	ExpirationMinutes *int
	// Name labels long-lived tokens created explicitly by a user.
	Name *string
}

type ValidateOptions struct {
	ExpectRefreshToken bool
}

// TokenService owns the token lifecycle: issuance, validation, rotation and
// revocation of paired access/refresh tokens, including reuse detection for
// rotated-out refresh tokens.
type TokenService struct {
	tokens store.AuthTokenStore
	users  store.UserStore
	codec  *Codec

	accessTokenExpiration  time.Duration
	refreshTokenExpiration time.Duration

	now func() time.Time
}

func NewTokenService(tokens store.AuthTokenStore, users store.UserStore, codec *Codec, cfg *config.Config) *TokenService {
	return &TokenService{
		tokens:                 tokens,
		users:                  users,
		codec:                  codec,
		accessTokenExpiration:  cfg.AccessTokenExpiration(),
		refreshTokenExpiration: cfg.RefreshTokenExpiration(),
		now:                    time.Now,
	}
}

// CreateAuthToken persists a new credential lineage for the user.
func (s *TokenService) CreateAuthToken(ctx context.Context, user *model.User, opts CreateOptions) (*model.AuthToken, error) {
	version := opts.Version
	if version == 0 {
		version = 1
	}

	now := s.now()

	var expiresAt *time.Time
	if opts.ExpirationMinutes != nil {
		t := now.Add(time.Duration(*opts.ExpirationMinutes) * time.Minute)
		expiresAt = &t
	}

	token := model.NewAuthToken(user.ID, version, opts.Name, expiresAt, now)

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	return token, nil
}

// BuildTokenPair signs an access/refresh pair against the current state of
// the auth token. The refresh token carries the discriminator claim and the
// longer expiry; the access token gets the short one.
func (s *TokenService) BuildTokenPair(user *model.User, token *model.AuthToken) (TokenPair, error) {
	claims := Claims{
		TokenUUID: token.UUID,
		Version:   token.Version,
	}
	claims.Subject = user.UUID

	accessToken, err := s.codec.Sign(claims, s.accessTokenExpiration)
	if err != nil {
		return TokenPair{}, err
	}

	claims.IsRefreshToken = true
	refreshToken, err := s.codec.Sign(claims, s.refreshTokenExpiration)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// CreateAndBuildTokenPair is the login/sign-up path: new lineage, fresh pair.
func (s *TokenService) CreateAndBuildTokenPair(ctx context.Context, user *model.User) (TokenPair, *model.AuthToken, error) {
	expirationMinutes := int(s.refreshTokenExpiration / time.Minute)

	token, err := s.CreateAuthToken(ctx, user, CreateOptions{ExpirationMinutes: &expirationMinutes})
	if err != nil {
		return TokenPair{}, nil, err
	}

	pair, err := s.BuildTokenPair(user, token)
	if err != nil {
		return TokenPair{}, nil, err
	}

	return pair, token, nil
}

// ValidateToken runs the validation gates in order, each one hard:
// signature, token-kind discriminator, user lookup, record lookup, rotation
// marker, record expiry. A stale marker on a refresh check is treated as
// reuse of a rotated-out token and revokes the whole lineage.
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string, opts ValidateOptions) (*model.User, *model.AuthToken, error) {
	user, token, err := s.validateToken(ctx, tokenString, opts)
	metrics.RecordValidation(err == nil)
	return user, token, err
}

func (s *TokenService) validateToken(ctx context.Context, tokenString string, opts ValidateOptions) (*model.User, *model.AuthToken, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}

	if opts.ExpectRefreshToken != claims.IsRefreshToken {
		return nil, nil, ErrUnauthorized
	}

	user, err := s.users.FindByUUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	token, err := s.tokens.FindByUserAndUUID(ctx, user.ID, claims.TokenUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	if token.Version != claims.Version {
		if opts.ExpectRefreshToken {
			// A rotated-out refresh token came back: someone is replaying a
			// stale credential. Revoke the lineage so neither party can keep
			// using it.
			// TODO: dispatch a security alert in addition to the log line
			log.Printf("[TokenService] refresh token reuse detected for user %s, revoking lineage %s", user.UUID, token.UUID)
			metrics.RecordReuseDetected()

			if err := s.tokens.Delete(ctx, token.ID); err != nil {
				log.Printf("[TokenService] failed to revoke lineage %s: %v", token.UUID, err)
			}
		}

		return nil, nil, ErrUnauthorized
	}

	if token.ExpiresAt != nil && !token.ExpiresAt.After(s.now()) {
		return nil, nil, ErrUnauthorized
	}

	return user, token, nil
}

// RotateTokenPair advances the rotation counter and issues a new pair. The
// store's conditional update makes this single-winner: a concurrent rotation
// of the same lineage fails here with ErrUnauthorized and its stale token
// trips reuse detection on next use.
func (s *TokenService) RotateTokenPair(ctx context.Context, user *model.User, token *model.AuthToken) (TokenPair, error) {
	expiresAt := s.now().Add(s.refreshTokenExpiration)

	if err := s.tokens.Advance(ctx, token, expiresAt); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, err
	}

	return s.BuildTokenPair(user, token)
}

// LogoutToken ends a single session.
func (s *TokenService) LogoutToken(ctx context.Context, token *model.AuthToken) error {
	return s.tokens.Delete(ctx, token.ID)
}

// DeleteAllForUser forces global re-authentication, used when the user's
// credentials change.
func (s *TokenService) DeleteAllForUser(ctx context.Context, user *model.User) error {
	return s.tokens.DeleteAllForUser(ctx, user.ID)
}

// PurgeExpired removes every record whose expiry has passed. Records with a
// nil expiry are never touched.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	metrics.RecordPurgedTokens(count)
	log.Printf("[TokenService] purged expired auth tokens: %d", count)

	return count, nil
}
