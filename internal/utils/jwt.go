package utils // package utils provides the identity token service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, wrong signature, wrong algorithm or expired.
var ErrInvalidToken = errors.New("invalid token")

// ErrMissingEmail is returned when a claim to be signed carries no email.
var ErrMissingEmail = errors.New("identity claim requires an email")

// IdentityClaim is the payload bound into a token.  Email is mandatory;
// Extra carries any other fields the client asked to have signed.
type IdentityClaim struct {
	Email string
	Extra map[string]any
}

// AccessToken is a signed token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenService issues and verifies HS256 identity tokens.  Verification is
// stateless: only the shared secret and the exp claim are consulted, so a
// token stays valid until it expires even if the user's role changes.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a service signing with secret.  ttl defaults to one
// hour when not positive.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// reserved claims are owned by the service and never copied from Extra.
var reserved = map[string]bool{"email": true, "sub": true, "exp": true, "iat": true, "nbf": true}

// Issue signs claim.  The email is normalized and stored both as "email"
// and "sub".
func (s *TokenService) Issue(claim IdentityClaim) (AccessToken, error) {
	email := strings.ToLower(strings.TrimSpace(claim.Email))
	if email == "" {
		return AccessToken{}, ErrMissingEmail
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	mc := jwt.MapClaims{}
	for k, v := range claim.Extra {
		if !reserved[k] {
			mc[k] = v
		}
	}
	mc["email"] = email
	mc["sub"] = email
	mc["iat"] = now.Unix()
	mc["exp"] = exp.Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks signature and expiry and recovers the signed claim.
func (s *TokenService) Verify(raw string) (IdentityClaim, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return IdentityClaim{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return IdentityClaim{}, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	if email == "" {
		email, _ = mc["sub"].(string)
	}
	if email == "" {
		return IdentityClaim{}, ErrInvalidToken
	}
	extra := make(map[string]any, len(mc))
	for k, v := range mc {
		if !reserved[k] {
			extra[k] = v
		}
	}
	return IdentityClaim{Email: email, Extra: extra}, nil
}
