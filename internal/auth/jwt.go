package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/config"
	"github.com/neemfurnitech/procurement-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidScope = errors.New("token missing required scope")
)

// keyCacheTTL bounds how long signing keys are trusted before the JWKS
// endpoint is consulted again. Key rollover at the identity provider is
// picked up on the next cache miss regardless.
const keyCacheTTL = 24 * time.Hour

// JWTValidator verifies RS256 bearer tokens against the identity
// provider's published signing keys.
type JWTValidator struct {
	config *config.OIDCConfig
	client *http.Client

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	refreshedAt time.Time
}

// NewJWTValidator creates a validator for the given OIDC configuration.
func NewJWTValidator(cfg *config.OIDCConfig) *JWTValidator {
	return &JWTValidator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// ValidateToken verifies the token signature and standard claims, then
// builds a UserContext from the identity claims.
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	kid, err := signingKeyID(tokenString)
	if err != nil {
		return nil, err
	}

	publicKey, err := v.signingKey(kid)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if err := v.checkAudience(claims); err != nil {
		return nil, err
	}
	if err := v.checkIssuer(claims); err != nil {
		return nil, err
	}
	if err := v.checkScopes(claims); err != nil {
		return nil, err
	}

	return userFromClaims(claims), nil
}

// signingKeyID reads the kid header without verifying the signature.
func signingKeyID(tokenString string) (string, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing kid in header", ErrInvalidToken)
	}
	return kid, nil
}

func (v *JWTValidator) checkAudience(claims jwt.MapClaims) error {
	if v.config.Audience == "" {
		return nil
	}
	aud, _ := claims.GetAudience()
	for _, a := range aud {
		if a == v.config.Audience || strings.Contains(a, v.config.Audience) {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid audience", ErrInvalidToken)
}

func (v *JWTValidator) checkIssuer(claims jwt.MapClaims) error {
	if v.config.IssuerUrl == "" {
		return nil
	}
	iss, _ := claims.GetIssuer()
	if !strings.HasPrefix(iss, v.config.IssuerUrl) {
		return fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}
	return nil
}

func (v *JWTValidator) checkScopes(claims jwt.MapClaims) error {
	required := strings.TrimSpace(v.config.RequiredScopes)
	if required == "" {
		return nil
	}
	granted := tokenScopes(claims)
	for _, req := range strings.Split(required, ",") {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		for _, scope := range granted {
			if strings.EqualFold(scope, req) {
				return nil
			}
		}
	}
	return ErrInvalidScope
}

// userFromClaims maps identity claims onto a UserContext. Azure AD and
// generic OIDC providers name the claims differently, so each field is
// resolved from a preference list.
func userFromClaims(claims jwt.MapClaims) *UserContext {
	userCtx := &UserContext{
		DisplayName: firstStringClaim(claims, "name", "unique_name", "preferred_username"),
		Email:       firstStringClaim(claims, "email", "upn", "unique_name"),
		Roles:       rolesFromClaims(claims),
	}

	if sub := firstStringClaim(claims, "sub", "oid"); sub != "" {
		if uid, err := uuid.Parse(sub); err == nil {
			userCtx.UserID = uid
		}
	}
	// Providers that issue non-UUID subjects still get a stable identity
	// derived from the email address.
	if userCtx.UserID == uuid.Nil && userCtx.Email != "" {
		userCtx.UserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(userCtx.Email))
	}

	return userCtx
}

func (v *JWTValidator) signingKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, exists := v.keys[kid]
	fresh := time.Since(v.refreshedAt) < keyCacheTTL
	v.mu.RUnlock()
	if exists && fresh {
		return key, nil
	}

	if err := v.refreshKeys(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, exists = v.keys[kid]
	if !exists {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}
	return key, nil
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *JWTValidator) refreshKeys() error {
	jwksURL := v.config.JwksUrl
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(v.config.IssuerUrl, "/") + "/.well-known/jwks.json"
	}

	resp, err := v.client.Get(jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	fresh := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Use != "sig" {
			continue
		}
		pub, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			continue
		}
		fresh[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = fresh
	v.refreshedAt = time.Now()
	v.mu.Unlock()

	return nil
}

// rsaKeyFromJWK assembles an RSA public key from base64url modulus and
// exponent components.
func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	exp := 0
	for _, b := range eBytes {
		exp = exp<<8 + int(b)
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: exp}, nil
}

// firstStringClaim returns the first non-empty string value among the
// named claims.
func firstStringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if str, ok := claims[key].(string); ok && str != "" {
			return str
		}
	}
	return ""
}

func rolesFromClaims(claims jwt.MapClaims) []domain.UserRoleType {
	roles := []domain.UserRoleType{}
	for _, key := range []string{"roles", "role"} {
		val, ok := claims[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case []interface{}:
			for _, r := range v {
				if str, ok := r.(string); ok {
					roles = append(roles, domain.UserRoleType(str))
				}
			}
		case []string:
			for _, str := range v {
				roles = append(roles, domain.UserRoleType(str))
			}
		case string:
			roles = append(roles, domain.UserRoleType(v))
		}
	}
	return roles
}

func tokenScopes(claims jwt.MapClaims) []string {
	scopes := []string{}
	for _, key := range []string{"scp", "scope"} {
		if str, ok := claims[key].(string); ok && str != "" {
			scopes = append(scopes, strings.Split(str, " ")...)
		}
	}
	return scopes
}
