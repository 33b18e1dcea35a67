// Package calloutnats implements the broker-native signed credential format:
// nkeys-signed user claims and authorization-response claims exchanged with
// the server during an auth callout.
package calloutnats

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nkeys"
)

var (
	// ErrInvalidTokenFormat indicates the token doesn't have the expected
	// three-part envelope.
	ErrInvalidTokenFormat = errors.New("invalid token format: expected 3 parts")

	// ErrInvalidTokenPayload indicates the token payload couldn't be decoded.
	ErrInvalidTokenPayload = errors.New("invalid token payload: base64 decode failed")
)

// UserClaims represents broker user credential claims.
type UserClaims struct {
	Subject  string          `json:"sub"`
	Audience string          `json:"aud,omitempty"`
	Expires  int64           `json:"exp,omitempty"`
	IssuedAt int64           `json:"iat"`
	ID       string          `json:"jti,omitempty"`
	Issuer   string          `json:"iss"`
	Name     string          `json:"name,omitempty"`
	Nats     UserPermissions `json:"nats"`
}

// UserPermissions contains the broker permissions for a user. Per the broker
// JWT layout, type, version, and issuer_account live inside the nats object.
type UserPermissions struct {
	Pub           PermissionRules `json:"pub,omitempty"`
	Sub           PermissionRules `json:"sub,omitempty"`
	Resp          *RespPermission `json:"resp,omitempty"`
	IssuerAccount string          `json:"issuer_account,omitempty"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
}

// PermissionRules contains allow/deny patterns.
type PermissionRules struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// RespPermission allows request/reply patterns.
type RespPermission struct {
	Max int `json:"max,omitempty"`
	TTL int `json:"ttl,omitempty"`
}

// AuthorizationResponseClaims represents the claims in an auth callout
// response token.
type AuthorizationResponseClaims struct {
	Audience string                       `json:"aud,omitempty"`
	IssuedAt int64                        `json:"iat"`
	ID       string                       `json:"jti,omitempty"`
	Issuer   string                       `json:"iss"`
	Subject  string                       `json:"sub"`
	Nats     AuthorizationResponsePayload `json:"nats"`
}

// AuthorizationResponsePayload contains the broker-specific response data:
// either a signed user credential or an error, never both.
type AuthorizationResponsePayload struct {
	JWT     string `json:"jwt,omitempty"`
	Error   string `json:"error,omitempty"`
	Account string `json:"account,omitempty"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

// NewUserClaims creates user claims bound to the connection's ephemeral
// public key. Permissions default to deny-everything until a grant is set:
// absence of explicit permission must never read as broad access.
func NewUserClaims(publicKey string) *UserClaims {
	return &UserClaims{
		Subject:  publicKey,
		IssuedAt: time.Now().Unix(),
		ID:       uuid.New().String(),
		Nats: UserPermissions{
			Pub:     PermissionRules{Deny: []string{">"}},
			Sub:     PermissionRules{Deny: []string{">"}},
			Type:    "user",
			Version: 2,
		},
	}
}

// SetPermissions installs an explicit grant, replacing the deny-by-default
// rules. Empty allow lists fall back to deny-everything.
func (c *UserClaims) SetPermissions(pubAllow, pubDeny, subAllow, subDeny []string) {
	c.Nats.Pub = permissionRules(pubAllow, pubDeny)
	c.Nats.Sub = permissionRules(subAllow, subDeny)
}

func permissionRules(allow, deny []string) PermissionRules {
	if len(allow) == 0 && len(deny) == 0 {
		return PermissionRules{Deny: []string{">"}}
	}
	return PermissionRules{Allow: allow, Deny: deny}
}

// Encode encodes the user claims as a signed token.
func (c *UserClaims) Encode(kp nkeys.KeyPair) (string, error) {
	issuer, err := kp.PublicKey()
	if err != nil {
		return "", fmt.Errorf("failed to get issuer public key: %w", err)
	}
	c.Issuer = issuer
	return signClaims(c, kp)
}

// NewAuthorizationResponseClaims creates response claims addressed to the
// requesting server. Subject must be the connection's public key; exactly one
// of userJWT and errMsg should be set.
func NewAuthorizationResponseClaims(serverID, userNkey, issuerAccount, userJWT, errMsg string) *AuthorizationResponseClaims {
	return &AuthorizationResponseClaims{
		Audience: serverID,
		IssuedAt: time.Now().Unix(),
		ID:       uuid.New().String(),
		Subject:  userNkey,
		Nats: AuthorizationResponsePayload{
			JWT:     userJWT,
			Error:   errMsg,
			Account: issuerAccount,
			Type:    "authorization_response",
			Version: 2,
		},
	}
}

// Encode encodes the authorization response claims as a signed token.
func (c *AuthorizationResponseClaims) Encode(kp nkeys.KeyPair) (string, error) {
	issuer, err := kp.PublicKey()
	if err != nil {
		return "", fmt.Errorf("failed to get issuer public key: %w", err)
	}
	c.Issuer = issuer
	return signClaims(c, kp)
}

// signClaims serializes claims into the three-part signed envelope: each part
// base64url-encoded, the signature taken over "header.payload".
func signClaims(claims any, kp nkeys.KeyPair) (string, error) {
	header := map[string]string{
		"typ": "JWT",
		"alg": "ed25519-nkey",
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)
	signingInput := headerB64 + "." + claimsB64

	sig, err := kp.Sign([]byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// DecodePayload extracts the claims payload of a three-part signed token into
// out. It fails unless the token has exactly three dot-separated parts.
func DecodePayload(token string, out any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrInvalidTokenFormat
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Some emitters pad their base64.
		payload, err = base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return ErrInvalidTokenPayload
		}
	}

	return json.Unmarshal(payload, out)
}
