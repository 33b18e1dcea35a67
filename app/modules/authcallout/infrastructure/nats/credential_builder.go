package calloutnats

import (
	"fmt"
	"time"

	"github.com/nats-io/nkeys"

	"github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/permissions"
)

// credentialTTL bounds how long an issued connection credential stays valid.
// Clients refresh by reconnecting with a fresh application token.
const credentialTTL = 24 * time.Hour

// credentialBuilder implements the CredentialBuilder interface.
type credentialBuilder struct {
	signingKey    nkeys.KeyPair
	issuerAccount string
}

// NewCredentialBuilder creates a CredentialBuilder signing with the account
// keypair identified by issuerAccount.
func NewCredentialBuilder(signingKey nkeys.KeyPair, issuerAccount string) CredentialBuilder {
	return &credentialBuilder{
		signingKey:    signingKey,
		issuerAccount: issuerAccount,
	}
}

// BuildUserJWT creates a user credential bound to the connection's ephemeral
// public key, carrying the given permission grant.
func (b *credentialBuilder) BuildUserJWT(userNkey, name string, perms *permissions.Permissions) (string, error) {
	uc := NewUserClaims(userNkey)
	uc.Name = name
	uc.Audience = b.issuerAccount
	uc.Nats.IssuerAccount = b.issuerAccount
	uc.Expires = time.Now().Add(credentialTTL).Unix()

	if perms != nil {
		uc.SetPermissions(
			perms.Publish.Allow, perms.Publish.Deny,
			perms.Subscribe.Allow, perms.Subscribe.Deny,
		)
	}

	token, err := uc.Encode(b.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode user claims: %w", err)
	}
	return token, nil
}

// BuildAuthResponse wraps a user credential (or an error) in a signed
// authorization response addressed to serverID.
func (b *credentialBuilder) BuildAuthResponse(userNkey, serverID, userJWT, errMsg string) (string, error) {
	claims := NewAuthorizationResponseClaims(serverID, userNkey, b.issuerAccount, userJWT, errMsg)

	token, err := claims.Encode(b.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode authorization response: %w", err)
	}
	return token, nil
}
