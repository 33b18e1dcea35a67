package calloutnats

import "github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/permissions"

// CredentialBuilder defines the interface for minting signed broker
// credentials during an auth callout.
type CredentialBuilder interface {
	// BuildUserJWT creates a user credential bound to the connection's
	// ephemeral public key, carrying the given permission grant.
	BuildUserJWT(userNkey, name string, perms *permissions.Permissions) (string, error)

	// BuildAuthResponse wraps a user credential (or an error) in a signed
	// authorization response addressed to serverID.
	BuildAuthResponse(userNkey, serverID, userJWT, errMsg string) (string, error)
}
