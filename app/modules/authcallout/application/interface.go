package authcallout

import "context"

// Service defines the auth callout service interface.
type Service interface {
	// HandleAuthRequest decides whether a connection attempt is admitted and
	// with which permissions.
	HandleAuthRequest(ctx context.Context, req *AuthRequest) (*AuthResponse, error)

	// RevokeUser denies new connections for userID until unrevoked.
	RevokeUser(userID string)

	// UnrevokeUser restores userID's ability to connect.
	UnrevokeUser(userID string)
}

// AuthRequest carries the decoded auth callout request.
type AuthRequest struct {
	// UserNkey is the connection's ephemeral public key; the issued
	// credential is bound to it.
	UserNkey string

	// ServerID identifies the server instance awaiting the response.
	ServerID string

	// Token is the caller-supplied application token, possibly empty.
	Token string

	// ClientName is the connection name, used for logging only.
	ClientName string

	// ClientHost is the remote host, used for logging only.
	ClientHost string
}

// AuthResponse carries the signed authorization response to return to the
// server. Error mirrors the error embedded in the signed response, for
// logging and metrics.
type AuthResponse struct {
	SignedResponse string
	UserJWT        string
	Error          string
}
