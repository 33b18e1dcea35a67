package calloutnats

// AuthorizationRequestClaims represents the claims in the server's auth
// callout request token.
type AuthorizationRequestClaims struct {
	Audience string      `json:"aud,omitempty"`
	Expires  int64       `json:"exp,omitempty"`
	IssuedAt int64       `json:"iat,omitempty"`
	Issuer   string      `json:"iss,omitempty"`
	Subject  string      `json:"sub,omitempty"`
	Nats     NatsRequest `json:"nats,omitempty"`
}

// NatsRequest contains the broker-specific data in the auth callout request.
type NatsRequest struct {
	UserNkey    string      `json:"user_nkey,omitempty"`
	ServerID    ServerID    `json:"server_id,omitempty"`
	ConnectOpts ConnectOpts `json:"connect_opts,omitempty"`
	ClientInfo  ClientInfo  `json:"client_info,omitempty"`
}

// ServerID identifies the server instance awaiting the response.
type ServerID struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// ConnectOpts represents the client's connect options in the auth request.
// The application token may arrive in any of the token-bearing fields
// depending on the client library.
type ConnectOpts struct {
	JWT      string `json:"jwt,omitempty"`
	Token    string `json:"auth_token,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"pass,omitempty"`
	Name     string `json:"name,omitempty"`
	Lang     string `json:"lang,omitempty"`
	Version  string `json:"version,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// ClientInfo describes the connecting client.
type ClientInfo struct {
	Host string `json:"host,omitempty"`
	ID   uint64 `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"`
	Type string `json:"type,omitempty"`
}

// ApplicationToken returns the caller-supplied application token, looking at
// each token-bearing connect option in turn.
func (o ConnectOpts) ApplicationToken() string {
	if o.Token != "" {
		return o.Token
	}
	if o.JWT != "" {
		return o.JWT
	}
	return o.Password
}

// DecodeAuthorizationRequest decodes an auth callout request token. Signature
// verification is intentionally skipped: the broker is a trusted sender and
// delivers the request over its own system subject.
func DecodeAuthorizationRequest(token string) (*AuthorizationRequestClaims, error) {
	var claims AuthorizationRequestClaims
	if err := DecodePayload(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
