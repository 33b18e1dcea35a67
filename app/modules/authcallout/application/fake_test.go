package authcallout

import (
	"encoding/json"

	"github.com/propflow/messaging-relay/app/modules/authcallout/infrastructure/permissions"
)

// fakeCredentialBuilder records what it was asked to mint and returns
// inspectable JSON instead of signed tokens.
type fakeCredentialBuilder struct {
	lastPerms *permissions.Permissions
	lastName  string
}

type fakeResponse struct {
	UserNkey string `json:"userNkey"`
	ServerID string `json:"serverId"`
	UserJWT  string `json:"userJwt"`
	Error    string `json:"error"`
}

func (f *fakeCredentialBuilder) BuildUserJWT(userNkey, name string, perms *permissions.Permissions) (string, error) {
	f.lastPerms = perms
	f.lastName = name
	return "user-jwt-for-" + userNkey, nil
}

func (f *fakeCredentialBuilder) BuildAuthResponse(userNkey, serverID, userJWT, errMsg string) (string, error) {
	data, err := json.Marshal(fakeResponse{
		UserNkey: userNkey,
		ServerID: serverID,
		UserJWT:  userJWT,
		Error:    errMsg,
	})
	return string(data), err
}
