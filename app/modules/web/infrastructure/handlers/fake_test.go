package webhandlers

import (
	"context"
	"net/http"

	webservice "github.com/propflow/messaging-relay/app/modules/web/application"
)

// fakeSessions resolves every request to a fixed outcome.
type fakeSessions struct {
	principal *webservice.Principal
	err       error
}

func (f *fakeSessions) Resolve(r *http.Request) (*webservice.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.principal, nil
}

// fakeDirectory is an in-memory identity store.
type fakeDirectory struct {
	users       map[string]bool
	employees   map[string]bool // userID|orgID
	permissions map[string]bool // userID|orgID|permission
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:       make(map[string]bool),
		employees:   make(map[string]bool),
		permissions: make(map[string]bool),
	}
}

func (d *fakeDirectory) addUser(userID string) {
	d.users[userID] = true
}

func (d *fakeDirectory) addEmployee(userID, orgID string) {
	d.users[userID] = true
	d.employees[userID+"|"+orgID] = true
}

func (d *fakeDirectory) grant(userID, orgID, permission string) {
	d.addEmployee(userID, orgID)
	d.permissions[userID+"|"+orgID+"|"+permission] = true
}

func (d *fakeDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	return d.users[userID], nil
}

func (d *fakeDirectory) IsActiveEmployee(ctx context.Context, userID, organizationID string) (bool, error) {
	return d.employees[userID+"|"+organizationID], nil
}

func (d *fakeDirectory) HasPermission(ctx context.Context, userID, organizationID, permission string) (bool, error) {
	return d.permissions[userID+"|"+organizationID+"|"+permission], nil
}
