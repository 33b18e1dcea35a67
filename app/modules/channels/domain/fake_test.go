package channelsdomain

import "context"

// fakeDirectory is an in-memory Directory for tests.
type fakeDirectory struct {
	users       map[string]bool
	employments map[string]bool
	permissions map[string]bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:       make(map[string]bool),
		employments: make(map[string]bool),
		permissions: make(map[string]bool),
	}
}

func (d *fakeDirectory) addUser(userID string) {
	d.users[userID] = true
}

func (d *fakeDirectory) addEmployee(userID, organizationID string) {
	d.users[userID] = true
	d.employments[userID+"/"+organizationID] = true
}

func (d *fakeDirectory) grant(userID, organizationID, permission string) {
	d.permissions[userID+"/"+organizationID+"/"+permission] = true
}

func (d *fakeDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	return d.users[userID], nil
}

func (d *fakeDirectory) IsActiveEmployee(ctx context.Context, userID, organizationID string) (bool, error) {
	return d.employments[userID+"/"+organizationID], nil
}

func (d *fakeDirectory) HasPermission(ctx context.Context, userID, organizationID, permission string) (bool, error) {
	return d.permissions[userID+"/"+organizationID+"/"+permission], nil
}
