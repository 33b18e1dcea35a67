package control

import "testing"

func TestSubjects(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"subscribe", SubscribeSubject("ticket-changes", "org1"), "_MESSAGING.subscribe.ticket-changes.org1"},
		{"user pattern", UserSubscribePattern("u1"), "_MESSAGING.subscribe.user.u1.>"},
		{"organization pattern", OrganizationSubscribePattern("o1"), "_MESSAGING.subscribe.organization.o1.>"},
		{"subscribe wildcard", SubscribeWildcard(), "_MESSAGING.subscribe.>"},
		{"unsubscribe", UnsubscribeSubject("r1"), "_MESSAGING.unsubscribe.r1"},
		{"unsubscribe pattern", UnsubscribePattern(), "_MESSAGING.unsubscribe.*"},
		{"revoke", RevokeSubject("u1"), "_MESSAGING.admin.revoke.u1"},
		{"unrevoke", UnrevokeSubject("u1"), "_MESSAGING.admin.unrevoke.u1"},
		{"admin wildcard", AdminWildcard(), "_MESSAGING.admin.>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
