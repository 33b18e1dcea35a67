package relayhandlers

import (
	"context"

	relayservice "github.com/propflow/messaging-relay/app/modules/relay/application"
)

// fakeRelayService records which operations the handlers dispatched.
type fakeRelayService struct {
	subscribeCalls   []relayservice.SubscribeRequest
	unsubscribeCalls []string
	revokedUsers     []string
	unrevokedUsers   []string
	sweepCalls       int
	sweepResult      int
	subscribeResult  *relayservice.Result
}

func (f *fakeRelayService) Subscribe(_ context.Context, req *relayservice.SubscribeRequest) *relayservice.Result {
	f.subscribeCalls = append(f.subscribeCalls, *req)
	if f.subscribeResult != nil {
		return f.subscribeResult
	}
	return &relayservice.Result{Status: "ok", RelayID: "relay-1"}
}

func (f *fakeRelayService) Unsubscribe(_ context.Context, relayID string) {
	f.unsubscribeCalls = append(f.unsubscribeCalls, relayID)
}

func (f *fakeRelayService) RevokeUser(_ context.Context, userID string) int {
	f.revokedUsers = append(f.revokedUsers, userID)
	return 0
}

func (f *fakeRelayService) UnrevokeUser(_ context.Context, userID string) {
	f.unrevokedUsers = append(f.unrevokedUsers, userID)
}

func (f *fakeRelayService) SweepClosed(_ context.Context) int {
	f.sweepCalls++
	return f.sweepResult
}

func (f *fakeRelayService) ActiveRelays() int { return 0 }

func (f *fakeRelayService) Shutdown(_ context.Context) {}
