package callback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnet/transitnet-cli/internal/auth"
)

type fakeAcceptor struct {
	accepted []string
	err      error
}

func (f *fakeAcceptor) Accept(_ context.Context, raw string) (*auth.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.accepted = append(f.accepted, raw)
	return &auth.Session{Token: raw}, nil
}

type fakeProfiles struct {
	calls   atomic.Int32
	profile *Profile
	err     error
	delay   time.Duration
}

func (f *fakeProfiles) OwnProfile(ctx context.Context) (*Profile, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeOrgs struct {
	calls  atomic.Int32
	tokens []string
	err    error
}

func (f *fakeOrgs) Sync(_ context.Context, token string) error {
	f.calls.Add(1)
	f.tokens = append(f.tokens, token)
	return f.err
}

type fakeVerify struct {
	userIDs []string
	err     error
}

func (f *fakeVerify) Resend(_ context.Context, userID string) error {
	f.userIDs = append(f.userIDs, userID)
	return f.err
}

type fakePrefs struct {
	nickname  string
	analytics string
}

func (f *fakePrefs) SetNickname(n string) error       { f.nickname = n; return nil }
func (f *fakePrefs) SetTrackAnalytics(v string) error { f.analytics = v; return nil }

type fixture struct {
	acceptor *fakeAcceptor
	profiles *fakeProfiles
	orgs     *fakeOrgs
	verify   *fakeVerify
	prefs    *fakePrefs
	ctrl     *Controller
}

func newFixture(profile *Profile) *fixture {
	f := &fixture{
		acceptor: &fakeAcceptor{},
		profiles: &fakeProfiles{profile: profile},
		orgs:     &fakeOrgs{},
		verify:   &fakeVerify{},
		prefs:    &fakePrefs{},
	}
	f.ctrl = NewController(f.acceptor, f.profiles, f.orgs, f.verify, f.prefs, nil)
	return f
}

func returningUser() *Profile {
	return &Profile{
		UserID:         "auth0|u1",
		Nickname:       "ada",
		TrackAnalytics: true,
		CreatedAt:      time.Now().Add(-48 * time.Hour),
	}
}

func TestHandleEmptyFragment(t *testing.T) {
	f := newFixture(returningUser())

	state := f.ctrl.Handle(context.Background(), Fragment{})
	assert.Equal(t, PhaseAwaitingCallback, state.Phase)
	assert.Empty(t, f.acceptor.accepted)
}

func TestHandleSuccessWithReturnTo(t *testing.T) {
	f := newFixture(returningUser())

	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok", State: "/dashboard"})
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Equal(t, "/dashboard", state.NavigateTo)
	assert.Equal(t, []string{"tok"}, f.acceptor.accepted)
	// Org sync uses the received credential, not the stored one.
	assert.Equal(t, []string{"tok"}, f.orgs.tokens)
}

func TestHandleUntrustedStateNotNavigated(t *testing.T) {
	f := newFixture(returningUser())

	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok", State: "https://evil.example"})
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Empty(t, state.NavigateTo)
}

func TestHandleFirstLoginGoesToProfile(t *testing.T) {
	profile := returningUser()
	profile.CreatedAt = time.Now().Add(-5 * time.Minute)
	f := newFixture(profile)

	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok"})
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Equal(t, "/profile", state.NavigateTo)
}

func TestHandleGuardIdempotence(t *testing.T) {
	f := newFixture(returningUser())
	frag := Fragment{AccessToken: "tok", State: "/dashboard"}

	first := f.ctrl.Handle(context.Background(), frag)
	second := f.ctrl.Handle(context.Background(), frag)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.profiles.calls.Load())
	assert.Equal(t, int32(1), f.orgs.calls.Load())
	assert.Len(t, f.acceptor.accepted, 1)
}

func TestHandleVerificationRequired(t *testing.T) {
	f := newFixture(returningUser())

	state := f.ctrl.Handle(context.Background(), Fragment{
		ErrorDescription: "Please verify your email before logging in: user_123",
	})
	assert.Equal(t, PhaseVerificationRequired, state.Phase)
	assert.Equal(t, "user_123", state.UserID)
	assert.Equal(t, []string{"user_123"}, f.verify.userIDs)
}

func TestHandleVerificationResendFailureIgnored(t *testing.T) {
	f := newFixture(returningUser())
	f.verify.err = errors.New("smtp down")

	state := f.ctrl.Handle(context.Background(), Fragment{
		ErrorDescription: "Please verify your email before logging in: user_123",
	})
	assert.Equal(t, PhaseVerificationRequired, state.Phase)
}

func TestHandlePlainError(t *testing.T) {
	f := newFixture(returningUser())

	state := f.ctrl.Handle(context.Background(), Fragment{ErrorDescription: "access_denied"})
	assert.Equal(t, PhaseLoginFailed, state.Phase)
	assert.Equal(t, "access_denied", state.Message)
	assert.Empty(t, f.verify.userIDs)
}

func TestHandleAcceptFailure(t *testing.T) {
	f := newFixture(returningUser())
	f.acceptor.err = errors.New("invalid credential")

	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "bad"})
	assert.Equal(t, PhaseLoginFailed, state.Phase)
	// Neither sync task runs when the credential is rejected.
	assert.Equal(t, int32(0), f.profiles.calls.Load())
	assert.Equal(t, int32(0), f.orgs.calls.Load())
}

func TestHandleProfileFailure(t *testing.T) {
	f := newFixture(returningUser())
	f.profiles.err = errors.New("profile fetch failed")

	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok", State: "/dashboard"})
	assert.Equal(t, PhaseLoginFailed, state.Phase)
	assert.Equal(t, "profile fetch failed", state.Message)
}

func TestHandleOrgSyncFailure(t *testing.T) {
	f := newFixture(returningUser())
	f.orgs.err = errors.New("org sync failed")

	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok", State: "/dashboard"})
	assert.Equal(t, PhaseLoginFailed, state.Phase)
}

func TestHandleOrgFailureCancelsProfileFetch(t *testing.T) {
	f := newFixture(returningUser())
	f.orgs.err = errors.New("org sync failed")
	f.profiles.delay = 5 * time.Second

	start := time.Now()
	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok"})
	assert.Equal(t, PhaseLoginFailed, state.Phase)
	// Fail-fast: the join does not wait out the slow profile fetch.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHandlePersistsPreferences(t *testing.T) {
	f := newFixture(returningUser())

	f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok"})
	assert.Equal(t, "ada", f.prefs.nickname)
	assert.Equal(t, "auth0|u1", f.prefs.analytics)
}

func TestHandlePersistsAnalyticsOptOut(t *testing.T) {
	profile := returningUser()
	profile.TrackAnalytics = false
	f := newFixture(profile)

	f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok"})
	assert.Equal(t, "false", f.prefs.analytics)
}

func TestCancelDiscardsUpdates(t *testing.T) {
	f := newFixture(returningUser())

	f.ctrl.Cancel()
	state := f.ctrl.Handle(context.Background(), Fragment{AccessToken: "tok", State: "/dashboard"})
	assert.Equal(t, PhaseAwaitingCallback, state.Phase)
	assert.Empty(t, state.NavigateTo)
}

func TestDecideNavigation(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		state     string
		createdAt time.Time
		want      string
		wantOK    bool
	}{
		{
			name:      "trusted state wins",
			state:     "/dashboard",
			createdAt: now.Add(-5 * time.Minute),
			want:      "/dashboard",
			wantOK:    true,
		},
		{
			name:      "untrusted absolute URL ignored",
			state:     "https://evil.example",
			createdAt: now.Add(-2 * time.Hour),
			want:      "",
			wantOK:    false,
		},
		{
			name:      "recent account goes to profile",
			state:     "",
			createdAt: now.Add(-5 * time.Minute),
			want:      "/profile",
			wantOK:    true,
		},
		{
			name:      "old account stays put",
			state:     "",
			createdAt: now.Add(-2 * time.Hour),
			want:      "",
			wantOK:    false,
		},
		{
			name:      "unknown creation time stays put",
			state:     "",
			createdAt: time.Time{},
			want:      "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecideNavigation(tt.state, tt.createdAt, now)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
