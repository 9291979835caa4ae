package callback

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/transitnet/transitnet-cli/internal/auth"
)

// Phase is a state of the callback state machine.
type Phase int

const (
	PhaseAwaitingCallback Phase = iota
	PhaseCredentialReceived
	PhaseSyncInFlight
	PhaseSuccess
	PhaseVerificationRequired
	PhaseLoginFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingCallback:
		return "awaiting-callback"
	case PhaseCredentialReceived:
		return "credential-received"
	case PhaseSyncInFlight:
		return "sync-in-flight"
	case PhaseSuccess:
		return "success"
	case PhaseVerificationRequired:
		return "verification-required"
	case PhaseLoginFailed:
		return "login-failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller for rendering.
type State struct {
	Phase      Phase
	NavigateTo string // Success: where to land, empty for no navigation
	UserID     string // VerificationRequired: whose email to verify
	Message    string // LoginFailed: what went wrong
}

// Profile is the caller's own user record.
type Profile struct {
	UserID         string    `json:"user_id"`
	Nickname       string    `json:"nickname"`
	TrackAnalytics bool      `json:"track_analytics"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileService fetches the caller's own profile.
type ProfileService interface {
	OwnProfile(ctx context.Context) (*Profile, error)
}

// OrgSyncer reconciles organization context using a freshly received
// credential.
type OrgSyncer interface {
	Sync(ctx context.Context, token string) error
}

// VerificationSender requests a new verification email for a user.
type VerificationSender interface {
	Resend(ctx context.Context, userID string) error
}

// CredentialAcceptor validates and persists a received credential.
type CredentialAcceptor interface {
	Accept(ctx context.Context, raw string) (*auth.Session, error)
}

// PreferenceWriter persists the display preferences taken from the profile.
type PreferenceWriter interface {
	SetNickname(nickname string) error
	SetTrackAnalytics(value string) error
}

// Controller runs the callback state machine. A controller handles at most
// one credential per instance: re-delivery of the same redirect payload is
// ignored by the guard.
type Controller struct {
	acceptor CredentialAcceptor
	profiles ProfileService
	orgs     OrgSyncer
	verify   VerificationSender
	prefs    PreferenceWriter
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	called    bool
	cancelled bool
}

// NewController wires the callback dependencies together.
func NewController(acceptor CredentialAcceptor, profiles ProfileService, orgs OrgSyncer, verify VerificationSender, prefs PreferenceWriter, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		acceptor: acceptor,
		profiles: profiles,
		orgs:     orgs,
		verify:   verify,
		prefs:    prefs,
		logger:   logger,
		now:      time.Now,
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cancel discards all further state updates. In-flight work may complete
// but its results are dropped.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
}

// setState applies a state update unless the controller was cancelled.
func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.state = s
}

// Handle processes one delivery of the redirect fragment and returns the
// resulting state. Safe to call again with the same payload: the
// credential-acceptance sequence runs at most once.
func (c *Controller) Handle(ctx context.Context, frag Fragment) State {
	if frag.ErrorDescription != "" {
		if userID, ok := verificationUserID(frag.ErrorDescription); ok {
			c.setState(State{Phase: PhaseVerificationRequired, UserID: userID})
			// Best effort: a failed resend leaves the manual action available.
			if err := c.verify.Resend(ctx, userID); err != nil {
				c.logger.Warn("verification email resend failed", "user_id", userID, "error", err)
			}
			return c.State()
		}
		c.setState(State{Phase: PhaseLoginFailed, Message: frag.ErrorDescription})
		return c.State()
	}

	if frag.AccessToken == "" {
		return c.State()
	}

	// The guard must be checked before any I/O so a re-delivered payload
	// causes no duplicate requests.
	c.mu.Lock()
	if c.called {
		state := c.state
		c.mu.Unlock()
		return state
	}
	c.called = true
	c.mu.Unlock()

	c.setState(State{Phase: PhaseCredentialReceived})

	if _, err := c.acceptor.Accept(ctx, frag.AccessToken); err != nil {
		c.setState(State{Phase: PhaseLoginFailed, Message: err.Error()})
		return c.State()
	}

	c.setState(State{Phase: PhaseSyncInFlight})

	var profile *Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.profiles.OwnProfile(gctx)
		if err != nil {
			return err
		}
		profile = p
		if err := c.prefs.SetNickname(p.Nickname); err != nil {
			c.logger.Warn("persisting nickname failed", "error", err)
		}
		analytics := "false"
		if p.TrackAnalytics {
			analytics = p.UserID
		}
		if err := c.prefs.SetTrackAnalytics(analytics); err != nil {
			c.logger.Warn("persisting analytics preference failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return c.orgs.Sync(gctx, frag.AccessToken)
	})

	if err := g.Wait(); err != nil {
		c.setState(State{Phase: PhaseLoginFailed, Message: err.Error()})
		return c.State()
	}

	target, _ := DecideNavigation(frag.State, profile.CreatedAt, c.now())
	c.setState(State{Phase: PhaseSuccess, NavigateTo: target})
	return c.State()
}

// DecideNavigation picks the post-login landing target. A trusted return-to
// path wins; otherwise a profile created within the last 15 minutes is taken
// as a first login and sent to profile completion. A returning user without
// a return-to path stays put.
//
// Known rough edge: any login within 15 minutes of account creation trips
// the first-login heuristic, including an immediate re-login after signup.
func DecideNavigation(state string, createdAt, now time.Time) (string, bool) {
	if strings.HasPrefix(state, "/") {
		return state, true
	}
	if !createdAt.IsZero() && createdAt.After(now.Add(-15*time.Minute)) {
		return "/profile", true
	}
	return "", false
}
