// Package callback implements the post-login callback flows: the public-site
// flow, which finalizes the session and always redirects to the locale root,
// and the admin-console flow, which gates access on a backend authorization
// check before resolving the pending redirect target.
package callback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stackfinder/stackfinder/internal/redirect"
)

// State is the visible state of a callback flow. Transitions are one-shot.
type State string

const (
	StateAwaitingSession       State = "awaiting_session"
	StateCheckingAuthorization State = "checking_authorization"
	StateNoSession             State = "no_session"
	StateDenied                State = "denied"
	StateNetworkError          State = "network_error"
	StateRedirecting           State = "redirecting"
)

// User-facing messages for the terminal failure states. Authorization denials
// prefer the server-provided message when there is one.
const (
	MsgNoSession     = "No active session. Please sign in again."
	MsgNotAuthorized = "You are not authorized to access the admin console."
	MsgNetworkError  = "A network error occurred. Please try again later."
)

// AuthzResult is the backend authorization verdict for a session token.
type AuthzResult struct {
	Success bool
	Email   string
	Message string
}

// Authorizer maps a session token to an administrative identity. A returned
// error means the check itself could not be performed (network failure); a
// denial is a successful call with Success=false.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (AuthzResult, error)
}

// SessionRevoker revokes a session with the auth provider.
type SessionRevoker interface {
	SignOut(ctx context.Context, token string) error
}

// Outcome is the terminal result of a callback flow.
type Outcome struct {
	State      State
	Message    string
	RedirectTo string
}

// AdminFlow runs the admin-console callback. All collaborators are injected;
// the flow owns no state between runs.
type AdminFlow struct {
	authorizer Authorizer
	revoker    SessionRevoker
	store      redirect.Store
	logger     zerolog.Logger

	// onState, when set, observes every state transition. Transitions are
	// suppressed once ctx is done so nothing updates after teardown.
	onState func(State)
}

// NewAdminFlow creates an admin callback flow.
func NewAdminFlow(authorizer Authorizer, revoker SessionRevoker, store redirect.Store, logger zerolog.Logger) *AdminFlow {
	return &AdminFlow{
		authorizer: authorizer,
		revoker:    revoker,
		store:      store,
		logger:     logger,
	}
}

// OnState registers an observer for state transitions.
func (f *AdminFlow) OnState(fn func(State)) {
	f.onState = fn
}

// setState publishes a state transition unless ctx is already done.
func (f *AdminFlow) setState(ctx context.Context, state State) {
	if ctx.Err() != nil {
		return
	}
	if f.onState != nil {
		f.onState(state)
	}
}

// Run executes the callback flow for one login attempt. token is the session
// access token from the provider redirect (may be empty); loginID keys the
// pending redirect target. Run returns ctx.Err() when canceled mid-flow.
func (f *AdminFlow) Run(ctx context.Context, token, loginID string) (Outcome, error) {
	f.setState(ctx, StateAwaitingSession)

	// The stored redirect target is consumed exactly once per callback,
	// whether authorization succeeds or fails.
	defer f.cleanupTarget(loginID)

	if token == "" {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		f.setState(ctx, StateNoSession)
		return Outcome{State: StateNoSession, Message: MsgNoSession}, nil
	}

	f.setState(ctx, StateCheckingAuthorization)

	result, err := f.authorizer.Authorize(ctx, token)
	if cerr := ctx.Err(); cerr != nil {
		return Outcome{}, cerr
	}
	if err != nil {
		f.logger.Warn().Err(err).Msg("Authorization check failed")
		f.setState(ctx, StateNetworkError)
		return Outcome{State: StateNetworkError, Message: MsgNetworkError}, nil
	}

	if !result.Success || result.Email == "" {
		// Revoke before anything is shown to the user
		if err := f.revoker.SignOut(ctx, token); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to revoke session after denial")
		}
		message := result.Message
		if message == "" {
			message = MsgNotAuthorized
		}
		if cerr := ctx.Err(); cerr != nil {
			return Outcome{}, cerr
		}
		f.setState(ctx, StateDenied)
		return Outcome{State: StateDenied, Message: message}, nil
	}

	target := f.takeTarget(ctx, loginID)
	if cerr := ctx.Err(); cerr != nil {
		return Outcome{}, cerr
	}
	f.setState(ctx, StateRedirecting)
	return Outcome{State: StateRedirecting, RedirectTo: target}, nil
}

// takeTarget reads and deletes the pending redirect target, defaulting to the
// root path when absent or untrusted. Storage failure is logged, not raised.
func (f *AdminFlow) takeTarget(ctx context.Context, loginID string) string {
	if loginID == "" {
		return "/"
	}
	raw, ok, err := f.store.Take(ctx, loginID)
	if err != nil {
		f.logger.Warn().Err(err).Str("login_id", loginID).Msg("Failed to read pending redirect target")
		return "/"
	}
	if !ok {
		return "/"
	}
	return redirect.SanitizePath(raw)
}

// cleanupTarget removes any leftover redirect target. Best-effort: runs on a
// fresh context so a canceled flow still cleans up.
func (f *AdminFlow) cleanupTarget(loginID string) {
	if loginID == "" {
		return
	}
	if err := f.store.Delete(context.Background(), loginID); err != nil {
		f.logger.Warn().Err(err).Str("login_id", loginID).Msg("Failed to delete pending redirect target")
	}
}

// SessionChecker reads the current session from the auth provider.
type SessionChecker interface {
	Check(ctx context.Context, token string) error
}

// PublicFlow runs the public-site callback: one provider round-trip, then a
// redirect to the locale root regardless of outcome. The public site has no
// authorization gate.
type PublicFlow struct {
	checker SessionChecker
	logger  zerolog.Logger
}

// NewPublicFlow creates a public callback flow.
func NewPublicFlow(checker SessionChecker, logger zerolog.Logger) *PublicFlow {
	return &PublicFlow{checker: checker, logger: logger}
}

// Run finalizes the session and returns the locale-root redirect target.
func (f *PublicFlow) Run(ctx context.Context, token, locale string) (Outcome, error) {
	if err := f.checker.Check(ctx, token); err != nil {
		// Outcome is the same either way; the failure is only logged
		f.logger.Debug().Err(err).Msg("Session finalization failed on public callback")
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	return Outcome{State: StateRedirecting, RedirectTo: "/" + locale}, nil
}
