package meta

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"
)

// AuthSuccessMessage is the typed message the popup relay posts to its
// opener window once the implicit-flow fragment has been read.
const AuthSuccessMessage = "FACEBOOK_AUTH_SUCCESS"

// DefaultScopes cover identity plus page/ads/business management.
var DefaultScopes = []string{
	"public_profile",
	"email",
	"pages_show_list",
	"pages_read_engagement",
	"ads_management",
	"business_management",
}

// OAuthConfig describes the implicit-flow authorization request. The
// token comes back in the redirect URL fragment and is relayed to the
// completion endpoint by the callback page.
type OAuthConfig struct {
	AppID       string
	RedirectURI string
	Scopes      []string
}

// AuthorizationURL builds the identity provider's authorization URL for
// one login attempt, carrying the signed state.
func (c OAuthConfig) AuthorizationURL(state string) string {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	q := url.Values{
		"client_id":     {c.AppID},
		"redirect_uri":  {c.RedirectURI},
		"state":         {state},
		"response_type": {"token"},
		"scope":         {strings.Join(scopes, ",")},
	}
	return "https://www.facebook.com/v19.0/dialog/oauth?" + q.Encode()
}

var (
	ErrLoginTimeout  = errors.New("meta: login was not completed in time")
	ErrUnknownLogin  = errors.New("meta: no pending login for this state")
	ErrLoginCanceled = errors.New("meta: login canceled")
)

// LoginBroker implements the two-phase login handoff: phase one opens
// an authorization context and waits; phase two delivers the token
// through a single typed channel keyed by the state value. This
// replaces ambient window-messaging conventions with an explicit,
// testable protocol.
type LoginBroker struct {
	mu      sync.Mutex
	pending map[string]chan string
}

func NewLoginBroker() *LoginBroker {
	return &LoginBroker{pending: make(map[string]chan string)}
}

// Begin registers a pending login for the state value. A second Begin
// with the same state replaces the first, canceling its waiter.
func (b *LoginBroker) Begin(state string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.pending[state]; ok {
		close(prev)
	}
	b.pending[state] = make(chan string, 1)
}

// Await blocks until the token for this state arrives, the timeout
// elapses, or the context is done. The pending entry is consumed either
// way; a late completion for a timed-out state is rejected.
func (b *LoginBroker) Await(ctx context.Context, state string, timeout time.Duration) (string, error) {
	b.mu.Lock()
	ch, ok := b.pending[state]
	b.mu.Unlock()
	if !ok {
		return "", ErrUnknownLogin
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	defer func() {
		b.mu.Lock()
		delete(b.pending, state)
		b.mu.Unlock()
	}()

	select {
	case token, open := <-ch:
		if !open {
			return "", ErrLoginCanceled
		}
		return token, nil
	case <-timer.C:
		return "", ErrLoginTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Complete delivers the token for a pending login.
func (b *LoginBroker) Complete(state, token string) error {
	b.mu.Lock()
	ch, ok := b.pending[state]
	b.mu.Unlock()
	if !ok {
		return ErrUnknownLogin
	}

	select {
	case ch <- token:
		return nil
	default:
		return ErrUnknownLogin
	}
}

// Cancel abandons a pending login, waking any waiter with an error.
func (b *LoginBroker) Cancel(state string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.pending[state]; ok {
		close(ch)
		delete(b.pending, state)
	}
}
