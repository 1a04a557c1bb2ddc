package player

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/logging"
	"github.com/tessro/tempo/internal/spotify/auth"
)

// ErrNoDevice is returned when no Spotify Connect device can be controlled.
var ErrNoDevice = apperrors.WithSuggestion(
	errors.New("no playback device available"),
	"Open Spotify on a phone, computer or speaker and try again",
)

// BridgeState is the readiness of in-app playback.
type BridgeState int

const (
	// StateUnavailable means there is no usable session.
	StateUnavailable BridgeState = iota
	// StateUpgradeRequired means the session lacks the playback scopes.
	StateUpgradeRequired
	// StateReady means a device is selected and commands can be sent.
	StateReady
	// StateFailed means initialization failed for a reason other than auth.
	StateFailed
)

func (s BridgeState) String() string {
	switch s {
	case StateUpgradeRequired:
		return "upgrade_required"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unavailable"
	}
}

// Authenticator is the part of the auth service the bridge needs.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
	NeedsUpgrade(ctx context.Context, required ...string) bool
	ForceReauth(ctx context.Context, extra ...string) (string, error)
}

// Bridge gates playback behind the scope check. The player is only built
// once the session holds every playback scope.
type Bridge struct {
	auth      Authenticator
	newPlayer func() core.Player
	logger    *log.Logger

	mu      sync.Mutex
	state   BridgeState
	player  core.Player
	device  *core.Device
	lastErr error
}

// NewBridge creates a bridge. newPlayer is called by Init after the scope
// check passes.
func NewBridge(a Authenticator, newPlayer func() core.Player, logger *log.Logger) *Bridge {
	return &Bridge{
		auth:      a,
		newPlayer: newPlayer,
		logger:    logging.With(logger, "component", "playback"),
	}
}

// State returns the current bridge state.
func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Device returns the selected device, nil unless Ready.
func (b *Bridge) Device() *core.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device
}

// Err returns the error that put the bridge in its current state.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Init checks the session and, if it carries the playback scopes, builds the
// player and selects a device.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.player, b.device = nil, nil

	if !b.auth.IsAuthenticated(ctx) {
		return b.setState(StateUnavailable, apperrors.ErrNoAccessToken)
	}
	if b.auth.NeedsUpgrade(ctx, auth.PlaybackScopes...) {
		b.logger.Info("playback needs additional scopes")
		return b.setState(StateUpgradeRequired, apperrors.ErrScopeInsufficient)
	}

	p := b.newPlayer()
	devices, err := p.GetDevices(ctx)
	if err != nil {
		return b.classify(ctx, err)
	}
	device := core.PickDevice(devices)
	if device == nil {
		return b.setState(StateFailed, ErrNoDevice)
	}
	p.SetDevice(device.ID)

	b.player, b.device = p, device
	b.logger.Info("playback ready", "device", device.Name)
	return b.setState(StateReady, nil)
}

// Upgrade discards the session and starts a handshake that also requests the
// playback scopes. It returns the authorization URL.
func (b *Bridge) Upgrade(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	authURL, err := b.auth.ForceReauth(ctx, auth.PlaybackScopes...)
	if err != nil {
		return "", err
	}
	b.player, b.device = nil, nil
	_ = b.setState(StateUnavailable, nil)
	return authURL, nil
}

// PlayTrack plays a single track on the selected device.
func (b *Bridge) PlayTrack(ctx context.Context, trackID string) error {
	return b.do(ctx, func(p core.Player) error { return p.PlayTrack(ctx, trackID) })
}

// Pause pauses playback on the selected device.
func (b *Bridge) Pause(ctx context.Context) error {
	return b.do(ctx, func(p core.Player) error { return p.Pause(ctx) })
}

func (b *Bridge) do(ctx context.Context, fn func(core.Player) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateReady || b.player == nil {
		return b.notReadyErr()
	}
	if err := fn(b.player); err != nil {
		if isAuthError(err) {
			return b.classify(ctx, err)
		}
		return err
	}
	return nil
}

// HandleAuthError re-evaluates the session after the player reported an
// authentication failure. A session that is still valid but lacks scopes
// moves to UpgradeRequired rather than being treated as logged out.
func (b *Bridge) HandleAuthError(ctx context.Context, err error) BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.classify(ctx, err)
	return b.state
}

// classify maps a player failure onto a state. Callers hold b.mu.
func (b *Bridge) classify(ctx context.Context, err error) error {
	if !isAuthError(err) {
		b.player, b.device = nil, nil
		return b.setState(StateFailed, err)
	}

	b.player, b.device = nil, nil
	switch {
	case !b.auth.IsAuthenticated(ctx):
		b.logger.Warn("playback lost its session", "err", err)
		return b.setState(StateUnavailable, err)
	case b.auth.NeedsUpgrade(ctx, auth.PlaybackScopes...):
		b.logger.Warn("playback needs additional scopes", "err", err)
		return b.setState(StateUpgradeRequired, errors.Join(apperrors.ErrScopeInsufficient, err))
	default:
		// Scopes are fine, so the provider refused for another reason
		// (for example an account without Premium).
		b.logger.Warn("playback refused", "err", err)
		return b.setState(StateFailed, err)
	}
}

func (b *Bridge) setState(s BridgeState, err error) error {
	if s != b.state {
		b.logger.Debug("playback state", "from", b.state, "to", s)
	}
	b.state = s
	b.lastErr = err
	return err
}

func (b *Bridge) notReadyErr() error {
	switch b.state {
	case StateUpgradeRequired:
		return apperrors.ErrScopeInsufficient
	case StateFailed:
		if b.lastErr != nil {
			return b.lastErr
		}
		return ErrNoDevice
	default:
		return apperrors.ErrNoAccessToken
	}
}

func isAuthError(err error) bool {
	return errors.Is(err, apperrors.ErrAuthenticationExpired) || errors.Is(err, apperrors.ErrAccessForbidden)
}
