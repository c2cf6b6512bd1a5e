package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/edugate/monitoring-core/internal/apperr"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/location"
)

// TokenAttempts is the total number of tokens tried per write.
const TokenAttempts = 3

// RoomLookup resolves the room a SALA device is bound to.
type RoomLookup interface {
	GetByID(ctx context.Context, id string) (*location.Room, error)
}

// IdentityManager creates and updates devices and owns their tokens.
type IdentityManager struct {
	repo        Repository
	rooms       RoomLookup
	logger      *logging.Logger
	generate    func() (string, error)
	now         func() time.Time
	onCollision func()
}

// NewIdentityManager creates an IdentityManager.
func NewIdentityManager(repo Repository, rooms RoomLookup, logger *logging.Logger) *IdentityManager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &IdentityManager{
		repo:     repo,
		rooms:    rooms,
		logger:   logger,
		generate: GenerateToken,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnTokenCollision registers a callback run for every colliding token.
func (m *IdentityManager) OnTokenCollision(fn func()) {
	m.onCollision = fn
}

// Get returns a device or an apperr.NotFoundError.
func (m *IdentityManager) Get(ctx context.Context, id string) (*Device, error) {
	d, err := m.repo.GetByID(ctx, id)
	if errors.Is(err, ErrDeviceNotFound) {
		return nil, apperr.NotFound("device", id, err)
	}
	return d, err
}

// List returns devices matching filter.
func (m *IdentityManager) List(ctx context.Context, filter Filter) ([]Device, error) {
	return m.repo.List(ctx, filter)
}

// Authenticate returns the device presenting token. Inactive devices are
// returned too; the access policy records their requests as denied.
func (m *IdentityManager) Authenticate(ctx context.Context, token string) (*Device, error) {
	if token == "" {
		return nil, ErrUnknownToken
	}
	d, err := m.repo.GetByToken(ctx, token)
	if errors.Is(err, ErrDeviceNotFound) {
		return nil, ErrUnknownToken
	}
	if err != nil {
		return nil, fmt.Errorf("authenticating device: %w", err)
	}
	return d, nil
}

// Create validates d, assigns an ID when empty and a fresh token, and
// stores it. On success d holds the stored values including the token.
func (m *IdentityManager) Create(ctx context.Context, d *Device) error {
	if err := m.validate(ctx, d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := m.now()
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := m.writeWithFreshToken(ctx, d, m.repo.Create); err != nil {
		return err
	}
	m.logger.Info("device created", "device_id", d.ID, "type", d.Type, "token_prefix", logging.TokenPrefix(d.Token))
	return nil
}

// Update validates d and overwrites the stored device. The token is kept
// unless regenerateToken is set, in which case a fresh one is issued.
func (m *IdentityManager) Update(ctx context.Context, d *Device, regenerateToken bool) error {
	existing, err := m.Get(ctx, d.ID)
	if err != nil {
		return err
	}
	if err := m.validate(ctx, d); err != nil {
		return err
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = m.now()

	if !regenerateToken {
		d.Token = existing.Token
		if err := m.repo.Update(ctx, d); err != nil {
			return m.mapWriteError(d, err)
		}
		return nil
	}

	if err := m.writeWithFreshToken(ctx, d, m.repo.Update); err != nil {
		return err
	}
	m.logger.Info("device token regenerated", "device_id", d.ID, "token_prefix", logging.TokenPrefix(d.Token))
	return nil
}

// Delete removes a device that has no history.
func (m *IdentityManager) Delete(ctx context.Context, id string) error {
	err := m.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return apperr.NotFound("device", id, err)
	case errors.Is(err, ErrDeviceInUse):
		return apperr.Conflict("device", err)
	}
	return err
}

func (m *IdentityManager) validate(ctx context.Context, d *Device) error {
	d.Normalise()
	if err := d.Validate(); err != nil {
		return err
	}
	if d.RoomID == nil {
		return nil
	}

	room, err := m.rooms.GetByID(ctx, *d.RoomID)
	switch {
	case errors.Is(err, location.ErrRoomNotFound):
		return apperr.Invalid("roomId", "room not found")
	case err != nil:
		return fmt.Errorf("checking room %s: %w", *d.RoomID, err)
	case !room.IsActive:
		return apperr.Invalid("roomId", "room is inactive")
	}
	return nil
}

// writeWithFreshToken runs write with a new token, retrying on token
// collisions up to TokenAttempts tokens in total. Other failures stop
// immediately.
func (m *IdentityManager) writeWithFreshToken(ctx context.Context, d *Device, write func(context.Context, *Device) error) error {
	collisions := 0

	attempt := func() error {
		token, err := m.generate()
		if err != nil {
			return backoff.Permanent(err)
		}
		d.Token = token

		err = write(ctx, d)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrTokenConflict):
			collisions++
			if m.onCollision != nil {
				m.onCollision()
			}
			m.logger.Warn("device token collision, retrying", "device_id", d.ID, "attempt", collisions)
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, TokenAttempts-1),
		ctx,
	)
	err := backoff.Retry(attempt, policy)
	if err == nil {
		return nil
	}

	d.Token = ""
	if errors.Is(err, ErrTokenConflict) {
		return apperr.Conflict("device token",
			fmt.Errorf("%w after %d attempts", ErrTokenGenerationFailed, collisions))
	}
	return m.mapWriteError(d, err)
}

func (m *IdentityManager) mapWriteError(d *Device, err error) error {
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return apperr.NotFound("device", d.ID, err)
	case errors.Is(err, ErrDeviceExists):
		return apperr.Conflict("device id", err)
	case errors.Is(err, ErrRoomNotFound):
		return apperr.Invalid("roomId", "room not found")
	}
	return err
}
