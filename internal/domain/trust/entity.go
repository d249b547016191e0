package trust

import (
	"errors"
	"time"

	"stayhub/internal/domain/pricing"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus     = errors.New("invalid trust connection status")
	ErrNotOwner          = errors.New("only the owner can change a trust connection")
	ErrRemovedConnection = errors.New("removed trust connection cannot be changed")
)

type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusRemoved Status = "removed"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPending, StatusRemoved:
		return true
	default:
		return false
	}
}

// Connection grants a trusted user a discount on all of the owner's properties.
// Connections are never deleted; removal is a status change.
type Connection struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	trustedID uuid.UUID
	discount  pricing.Discount
	status    Status
	updatedAt time.Time
}

func Reconstruct(id, ownerID, trustedID uuid.UUID, discount pricing.Discount, status Status, updatedAt time.Time) *Connection {
	return &Connection{
		id:        id,
		ownerID:   ownerID,
		trustedID: trustedID,
		discount:  discount,
		status:    status,
		updatedAt: updatedAt,
	}
}

func (c *Connection) ID() uuid.UUID              { return c.id }
func (c *Connection) OwnerID() uuid.UUID         { return c.ownerID }
func (c *Connection) TrustedID() uuid.UUID       { return c.trustedID }
func (c *Connection) Discount() pricing.Discount { return c.discount }
func (c *Connection) Status() Status             { return c.status }
func (c *Connection) UpdatedAt() time.Time       { return c.updatedAt }
func (c *Connection) IsActive() bool             { return c.status == StatusActive }

// Update applies an owner's change. Nil arguments leave the field untouched.
func (c *Connection) Update(actor uuid.UUID, discount *pricing.Discount, status *Status, now time.Time) error {
	if actor != c.ownerID {
		return ErrNotOwner
	}
	if c.status == StatusRemoved {
		return ErrRemovedConnection
	}
	if status != nil {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		c.status = *status
	}
	if discount != nil {
		c.discount = *discount
	}
	c.updatedAt = now
	return nil
}
