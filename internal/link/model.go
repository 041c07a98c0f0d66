package link

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Link maps a human-chosen slug to a target URL. A link without a creator is
// an orphan: it was created anonymously, cannot be mutated through the
// owner-scoped path, and is purged by the sweeper once old enough.
type Link struct {
	bun.BaseModel `bun:"table:links,alias:l"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Slug      string     `bun:"slug,notnull" json:"slug"`
	Target    string     `bun:"target,notnull" json:"target"`
	CreatorID *uuid.UUID `bun:"creator_id,type:uuid" json:"creator_id,omitempty"`

	Active bool `bun:"active,notnull,default:true" json:"active"`
	// ActiveFrom and ActiveTill form an advisory validity window. The redirect
	// path currently only honors Active.
	ActiveFrom *time.Time `bun:"active_from" json:"active_from,omitempty"`
	ActiveTill *time.Time `bun:"active_till" json:"active_till,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// IsOrphan reports whether the link has no owning user.
func (l *Link) IsOrphan() bool {
	return l.CreatorID == nil
}

// OwnedBy reports whether userID owns the link. Orphans are owned by nobody.
func (l *Link) OwnedBy(userID uuid.UUID) bool {
	return l.CreatorID != nil && *l.CreatorID == userID
}
