package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Username      string    `bun:"username,notnull" json:"username"`
	DisplayName   string    `bun:"display_name,notnull" json:"display_name"`
	Email         string    `bun:"email,notnull" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"` // Never expose password hash in JSON
	EmailVerified bool      `bun:"email_verified,notnull,default:false" json:"email_verified"`
	Active        bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
