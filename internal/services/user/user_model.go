package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleQA     Role = "QA"
	RoleDesign Role = "DESIGN"
	RoleDev    Role = "DEV"
	RolePM     Role = "PM"
	RoleAdmin  Role = "Admin"
)

// ReportRoles are the roles hours are broken down by. Admin is not one of them.
var ReportRoles = []Role{RoleQA, RoleDesign, RoleDev, RolePM}

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	IsDeleted bool      `db:"is_deleted" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
