// Package domain defines the session model produced by the establisher.
//
// A session is a tagged union: it is either an owner-admin session, created
// exclusively through identity-provider state reconciliation, or a
// permission-scoped sub-user session, created from the sub-user directory.
// Callers branch on Role or use the shared accessors; there is no way to
// construct a session that is both.
package domain

import (
	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
)

// Role distinguishes the two session variants.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session is the read surface shared by both variants.
type Session interface {
	Role() Role
	IsAdmin() bool
	AccountID() snowflake.ID
	OrgID() snowflake.ID
	Email() string
	DisplayName() string
	// Allows reports whether the session may enter the named application
	// area. Admin sessions allow every area.
	Allows(area string) bool
	Organization() *orgdomain.Organization
}

// AdminSession is the owner-admin variant. It carries the full organization
// record as reconciled at sign-in.
type AdminSession struct {
	accountID snowflake.ID
	email     string
	org       *orgdomain.Organization
}

func NewAdminSession(accountID snowflake.ID, email string, org *orgdomain.Organization) *AdminSession {
	return &AdminSession{accountID: accountID, email: email, org: org}
}

func (s *AdminSession) Role() Role              { return RoleAdmin }
func (s *AdminSession) IsAdmin() bool           { return true }
func (s *AdminSession) AccountID() snowflake.ID { return s.accountID }
func (s *AdminSession) Email() string           { return s.email }
func (s *AdminSession) Allows(string) bool      { return true }

func (s *AdminSession) OrgID() snowflake.ID {
	if s.org == nil {
		return 0
	}
	return s.org.ID
}

func (s *AdminSession) DisplayName() string {
	if s.org == nil {
		return s.email
	}
	return s.org.Name
}

func (s *AdminSession) Organization() *orgdomain.Organization { return s.org }

// ScopedSession is the sub-user variant. Access is limited to the areas
// enabled on the sub-user record at login time.
type ScopedSession struct {
	user *subuserdomain.SubUser
	org  *orgdomain.Organization
}

func NewScopedSession(user *subuserdomain.SubUser, org *orgdomain.Organization) *ScopedSession {
	return &ScopedSession{user: user, org: org}
}

func (s *ScopedSession) Role() Role              { return RoleUser }
func (s *ScopedSession) IsAdmin() bool           { return false }
func (s *ScopedSession) AccountID() snowflake.ID { return s.user.ID }
func (s *ScopedSession) Email() string           { return s.user.Email }
func (s *ScopedSession) DisplayName() string     { return s.user.Name }

func (s *ScopedSession) OrgID() snowflake.ID { return s.user.OrgID }

func (s *ScopedSession) Allows(area string) bool {
	return s.user.Permissions.Allows(area)
}

func (s *ScopedSession) Organization() *orgdomain.Organization { return s.org }

// Permissions exposes the flag set carried by the sub-user record.
func (s *ScopedSession) Permissions() subuserdomain.PermissionSet {
	return s.user.Permissions
}

var (
	_ Session = (*AdminSession)(nil)
	_ Session = (*ScopedSession)(nil)
)
