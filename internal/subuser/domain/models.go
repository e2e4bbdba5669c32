// Package domain contains persistence models for the sub-user directory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status of a sub-user account. Inactive accounts keep their data but cannot
// log in.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// PermissionSet holds the eleven application-area flags of a sub-user.
type PermissionSet struct {
	Dashboard          bool `gorm:"column:perm_dashboard;not null;default:false" json:"dashboard"`
	Invoices           bool `gorm:"column:perm_invoices;not null;default:false" json:"invoices"`
	Quotes             bool `gorm:"column:perm_quotes;not null;default:false" json:"quotes"`
	Clients            bool `gorm:"column:perm_clients;not null;default:false" json:"clients"`
	Products           bool `gorm:"column:perm_products;not null;default:false" json:"products"`
	Suppliers          bool `gorm:"column:perm_suppliers;not null;default:false" json:"suppliers"`
	StockManagement    bool `gorm:"column:perm_stock_management;not null;default:false" json:"stockManagement"`
	SupplierManagement bool `gorm:"column:perm_supplier_management;not null;default:false" json:"supplierManagement"`
	HRManagement       bool `gorm:"column:perm_hr_management;not null;default:false" json:"hrManagement"`
	Reports            bool `gorm:"column:perm_reports;not null;default:false" json:"reports"`
	Settings           bool `gorm:"column:perm_settings;not null;default:false" json:"settings"`
}

// Areas lists the permission names in a stable order.
func Areas() []string {
	return []string{
		"dashboard",
		"invoices",
		"quotes",
		"clients",
		"products",
		"suppliers",
		"stockManagement",
		"supplierManagement",
		"hrManagement",
		"reports",
		"settings",
	}
}

// SelectAll turns every flag on.
func (p *PermissionSet) SelectAll() {
	*p = PermissionSet{
		Dashboard:          true,
		Invoices:           true,
		Quotes:             true,
		Clients:            true,
		Products:           true,
		Suppliers:          true,
		StockManagement:    true,
		SupplierManagement: true,
		HRManagement:       true,
		Reports:            true,
		Settings:           true,
	}
}

// Reset turns every flag off except dashboard, which stays on.
func (p *PermissionSet) Reset() {
	*p = PermissionSet{Dashboard: true}
}

// Any reports whether at least one flag is on.
func (p PermissionSet) Any() bool {
	return p.Dashboard || p.Invoices || p.Quotes || p.Clients || p.Products ||
		p.Suppliers || p.StockManagement || p.SupplierManagement ||
		p.HRManagement || p.Reports || p.Settings
}

// Allows reports whether the named application area is enabled.
func (p PermissionSet) Allows(area string) bool {
	switch area {
	case "dashboard":
		return p.Dashboard
	case "invoices":
		return p.Invoices
	case "quotes":
		return p.Quotes
	case "clients":
		return p.Clients
	case "products":
		return p.Products
	case "suppliers":
		return p.Suppliers
	case "stockManagement":
		return p.StockManagement
	case "supplierManagement":
		return p.SupplierManagement
	case "hrManagement":
		return p.HRManagement
	case "reports":
		return p.Reports
	case "settings":
		return p.Settings
	default:
		return false
	}
}

// SubUser is a permission-scoped account acting on behalf of an organization.
// The organization remains the data-access authority; OrgID is a reference,
// not ownership.
type SubUser struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"column:org_id;not null;index" json:"org_id"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Email       string        `gorm:"type:text;not null;uniqueIndex" json:"email"`
	SecretHash  string        `gorm:"column:secret_hash;type:text;not null" json:"-"`
	Permissions PermissionSet `gorm:"embedded" json:"permissions"`
	Status      Status        `gorm:"type:text;not null;default:'active'" json:"status"`
	LastLoginAt *time.Time    `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SubUser) TableName() string { return "sub_users" }
