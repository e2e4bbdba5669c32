package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionSetSelectAll(t *testing.T) {
	var perms PermissionSet
	perms.SelectAll()

	for _, area := range Areas() {
		assert.True(t, perms.Allows(area), "area %s should be enabled", area)
	}
	assert.True(t, perms.Any())
}

func TestPermissionSetReset(t *testing.T) {
	var perms PermissionSet
	perms.SelectAll()
	perms.Reset()

	assert.True(t, perms.Dashboard)
	for _, area := range Areas() {
		if area == "dashboard" {
			continue
		}
		assert.False(t, perms.Allows(area), "area %s should be disabled", area)
	}
	assert.True(t, perms.Any(), "reset keeps dashboard on, so the set is never empty")
}

func TestPermissionSetAny(t *testing.T) {
	var perms PermissionSet
	assert.False(t, perms.Any())

	perms.Reports = true
	assert.True(t, perms.Any())
}

func TestPermissionSetAllowsUnknownArea(t *testing.T) {
	var perms PermissionSet
	perms.SelectAll()
	assert.False(t, perms.Allows("payroll"))
}

func TestAreasMatchPermissionFields(t *testing.T) {
	assert.Len(t, Areas(), 11)
}
