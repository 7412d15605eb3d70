package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Role
		expected bool
	}{
		{"admin acts as staff", Admin, Staff, true},
		{"staff acts as viewer", Staff, Viewer, true},
		{"staff is not admin", Staff, Admin, false},
		{"viewer is not staff", Viewer, Staff, false},
		{"same level", Viewer, Viewer, true},
		{"unknown role", Role("guest"), Viewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.HasPermission(tt.required))
		})
	}
}

func TestNewRole(t *testing.T) {
	role, err := NewRole("staff")
	assert.NoError(t, err)
	assert.Equal(t, Staff, role)

	_, err = NewRole("moderator")
	assert.Error(t, err)
}
