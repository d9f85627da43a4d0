package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleSystem, RoleUser, RoleAssistant, RoleTool} {
		assert.True(t, ValidRole(role), role)
	}
	assert.False(t, ValidRole("moderator"))
	assert.False(t, ValidRole(""))
}
