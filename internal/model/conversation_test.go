package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleClient))
	assert.True(t, ValidRole(RoleConcierge))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
}

func TestOppositeRole(t *testing.T) {
	assert.Equal(t, RoleConcierge, OppositeRole(RoleClient))
	assert.Equal(t, RoleClient, OppositeRole(RoleConcierge))
}
