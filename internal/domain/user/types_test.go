//go:build unit

package user_test

import (
	"testing"

	"stayhub/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  user.Role
		errIs error
	}{
		{name: "success: user", in: "user", want: user.RoleUser},
		{name: "success: owner", in: "owner", want: user.RoleOwner},
		{name: "success: admin", in: "admin", want: user.RoleAdmin},
		{name: "error: legacy viewer role", in: "viewer", errIs: user.ErrInvalidRole},
		{name: "error: empty", in: "", errIs: user.ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := user.NewRole(tc.in)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIdentity(t *testing.T) {
	assert.True(t, user.Anonymous().IsAnonymous())
	assert.False(t, user.Anonymous().IsGuest())

	guest := user.Identity{ID: uuid.New(), Role: user.RoleUser}
	assert.False(t, guest.IsAnonymous())
	assert.True(t, guest.IsGuest())
	assert.False(t, guest.IsAdmin())

	admin := user.Identity{ID: uuid.New(), Role: user.RoleAdmin}
	assert.True(t, admin.IsAdmin())
}
