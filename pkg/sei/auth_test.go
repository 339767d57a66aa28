package sei

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita/tramita/pkg/config"
)

func TestLoginShortCircuitsWhenAuthenticated(t *testing.T) {
	// The logout control resolving means the session is live; Login must
	// return without touching the form or navigating. The stub page would
	// panic on any navigation, so a clean true proves the short-circuit.
	root := &stubRoot{
		semantic: &stubNode{name: "semantic"},
		fallback: &stubNode{name: "fallback"},
	}
	c := newStubClient(root)
	c.cfg = config.Session{Username: "fulano", Password: "segredo"}

	ok, err := c.Login("", "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsLoggedIn(t *testing.T) {
	t.Run("logout control present", func(t *testing.T) {
		root := &stubRoot{
			semantic: &stubNode{name: "semantic"},
			fallback: &stubNode{name: "fallback"},
		}
		c := newStubClient(root)

		ok, err := c.IsLoggedIn()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("logout control absent", func(t *testing.T) {
		root := &stubRoot{
			semantic: &stubNode{name: "semantic", waitErr: errors.New("timeout")},
			fallback: &stubNode{name: "fallback", waitErr: errors.New("timeout")},
		}
		c := newStubClient(root)

		ok, err := c.IsLoggedIn()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLogoutNoOpWhenLoggedOut(t *testing.T) {
	root := &stubRoot{
		semantic: &stubNode{name: "semantic", waitErr: errors.New("timeout")},
		fallback: &stubNode{name: "fallback", waitErr: errors.New("timeout")},
	}
	c := newStubClient(root)

	assert.NoError(t, c.Logout())
}
