package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderClient(t *testing.T) {
	c := &HeaderClient{}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Uid", "42")
	uid, err := c.Auth(r)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)

	// Cookie fallback.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "x-uid", Value: "7"})
	uid, err = c.Auth(r)
	require.NoError(t, err)
	assert.Equal(t, int64(7), uid)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		r = httptest.NewRequest(http.MethodGet, "/", nil)
		if bad != "" {
			r.Header.Set("X-Uid", bad)
		}
		_, err = c.Auth(r)
		assert.Error(t, err, "uid %q", bad)
	}
}
