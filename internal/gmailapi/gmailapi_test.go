package gmailapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	raw := AuthURL(Credentials{ClientID: "client-123", ClientSecret: "secret"})

	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, RedirectURL, q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "gmail.send")
	assert.Contains(t, q.Get("scope"), "gmail.readonly")
}
