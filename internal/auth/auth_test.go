package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[string]string

func (m memStore) GetSecret(id string) (string, error) {
	s, ok := m[id]
	if !ok {
		return "", errors.New("element not found")
	}
	return s, nil
}

func TestTokenSource_None(t *testing.T) {
	ts, err := TokenSource(context.Background(), Options{}, nil)
	require.NoError(t, err)
	assert.Nil(t, ts)
	assert.False(t, Options{}.Enabled())
}

func TestTokenSource_Static(t *testing.T) {
	ts, err := TokenSource(context.Background(), Options{Token: "abc"}, nil)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestTokenSource_Keychain(t *testing.T) {
	store := memStore{"local": "from-keychain"}

	ts, err := TokenSource(context.Background(), Options{TokenKeychainID: "local"}, store)
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", tok.AccessToken)

	_, err = TokenSource(context.Background(), Options{TokenKeychainID: "missing"}, store)
	assert.ErrorContains(t, err, "missing")

	_, err = TokenSource(context.Background(), Options{TokenKeychainID: "local"}, nil)
	assert.Error(t, err)
}

func TestTokenSource_ClientCredentials(t *testing.T) {
	var gotGrant, gotID, gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrant = r.Form.Get("grant_type")
		gotID, gotSecret, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"cc-token","token_type":"bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	opts := Options{
		TokenURL:        srv.URL,
		ClientID:        "rpcprobe",
		TokenKeychainID: "rpcprobe-secret",
		Scopes:          []string{"rpc"},
	}
	assert.True(t, opts.Enabled())

	ts, err := TokenSource(context.Background(), opts, memStore{"rpcprobe-secret": "s3cr3t"})
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "cc-token", tok.AccessToken)
	assert.Equal(t, "client_credentials", gotGrant)
	// With a client id the keychain entry is the client secret, not a token.
	assert.Equal(t, "rpcprobe", gotID)
	assert.Equal(t, "s3cr3t", gotSecret)
}

func TestTokenSource_ClientCredentialsValidation(t *testing.T) {
	_, err := TokenSource(context.Background(), Options{ClientID: "rpcprobe"}, nil)
	assert.ErrorContains(t, err, "token_url")

	_, err = TokenSource(context.Background(), Options{ClientID: "rpcprobe", TokenURL: "http://x"}, nil)
	assert.ErrorContains(t, err, "client_secret")
}
