// Package auth turns configured credentials into an oauth2.TokenSource used
// to set the Authorization header on JSON-RPC calls.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Options selects one of the supported credential kinds, checked in order:
// static token, client credentials, keychain token. With a client id set,
// TokenKeychainID names the stored client secret instead of a token.
type Options struct {
	Token           string   `toml:"token"`
	TokenKeychainID string   `toml:"token_keychain_id"`
	TokenURL        string   `toml:"token_url"`
	ClientID        string   `toml:"client_id"`
	ClientSecret    string   `toml:"client_secret"`
	Scopes          []string `toml:"scopes"`
}

// Enabled reports whether any credential is configured.
func (o Options) Enabled() bool {
	return o.Token != "" || o.TokenKeychainID != "" || o.ClientID != ""
}

// TokenSource builds the token source for opts following the order on
// Options. It returns nil, nil when no credentials are configured.
func TokenSource(ctx context.Context, opts Options, store SecretStore) (oauth2.TokenSource, error) {
	switch {
	case opts.Token != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}), nil

	case opts.ClientID != "":
		if opts.TokenURL == "" {
			return nil, errors.New("auth: token_url is required for client credentials")
		}
		secret := opts.ClientSecret
		if secret == "" && opts.TokenKeychainID != "" {
			s, err := lookup(store, opts.TokenKeychainID)
			if err != nil {
				return nil, err
			}
			secret = s
		}
		if secret == "" {
			return nil, errors.New("auth: client_secret is required for client credentials")
		}
		cfg := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: secret,
			TokenURL:     opts.TokenURL,
			Scopes:       opts.Scopes,
		}
		return cfg.TokenSource(ctx), nil

	case opts.TokenKeychainID != "":
		tok, err := lookup(store, opts.TokenKeychainID)
		if err != nil {
			return nil, err
		}
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}), nil
	}
	return nil, nil
}

func lookup(store SecretStore, id string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("auth: no secret store for %q", id)
	}
	s, err := store.GetSecret(id)
	if err != nil {
		return "", fmt.Errorf("auth: read secret %q: %w", id, err)
	}
	if s == "" {
		return "", fmt.Errorf("auth: secret %q is empty", id)
	}
	return s, nil
}
