package restbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the auth server's answer to SignUp and SignIn. AccessToken is
// empty when the backend requires a confirmation step before issuing one.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         Record `json:"user"`
}

// Claims decodes the registered JWT claims of the access token without
// verifying its signature. The client does no expiry or refresh handling
// itself; this is the hook for callers that do.
func (s *Session) Claims() (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignUp registers a new user. Metadata, when non-empty, is forwarded as
// the free-form data object attached to the user. SignUp never changes the
// client's bearer token; only SignIn does.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata Record) (*Session, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	return c.doAuth(ctx, "signup", c.baseURL+"/auth/v1/signup", body)
}

// SignIn exchanges credentials for a session. On success the returned
// access token replaces the client's bearer token, so subsequent requests
// run as the signed-in user.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.doAuth(ctx, "signin", c.baseURL+"/auth/v1/token?grant_type=password", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if session.AccessToken != "" {
		c.setBearer(session.AccessToken)
	}
	return session, nil
}

// SignOut asks the backend to revoke the current session, or the explicit
// token when one is given, then unconditionally resets the local credential
// back to the API key. The externally visible contract is "this client no
// longer authenticates as the prior user", which holds locally regardless
// of the remote outcome; a remote failure is logged, never returned.
func (c *Client) SignOut(ctx context.Context, token ...string) {
	revoke := c.bearer()
	if len(token) > 0 && token[0] != "" {
		revoke = token[0]
	}
	defer c.ResetCredential()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", http.NoBody)
	if err != nil {
		c.logger.Warn().Err(err).Msg("signout request could not be built")
		return
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+revoke)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("signout revocation failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("message", authMessage(data, resp.Status)).
			Msg("signout rejected by backend")
	}
}

// doAuth posts one auth request and classifies the response into a Session
// or an *AuthError. Some backends answer SignUp with the bare user record
// instead of a session envelope; that shape is folded into Session.User.
func (c *Client) doAuth(ctx context.Context, endpoint, rawURL string, body any) (*Session, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("auth %s: encoding body: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("auth %s: %w", endpoint, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth %s: reading response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    authMessage(data, resp.Status),
		}
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("auth %s: decoding response: %w", endpoint, err)
	}
	if session.AccessToken == "" && session.User == nil {
		var user Record
		if err := json.Unmarshal(data, &user); err == nil && len(user) > 0 {
			session.User = user
		}
	}
	return &session, nil
}
