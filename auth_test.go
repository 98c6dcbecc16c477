package restbase_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restbase "github.com/restbase/restbase.go"
)

// newAuthClient wires a client to a backend whose auth endpoints answer
// with authStatus/authBody and whose REST endpoints answer 200 [].
func newAuthClient(t *testing.T, authStatus int, authBody string) (*restbase.Client, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(http.StatusOK, `[]`)
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/", func(w http.ResponseWriter, r *http.Request) {
		backend.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(authStatus)
		_, _ = w.Write([]byte(authBody))
	})
	mux.HandleFunc("/rest/v1/", backend.handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return restbase.New(server.URL, "anon-key"), backend
}

func TestSignInRotatesBearerToken(t *testing.T) {
	client, backend := newAuthClient(t, http.StatusOK,
		`{"access_token":"user-token","token_type":"bearer","expires_in":3600,"refresh_token":"refresh","user":{"id":"u1"}}`)
	ctx := context.Background()

	session, err := client.SignIn(ctx, "alice@example.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-token", session.AccessToken)
	assert.Equal(t, "u1", session.User["id"])

	signin := backend.last(t)
	assert.Equal(t, "/auth/v1/token", signin.Path)
	assert.Equal(t, "grant_type=password", signin.RawQuery)
	assert.JSONEq(t, `{"email":"alice@example.test","password":"secret"}`, signin.Body)

	_, err = client.Read(ctx, "comments", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", backend.last(t).Header.Get("Authorization"))
}

func TestSignInRejectionLeavesTokenAlone(t *testing.T) {
	client, backend := newAuthClient(t, http.StatusBadRequest,
		`{"error_description":"Invalid login credentials"}`)
	ctx := context.Background()

	_, err := client.SignIn(ctx, "alice@example.test", "wrong")
	require.Error(t, err)

	var authErr *restbase.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "signin", authErr.Endpoint)
	assert.Equal(t, "Invalid login credentials", authErr.Message)

	_, err = client.Read(ctx, "comments", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", backend.last(t).Header.Get("Authorization"))
}

func TestSignUpSendsMetadataAndKeepsToken(t *testing.T) {
	client, backend := newAuthClient(t, http.StatusOK,
		`{"id":"u2","email":"bob@example.test"}`)
	ctx := context.Background()

	session, err := client.SignUp(ctx, "bob@example.test", "secret", restbase.Record{"nickname": "bob"})
	require.NoError(t, err)

	signup := backend.last(t)
	assert.Equal(t, "/auth/v1/signup", signup.Path)
	assert.JSONEq(t, `{"email":"bob@example.test","password":"secret","data":{"nickname":"bob"}}`, signup.Body)

	// A bare user body folds into Session.User; no token was issued and
	// the client stays anonymous.
	assert.Empty(t, session.AccessToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "u2", session.User["id"])

	_, err = client.Read(ctx, "comments", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", backend.last(t).Header.Get("Authorization"))
}

func TestSignOutResetsTokenEvenOnRemoteFailure(t *testing.T) {
	client, backend := newAuthClient(t, http.StatusUnauthorized, `{"msg":"session missing"}`)
	ctx := context.Background()

	client.UseToken("user-token")
	var logs bytes.Buffer
	client.Logger(zerolog.New(&logs))

	client.SignOut(ctx)

	logout := backend.last(t)
	assert.Equal(t, "/auth/v1/logout", logout.Path)
	assert.Equal(t, "Bearer user-token", logout.Header.Get("Authorization"))
	assert.Contains(t, logs.String(), "signout")

	_, err := client.Read(ctx, "comments", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", backend.last(t).Header.Get("Authorization"))
}

func TestSignOutExplicitToken(t *testing.T) {
	client, backend := newAuthClient(t, http.StatusNoContent, "")
	ctx := context.Background()

	client.SignOut(ctx, "stale-token")

	logout := backend.last(t)
	assert.Equal(t, "Bearer stale-token", logout.Header.Get("Authorization"))
}

func TestUseTokenAndResetCredential(t *testing.T) {
	client, backend := newClient(t, http.StatusOK, `[]`)
	ctx := context.Background()

	client.UseToken("restored-token")
	_, err := client.Read(ctx, "comments", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer restored-token", backend.last(t).Header.Get("Authorization"))

	client.ResetCredential()
	_, err = client.Read(ctx, "comments", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer anon-key", backend.last(t).Header.Get("Authorization"))
}

func TestSessionClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(expiry),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	session := &restbase.Session{AccessToken: token}
	claims, err := session.Claims()
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, expiry.Unix(), claims.ExpiresAt.Unix())
}

func TestSessionClaimsRejectsGarbage(t *testing.T) {
	session := &restbase.Session{AccessToken: "not-a-jwt"}
	_, err := session.Claims()
	require.Error(t, err)
}
