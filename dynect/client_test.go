package dynect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyninc/oci-dns-migration-script/migrate"
)

const testToken = "test-session-token"

// fakeDynAPI emulates the handful of Dyn REST services the client uses.
func fakeDynAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/REST/Session/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"status": "success", "data": {"token": "` + testToken + `", "version": "3.7.13"}, "msgs": []}`))
		case http.MethodDelete:
			w.Write([]byte(`{"status": "success", "data": {}, "msgs": []}`))
		default:
			http.Error(w, "bad method", http.StatusMethodNotAllowed)
		}
	})

	requireToken := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Auth-Token") != testToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status": "failure", "data": {}, "msgs": [{"INFO": "login required", "ERR_CD": "INVALID_REQUEST", "LVL": "ERROR"}]}`))
			return false
		}
		return true
	}

	mux.HandleFunc("/REST/Zone/primary.example.com/", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		w.Write([]byte(`{"status": "success", "data": {"zone": "primary.example.com", "zone_type": "Primary", "serial": 2021}, "msgs": []}`))
	})
	mux.HandleFunc("/REST/Zone/mirror.example.com/", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		w.Write([]byte(`{"status": "success", "data": {"zone": "mirror.example.com", "zone_type": "Secondary", "serial": 2021}, "msgs": []}`))
	})
	mux.HandleFunc("/REST/Secondary/mirror.example.com/", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		w.Write([]byte(`{"status": "success", "data": {"masters": ["203.0.113.10", "203.0.113.11"], "tsig_key_name": "xfr-key"}, "msgs": []}`))
	})
	mux.HandleFunc("/REST/TSIGKey/xfr-key/", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		w.Write([]byte(`{"status": "success", "data": {"name": "xfr-key", "algorithm": "hmac-sha256", "secret": "c2VjcmV0"}, "msgs": []}`))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status": "failure", "data": {}, "msgs": [{"INFO": "No such zone", "ERR_CD": "NOT_FOUND", "LVL": "ERROR"}]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testLogin(t *testing.T) *Client {
	t.Helper()
	server := fakeDynAPI(t)
	client, err := Login(context.Background(), Config{
		APIURL:   server.URL,
		Customer: "acme",
		Username: "migrator",
		Password: "hunter2",
	})
	require.NoError(t, err)
	return client
}

func TestLoginStoresSessionToken(t *testing.T) {
	client := testLogin(t)
	assert.Equal(t, testToken, client.token)
	assert.NoError(t, client.Logout(context.Background()))
}

func TestDescribePrimaryZone(t *testing.T) {
	client := testLogin(t)

	info, err := client.Describe(context.Background(), "primary.example.com")
	require.NoError(t, err)
	assert.Equal(t, migrate.Primary, info.Kind)
	assert.Equal(t, "primary.example.com", info.Name)
	assert.Empty(t, info.Masters)
}

func TestDescribeSecondaryZone(t *testing.T) {
	client := testLogin(t)

	info, err := client.Describe(context.Background(), "mirror.example.com")
	require.NoError(t, err)
	assert.Equal(t, migrate.Secondary, info.Kind)
	require.Len(t, info.Masters, 2)
	assert.Equal(t, "203.0.113.10", info.Masters[0].Address)
	assert.Equal(t, "xfr-key", info.Masters[0].TSIGKeyName)
	assert.Equal(t, "xfr-key", info.Masters[1].TSIGKeyName)
}

func TestDescribeMissingZone(t *testing.T) {
	client := testLogin(t)

	_, err := client.Describe(context.Background(), "nonexistent.example.com")
	var lookup *LookupError
	require.ErrorAs(t, err, &lookup)
	assert.Contains(t, lookup.Error(), "nonexistent.example.com")
	assert.Contains(t, lookup.Error(), "permission")
}

func TestTSIGKeyMaterial(t *testing.T) {
	client := testLogin(t)

	key, err := client.TSIGKey(context.Background(), "xfr-key")
	require.NoError(t, err)
	assert.Equal(t, migrate.KeyMaterial{Name: "xfr-key", Algorithm: "hmac-sha256", Secret: "c2VjcmV0"}, key)
}

func TestTrailingDotStrippedFromPaths(t *testing.T) {
	client := testLogin(t)

	// the fake API only registers the dot-less path
	info, err := client.Describe(context.Background(), "primary.example.com.")
	require.NoError(t, err)
	assert.Equal(t, migrate.Primary, info.Kind)
}
