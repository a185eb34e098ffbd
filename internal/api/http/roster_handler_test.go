package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"kitchen-dispatch/internal/channel"
	"kitchen-dispatch/internal/domain"
	"kitchen-dispatch/internal/master"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*master.Registry, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := master.NewRegistry()
	d := master.NewDispatcher(registry, nil, logger)

	h := NewRosterHandler(d, logger)
	h.now = func() time.Time { return time.Now().Add(90 * time.Second) }

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return registry, srv
}

func TestRosterListsStaffInOrder(t *testing.T) {
	registry, srv := newTestServer(t)
	ch, _ := channel.NewPipe()
	registry.Register("b", domain.NewCapabilitySet("grill"), ch)
	registry.Register("a", domain.NewCapabilitySet("bakery", "grill"), ch)
	_, err := registry.SelectLeastLoaded("grill")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/staff")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []StaffResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].ID)
	require.Equal(t, 1, got[0].Completed)
	require.Equal(t, "a", got[1].ID)
	require.Equal(t, []string{"bakery", "grill"}, got[1].Speciality)
	require.Equal(t, 0, got[1].Completed)
	require.NotEmpty(t, got[1].OnDutyFor)
}

func TestRosterGetStaff(t *testing.T) {
	registry, srv := newTestServer(t)
	ch, _ := channel.NewPipe()
	registry.Register("chef-1", domain.NewCapabilitySet("grill"), ch)

	resp, err := http.Get(srv.URL + "/staff/chef-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got StaffResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "chef-1", got.ID)

	missing, err := http.Get(srv.URL + "/staff/nobody")
	require.NoError(t, err)
	missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestRosterGetStaffWithSlashInID(t *testing.T) {
	registry, srv := newTestServer(t)
	ch, _ := channel.NewPipe()
	registry.Register("line/chef-1", domain.NewCapabilitySet("grill"), ch)

	for _, target := range []string{"/staff/" + url.PathEscape("line/chef-1"), "/staff/line/chef-1"} {
		resp, err := http.Get(srv.URL + target)
		require.NoError(t, err)

		var got StaffResponse
		require.Equal(t, http.StatusOK, resp.StatusCode, target)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()
		require.Equal(t, "line/chef-1", got.ID)
	}
}

func TestRosterRejectsWrites(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/staff", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRosterEmpty(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/staff/")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []StaffResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Empty(t, got)
}
