package hris

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/runctx"
)

type fakeHRIS struct {
	logins   atomic.Int32
	reads    atomic.Int32
	expireAt int32
	records  map[string][]Record
}

func (f *fakeHRIS) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := f.logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + string(rune('0'+n))})
	})
	mux.HandleFunc("/data/read", func(w http.ResponseWriter, r *http.Request) {
		n := f.reads.Add(1)
		if r.Header.Get("Authorization") == "" || n == f.expireAt {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Entity string `json:"entity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.records[body.Entity]})
	})
	return mux
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestClient(t *testing.T, f *fakeHRIS, password string) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", Username: "svc", Password: password}, quietLogger())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}

func TestReadData_LogsInLazily(t *testing.T) {
	f := &fakeHRIS{records: map[string][]Record{
		EntityEmployee: {{"employee_id": "E1", "name": "Ana"}},
	}}
	c := newTestClient(t, f, "secret")

	recs, err := c.ReadData(context.Background(), EntityEmployee, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "E1", recs[0].String(FieldEmployeeID))
	assert.Equal(t, int32(1), f.logins.Load())

	_, err = c.ReadData(context.Background(), EntityEmployee, Filter{"active": true})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.logins.Load(), "token is reused")
}

func TestReadData_RelogsOnExpiredToken(t *testing.T) {
	f := &fakeHRIS{expireAt: 2, records: map[string][]Record{
		EntityOrganization: {{"code": "1", "level": float64(1)}},
	}}
	c := newTestClient(t, f, "secret")

	_, err := c.ReadData(context.Background(), EntityOrganization, nil)
	require.NoError(t, err)
	recs, err := c.ReadData(context.Background(), EntityOrganization, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, int32(2), f.logins.Load())
}

func TestReadData_BadCredentials(t *testing.T) {
	c := newTestClient(t, &fakeHRIS{}, "wrong")

	_, err := c.ReadData(context.Background(), EntityEmployee, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestReadData_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "t"})
			return
		}
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	_, err = c.ReadData(context.Background(), EntityEmployee, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestReadData_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "t"})
			return
		}
		w.Header().Set("Content-Length", "512")
		_, _ = w.Write([]byte(`{"data": [{"employee_id": "E1"}`))
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	_, err = c.ReadData(context.Background(), EntityEmployee, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "read /data/read")
}

func TestReadData_TagsRequestsWithTask(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "t"})
			return
		}
		got.Store(r.Header.Get("X-Sync-Task"))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []Record{}})
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	ctx := runctx.With(context.Background(), runctx.Run{Request: core.RunRequest{TaskID: core.TaskEmployeeSync}})
	_, err = c.ReadData(ctx, EntityEmployee, nil)
	require.NoError(t, err)
	assert.Equal(t, core.TaskEmployeeSync, got.Load())
}

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"code":   float64(12),
		"name":   "  Ops ",
		"level":  "2",
		"active": "false",
		"ratio":  1.5,
	}
	assert.Equal(t, "12", r.String("code"))
	assert.Equal(t, "Ops", r.String("name"))
	assert.Equal(t, "1.5", r.String("ratio"))
	assert.Equal(t, "", r.String("missing"))

	n, err := r.Int("level")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = r.Int("missing")
	assert.Error(t, err)

	assert.False(t, r.Bool("active", true))
	assert.True(t, r.Bool("missing", true))
}
