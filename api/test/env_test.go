package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Haidepptrai/yoga-client/api"
	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/alexedwards/scs/v2"
	"github.com/sirupsen/logrus"
)

// TestEnv runs the full API over an in-memory store with a cookie-jar
// client, so tests exercise the same session flow the app does.
type TestEnv struct {
	URL    string
	Server *httptest.Server
	Store  *docstore.Memory

	client *http.Client
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := docstore.NewMemory()

	session := scs.New()
	session.Lifetime = time.Hour

	srv := httptest.NewServer(api.APIMux(api.APIConfig{
		Log:     log,
		Store:   store,
		Session: session,
	}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("initializing cookie jar: %v", err)
	}

	return &TestEnv{
		URL:    srv.URL,
		Server: srv,
		Store:  store,
		client: &http.Client{Jar: jar},
	}
}

func (env *TestEnv) Client() *http.Client { return env.client }

// request sends a JSON request through the session-carrying client and
// decodes the response body into out when out is non-nil.
func (env *TestEnv) request(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		buf = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, env.URL+path, buf)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := env.client.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return w
}

func (env *TestEnv) signupOK(t *testing.T, email, password string) {
	t.Helper()

	creds := map[string]string{"email": email, "password": password}
	w := env.request(t, http.MethodPost, "/auth/signup", creds, nil)
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't sign up %s: status code %s", email, w.Status)
	}
}

func (env *TestEnv) loginOK(t *testing.T, email, password string) {
	t.Helper()

	creds := map[string]string{"email": email, "password": password}
	w := env.request(t, http.MethodPost, "/auth/login", creds, nil)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't log in %s: status code %s", email, w.Status)
	}
}

func (env *TestEnv) logoutOK(t *testing.T) {
	t.Helper()

	w := env.request(t, http.MethodPost, "/auth/logout", nil, nil)
	if w.StatusCode != http.StatusNoContent && w.StatusCode != http.StatusOK {
		t.Fatalf("can't log out: status code %s", w.Status)
	}
}

// seedClass writes a published course and one of its sessions straight
// into the store, the way the external admin surface would.
func (env *TestEnv) seedClass(t *testing.T, sessionID, courseID int, classDate string) {
	t.Helper()
	ctx := context.Background()

	courseData := map[string]any{
		"dayOfWeek":   "Saturday",
		"typeOfClass": "Vinyasa",
		"duration":    60,
		"capacity":    20,
		"price":       15,
		"published":   true,
		"createdAt":   1000 + courseID,
	}
	if err := env.Store.Set(ctx, "yoga_courses", fmt.Sprintf("%d", courseID), courseData, false); err != nil {
		t.Fatal(err)
	}

	sessionData := map[string]any{
		"courseId":  courseID,
		"classDate": classDate,
		"teacher":   "Maya",
		"createdAt": 1000 + sessionID,
	}
	if err := env.Store.Set(ctx, "yoga_sessions", fmt.Sprintf("%d", sessionID), sessionData, false); err != nil {
		t.Fatal(err)
	}
}
