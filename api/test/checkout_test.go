package test

import (
	"net/http"
	"testing"
)

type checkoutResult struct {
	Joined []string `json:"joined"`
	Failed []struct {
		ClassID string `json:"classId"`
		Reason  string `json:"reason"`
	} `json:"failed"`
}

func TestCheckoutFlow(t *testing.T) {
	env := NewTestEnv(t)

	env.seedClass(t, 10, 7, "2026-09-06")
	env.seedClass(t, 11, 8, "2026-09-07")

	env.signupOK(t, "linh@example.com", "s3cret-pass")

	// Fill the cart.
	for _, id := range []string{"10", "11"} {
		w := env.request(t, http.MethodPut, "/cart/items", map[string]string{"classId": id}, nil)
		if w.StatusCode != http.StatusNoContent {
			t.Fatalf("can't add class %s to cart: status code %s", id, w.Status)
		}
	}

	var cartItems []map[string]any
	w := env.request(t, http.MethodGet, "/cart", nil, &cartItems)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't read cart: status code %s", w.Status)
	}
	if len(cartItems) != 2 {
		t.Fatalf("expected 2 cart items, got %d", len(cartItems))
	}

	// A fresh account has a blank profile, so checkout refuses.
	var gate struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	w = env.request(t, http.MethodPost, "/checkout", nil, &gate)
	if w.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete profile must answer 422, got %s", w.Status)
	}
	if gate.Reason != "incomplete_profile" {
		t.Fatalf("expected reason incomplete_profile, got %q", gate.Reason)
	}

	// The cart is untouched by the refusal.
	env.request(t, http.MethodGet, "/cart", nil, &cartItems)
	if len(cartItems) != 2 {
		t.Fatalf("a gated checkout must leave the cart alone, got %d items", len(cartItems))
	}

	// Complete the profile and retry.
	up := map[string]string{"name": "Linh", "phone": "0123456789"}
	w = env.request(t, http.MethodPut, "/profile", up, nil)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't update profile: status code %s", w.Status)
	}

	var res checkoutResult
	w = env.request(t, http.MethodPost, "/checkout", nil, &res)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("checkout must succeed now: status code %s", w.Status)
	}
	if len(res.Joined) != 2 || len(res.Failed) != 0 {
		t.Fatalf("expected 2 joined and 0 failed, got %+v", res)
	}

	env.request(t, http.MethodGet, "/cart", nil, &cartItems)
	if len(cartItems) != 0 {
		t.Fatalf("cart must be empty after checkout, got %d items", len(cartItems))
	}

	var joined []struct {
		ClassID string `json:"classId"`
		Session struct {
			ClassDate string `json:"classDate"`
		} `json:"session"`
		Course struct {
			TypeOfClass string `json:"typeOfClass"`
		} `json:"course"`
	}
	w = env.request(t, http.MethodGet, "/classes/joined", nil, &joined)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't list joined classes: status code %s", w.Status)
	}
	if len(joined) != 2 {
		t.Fatalf("expected 2 joined classes, got %d", len(joined))
	}
	if joined[0].Session.ClassDate == "" || joined[0].Course.TypeOfClass == "" {
		t.Fatalf("joined classes must resolve session and course: %+v", joined[0])
	}

	// A second checkout on the now-empty cart is a harmless no-op.
	w = env.request(t, http.MethodPost, "/checkout", nil, &res)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("empty checkout must succeed: status code %s", w.Status)
	}
	if len(res.Joined) != 0 {
		t.Fatalf("empty checkout must join nothing, got %+v", res)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := NewTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/cart"},
		{http.MethodPut, "/cart/items"},
		{http.MethodDelete, "/cart/items/10"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/classes/joined"},
		{http.MethodGet, "/profile"},
		{http.MethodPut, "/profile"},
	}
	for _, p := range paths {
		w := env.request(t, p.method, p.path, nil, nil)
		if w.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s without a session: got %s, want 401", p.method, p.path, w.Status)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := NewTestEnv(t)

	env.signupOK(t, "linh@example.com", "s3cret-pass")

	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	w := env.request(t, http.MethodGet, "/auth/me", nil, &me)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't read own identity: status code %s", w.Status)
	}
	if me.Email != "linh@example.com" || me.ID == "" {
		t.Fatalf("unexpected identity: %+v", me)
	}

	env.logoutOK(t)

	w = env.request(t, http.MethodGet, "/auth/me", nil, nil)
	if w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("identity after logout must answer 401, got %s", w.Status)
	}

	w = env.request(t, http.MethodGet, "/cart", nil, nil)
	if w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("logged-out session must be rejected, got %s", w.Status)
	}

	// Wrong password keeps the door shut.
	creds := map[string]string{"email": "linh@example.com", "password": "wrong-pass"}
	w = env.request(t, http.MethodPost, "/auth/login", creds, nil)
	if w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password must answer 401, got %s", w.Status)
	}

	// Duplicate signup conflicts.
	creds = map[string]string{"email": "linh@example.com", "password": "another-pass"}
	w = env.request(t, http.MethodPost, "/auth/signup", creds, nil)
	if w.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup must answer 409, got %s", w.Status)
	}

	env.loginOK(t, "linh@example.com", "s3cret-pass")
	w = env.request(t, http.MethodGet, "/cart", nil, nil)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("logged-in session must pass, got %s", w.Status)
	}
}
