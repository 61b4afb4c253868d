// Package auth supplies the signed-in identity the rest of the core
// consumes: scs-backed sessions, email/password accounts, and OIDC login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Haidepptrai/yoga-client/docstore"
	"golang.org/x/crypto/bcrypt"
)

// Collection keys credential documents by lowercased email; the profile
// document in users/ is keyed by the generated user id.
const Collection = "user_auth"

const (
	sessionUserID = "userID"
	sessionEmail  = "email"
	sessionRole   = "role"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Account struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fetchAccount(ctx context.Context, store docstore.Store, email string) (Account, error) {
	doc, err := store.Get(ctx, Collection, normalizeEmail(email))
	if err != nil {
		return Account{}, err
	}

	var a Account
	if err := doc.To(&a); err != nil {
		return Account{}, fmt.Errorf("decoding account[%s]: %w", email, err)
	}
	return a, nil
}

func createAccount(ctx context.Context, store docstore.Store, a Account) error {
	data, err := docstore.ToData(a)
	if err != nil {
		return fmt.Errorf("encoding account[%s]: %w", a.Email, err)
	}

	if err := store.Set(ctx, Collection, normalizeEmail(a.Email), data, false); err != nil {
		return fmt.Errorf("creating account[%s]: %w", a.Email, err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

func checkPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }
