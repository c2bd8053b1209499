//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/accounthub/apiserver/config"
	"github.com/accounthub/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const serverPort = 18080

var baseURL = fmt.Sprintf("http://localhost:%d", serverPort)

func TestMain(m *testing.M) {
	if os.Getenv("DATABASE_URL") == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set, skipping e2e tests")
		os.Exit(0)
	}

	if err := runMigrations(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	os.Setenv("SERVER_PORT", fmt.Sprint(serverPort))
	cfg := config.LoadConfig()

	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		os.Exit(1)
	}
	go func() {
		_ = srv.Start()
	}()

	if err := waitForHealth(baseURL + "/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	os.Exit(code)
}

func runMigrations() error {
	migrator, err := migrate.New("file://../../db/migrations", os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func waitForHealth(url string) error {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("health check timed out: %s", url)
}

func postJSON(t *testing.T, path string, payload map[string]string) (int, string) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, string(raw)
}

func TestAccountLifecycle(t *testing.T) {
	username := fmt.Sprintf("alice_%d", time.Now().UnixNano())
	password := "testpass123!"

	status, body := postJSON(t, "/api/signup", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"password":     password,
		"display_name": "Alice Test",
	})
	if status != http.StatusOK {
		t.Fatalf("signup status %d: %s", status, body)
	}

	status, body = postJSON(t, "/api/signup", map[string]string{
		"username":     username,
		"email":        "second@example.com",
		"password":     "otherpass",
		"display_name": "Impostor",
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d: %s", status, body)
	}

	wrongStatus, wrongBody := postJSON(t, "/api/login", map[string]string{
		"username": username,
		"password": "not-the-password",
	})
	unknownStatus, unknownBody := postJSON(t, "/api/login", map[string]string{
		"username": "no_such_user_ever",
		"password": "whatever",
	})
	if wrongStatus != http.StatusBadRequest {
		t.Fatalf("wrong-password login: expected 400, got %d", wrongStatus)
	}
	if wrongStatus != unknownStatus || wrongBody != unknownBody {
		t.Fatalf("login responses distinguishable: %d %q vs %d %q",
			wrongStatus, wrongBody, unknownStatus, unknownBody)
	}

	loginTime := time.Now().UTC()
	status, body = postJSON(t, "/api/login", map[string]string{
		"username": username,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, body)
	}

	resp, err := http.Get(baseURL + "/api/users")
	if err != nil {
		t.Fatalf("GET /api/users: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list users status %d", resp.StatusCode)
	}

	var users []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}

	var found map[string]any
	for _, user := range users {
		if user["username"] == username {
			found = user
			break
		}
	}
	if found == nil {
		t.Fatalf("user %q missing from listing", username)
	}
	if _, exposed := found["password_hash"]; exposed {
		t.Fatalf("password_hash exposed in listing")
	}

	rawLastLogin, ok := found["last_login"].(string)
	if !ok {
		t.Fatalf("last_login not set after login: %v", found["last_login"])
	}
	lastLogin, err := time.Parse(time.RFC3339Nano, rawLastLogin)
	if err != nil {
		t.Fatalf("parse last_login: %v", err)
	}
	if lastLogin.Before(loginTime.Add(-time.Second)) {
		t.Fatalf("last_login %s earlier than login time %s", lastLogin, loginTime)
	}
}

func TestSignUpEmptyUsername(t *testing.T) {
	status, body := postJSON(t, "/api/signup", map[string]string{
		"username":     "",
		"email":        "e@x.com",
		"password":     "x",
		"display_name": "E",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}

	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if parsed.Error != "Username cannot be empty" {
		t.Fatalf("unexpected validation message: %q", parsed.Error)
	}
}
