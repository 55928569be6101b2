// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bureau-foundation/warden/lib/ref"
)

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		if err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{HomeserverURL: "://invalid"})
		if err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestServerVersions(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/versions" {
				t.Errorf("unexpected path: %s", request.URL.Path)
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			if request.Header.Get("Authorization") != "" {
				t.Error("versions endpoint should be unauthenticated")
			}
			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(ServerVersionsResponse{
				Versions: []string{"v1.11", "v1.12"},
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		versions, err := client.ServerVersions(context.Background())
		if err != nil {
			t.Fatalf("ServerVersions failed: %v", err)
		}
		if len(versions.Versions) != 2 || versions.Versions[0] != "v1.11" {
			t.Errorf("unexpected versions: %v", versions.Versions)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		client, _ := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
		if _, err := client.ServerVersions(context.Background()); err == nil {
			t.Fatal("expected error for unreachable homeserver")
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/v3/login" {
				t.Errorf("unexpected path: %s", request.URL.Path)
				writer.WriteHeader(http.StatusNotFound)
				return
			}

			var body LoginRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body.Type != "m.login.password" {
				t.Errorf("unexpected login type: %s", body.Type)
			}
			if body.User != "warden" {
				t.Errorf("unexpected username: %s", body.User)
			}

			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(AuthResponse{
				UserID:      ref.MustParseUserID("@warden:test.local"),
				AccessToken: "syt_warden_token",
				DeviceID:    "DEVICE1",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		session, err := client.Login(context.Background(), "warden", "secret")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if session.UserID() != ref.MustParseUserID("@warden:test.local") {
			t.Errorf("unexpected user ID: %s", session.UserID())
		}
		if session.DeviceID() != "DEVICE1" {
			t.Errorf("unexpected device ID: %s", session.DeviceID())
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(MatrixError{
				Code:    ErrCodeForbidden,
				Message: "Invalid password",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.Login(context.Background(), "warden", "wrong")
		if err == nil {
			t.Fatal("expected error for invalid credentials")
		}
		if !IsMatrixError(err, ErrCodeForbidden) {
			t.Errorf("expected M_FORBIDDEN error, got: %v", err)
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		client, _ := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})

		_, err := client.Login(context.Background(), "", "password")
		if err == nil {
			t.Fatal("expected error for empty username")
		}

		_, err = client.Login(context.Background(), "warden", "")
		if err == nil {
			t.Fatal("expected error for empty password")
		}
	})
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	session, err := client.SessionFromToken(ref.MustParseUserID("@warden:test.local"), "syt_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}

	if session.UserID() != ref.MustParseUserID("@warden:test.local") {
		t.Errorf("unexpected user ID: %s", session.UserID())
	}
	// DeviceID is empty when created from token (not from login).
	if session.DeviceID() != "" {
		t.Errorf("expected empty device ID, got: %s", session.DeviceID())
	}

	_, err = client.SessionFromToken(ref.MustParseUserID("@warden:test.local"), "")
	if err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestMatrixError(t *testing.T) {
	t.Run("error message format", func(t *testing.T) {
		err := &MatrixError{
			Code:       ErrCodeForbidden,
			Message:    "Access denied",
			StatusCode: 403,
		}
		expected := "matrix: M_FORBIDDEN (403): Access denied"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("IsMatrixError", func(t *testing.T) {
		err := &MatrixError{Code: ErrCodeNotFound, Message: "not found", StatusCode: 404}
		if !IsMatrixError(err, ErrCodeNotFound) {
			t.Error("IsMatrixError should match M_NOT_FOUND")
		}
		if IsMatrixError(err, ErrCodeForbidden) {
			t.Error("IsMatrixError should not match M_FORBIDDEN")
		}
	})

	t.Run("non-matrix error returns false", func(t *testing.T) {
		err := context.Canceled
		if IsMatrixError(err, ErrCodeNotFound) {
			t.Error("IsMatrixError should return false for non-matrix errors")
		}
	})
}
