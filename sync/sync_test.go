package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/noro/vault-core/session"
	"github.com/noro/vault-core/sync"
	"github.com/noro/vault-core/vaulterrors"
)

// stubKeyring is a no-op [session.Keyring] for tests that only need an
// unlocked session.
type stubKeyring struct {
	data map[string][]byte
}

func newStubKeyring() *stubKeyring {
	return &stubKeyring{data: make(map[string][]byte)}
}

func (k *stubKeyring) Get(_ context.Context, name string) ([]byte, error) {
	return k.data[name], nil
}

func (k *stubKeyring) Set(_ context.Context, name string, value []byte) error {
	k.data[name] = value
	return nil
}

func (k *stubKeyring) Delete(_ context.Context, name string) error {
	delete(k.data, name)
	return nil
}

func unlockedSession(t *testing.T) *session.Session {
	t.Helper()

	ctx := context.Background()

	s, err := session.New(ctx, newStubKeyring())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	if _, err := s.Setup(ctx, "hunter2"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	return s
}

func TestAdapterCreateAndFetchRoundTrip(t *testing.T) {
	s := unlockedSession(t)

	var storedTitle, storedData string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/vault/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)

			storedTitle = body["title"].(string)
			storedData = body["data"].(string)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"item": map[string]any{
					"id":       "item-1",
					"type":     "login",
					"title":    storedTitle,
					"data":     storedData,
					"revision": 1,
					"favorite": false,
					"deleted":  false,
					"tags":     []string{},
				},
			})
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id":       "item-1",
						"type":     "login",
						"title":    storedTitle,
						"data":     storedData,
						"revision": 1,
						"favorite": false,
						"deleted":  false,
						"tags":     []string{},
					},
				},
			})
		}
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	transport, err := sync.NewHTTPTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPTransport: %v", err)
	}

	adapter := sync.NewAdapter(transport, s)

	created, err := adapter.Create(context.Background(), "login", "item-1", "example.com", []byte("payload"), nil, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Title != "example.com" {
		t.Fatalf("Create returned Title %q, want %q", created.Title, "example.com")
	}

	if strings.Contains(storedTitle, "example.com") {
		t.Fatal("title sent over the wire must be ciphertext, not plaintext")
	}

	fetched, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(fetched) != 1 || fetched[0].Title != "example.com" {
		t.Fatalf("Fetch = %+v, want one item titled example.com", fetched)
	}
}

func TestAdapterFetchExtractsTagNames(t *testing.T) {
	s := unlockedSession(t)

	title, err := s.EncryptField("item-1", "example.com")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	data, err := s.EncryptField("item-1", "payload")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/vault/items", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":       "item-1",
					"type":     "login",
					"title":    title,
					"data":     data,
					"revision": 1,
					"favorite": false,
					"deleted":  false,
					"tags": []map[string]any{
						{"id": "tag-1", "name": "work"},
						{"id": "tag-2", "name": "email"},
					},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	transport, err := sync.NewHTTPTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPTransport: %v", err)
	}

	adapter := sync.NewAdapter(transport, s)

	fetched, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(fetched) != 1 {
		t.Fatalf("Fetch = %+v, want one item", fetched)
	}

	want := []string{"work", "email"}

	if len(fetched[0].Tags) != len(want) || fetched[0].Tags[0] != want[0] || fetched[0].Tags[1] != want[1] {
		t.Fatalf("Tags = %v, want %v", fetched[0].Tags, want)
	}
}

func TestTransportClassifiesAuthAndHTTPErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/unauthorized", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	transport, err := sync.NewHTTPTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPTransport: %v", err)
	}

	_, err = transport.Do(context.Background(), sync.Request{Method: http.MethodGet, Path: "/unauthorized"})
	if !errors.Is(err, vaulterrors.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}

	_, err = transport.Do(context.Background(), sync.Request{Method: http.MethodGet, Path: "/broken"})
	if !errors.Is(err, vaulterrors.ErrHTTP) {
		t.Fatalf("expected ErrHTTP, got %v", err)
	}
}

func TestTransportClassifiesConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conflict", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]int{"revision": 7})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	transport, err := sync.NewHTTPTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPTransport: %v", err)
	}

	_, err = transport.Do(context.Background(), sync.Request{Method: http.MethodGet, Path: "/conflict"})
	if !errors.Is(err, vaulterrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	revision, ok := vaulterrors.ConflictRevision(err)
	if !ok || revision != 7 {
		t.Fatalf("ConflictRevision = (%d, %v), want (7, true)", revision, ok)
	}
}
