package vault_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/noro/vault-core/aead"
	"github.com/noro/vault-core/vault"
	"github.com/noro/vault-core/vaulterrors"
)

func testCipher(t *testing.T) aead.Cipher {
	t.Helper()

	key := make([]byte, aead.KeySize)
	for i := range key {
		key[i] = byte(i)
	}

	c, err := aead.NewAESGCM(key)
	if err != nil {
		t.Fatalf("NewAESGCM: %v", err)
	}

	return c
}

func TestCreateGetItem(t *testing.T) {
	v := vault.New(testCipher(t))

	item := v.CreateItem("login", "example.com", []byte(`{"user":"a"}`), []string{"work"}, false)

	if item.Revision != 1 {
		t.Fatalf("Revision = %d, want 1", item.Revision)
	}

	if item.Created != item.Updated {
		t.Fatalf("Created %d != Updated %d on creation", item.Created, item.Updated)
	}

	got, ok := v.GetItem(item.ID)
	if !ok {
		t.Fatal("GetItem: not found")
	}

	if diff := cmp.Diff(item, got); diff != "" {
		t.Fatalf("GetItem mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateItemIncrementsRevision(t *testing.T) {
	v := vault.New(testCipher(t))

	item := v.CreateItem("note", "old title", []byte("old"), nil, false)

	newTitle := "new title"

	updated, err := v.UpdateItem(item.ID, vault.ItemUpdate{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	if updated.Title != "new title" {
		t.Fatalf("Title = %q, want %q", updated.Title, "new title")
	}

	if updated.Revision != 2 {
		t.Fatalf("Revision = %d, want 2", updated.Revision)
	}

	if updated.Updated < item.Created {
		t.Fatal("Updated should not regress before Created")
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	v := vault.New(testCipher(t))

	_, err := v.UpdateItem("does-not-exist", vault.ItemUpdate{})
	if !errors.Is(err, vaulterrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItemNotIdempotent(t *testing.T) {
	v := vault.New(testCipher(t))

	item := v.CreateItem("note", "title", nil, nil, false)

	if err := v.DeleteItem(item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	if _, ok := v.GetItem(item.ID); ok {
		t.Fatal("GetItem should not return a deleted item")
	}

	if err := v.DeleteItem(item.ID); !errors.Is(err, vaulterrors.ErrNotFound) {
		t.Fatalf("second DeleteItem: expected ErrNotFound, got %v", err)
	}
}

func TestListAndSearchExcludeDeleted(t *testing.T) {
	v := vault.New(testCipher(t))

	a := v.CreateItem("login", "GitHub", nil, nil, false)
	_ = v.CreateItem("login", "GitLab", nil, nil, false)
	c := v.CreateItem("note", "Shopping list", nil, nil, false)

	if err := v.DeleteItem(c.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	items := v.ListItems()
	if len(items) != 2 {
		t.Fatalf("ListItems returned %d items, want 2", len(items))
	}

	if items[0].ID != a.ID {
		t.Fatal("ListItems did not preserve insertion order")
	}

	matches := v.SearchItems("git")
	if len(matches) != 2 {
		t.Fatalf("SearchItems(%q) returned %d matches, want 2", "git", len(matches))
	}

	noMatches := v.SearchItems("shopping")
	if len(noMatches) != 0 {
		t.Fatalf("SearchItems should not match the soft-deleted item, got %d matches", len(noMatches))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	v := vault.New(testCipher(t))

	v.CreateItem("login", "example.com", []byte("payload"), []string{"work"}, true)
	v.CreateItem("note", "todo", []byte("buy milk"), nil, false)

	snapshot, err := v.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := vault.New(testCipher(t))
	if err := fresh.Load(snapshot); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff(v.ListItems(), fresh.ListItems()); diff != "" {
		t.Fatalf("round-tripped items mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWrongCipherFails(t *testing.T) {
	v := vault.New(testCipher(t))
	v.CreateItem("login", "example.com", nil, nil, false)

	snapshot, err := v.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	wrongKey := make([]byte, aead.KeySize)
	wrongKey[0] = 0xFF

	wrongCipher, err := aead.NewAESGCM(wrongKey)
	if err != nil {
		t.Fatalf("NewAESGCM: %v", err)
	}

	fresh := vault.New(wrongCipher)
	if err := fresh.Load(snapshot); !errors.Is(err, vaulterrors.ErrDecryption) {
		t.Fatalf("expected ErrDecryption, got %v", err)
	}
}
