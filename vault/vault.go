package vault

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/noro/vault-core/aead"
	"github.com/noro/vault-core/vaulterrors"
)

// Option configures a [Vault] at construction time, following the
// teacher's functional-options pattern (vault/vault.go's Option/config).
type Option func(*config)

type config struct {
	initial Data
}

// WithInitialData seeds a new Vault with an already-decoded [Data], e.g.
// one produced by a prior [Vault.Load].
func WithInitialData(data Data) Option {
	return func(c *config) {
		c.initial = data
	}
}

// Vault owns an in-memory [Data] aggregate guarded by a single exclusive
// lock, and an [aead.Cipher] used to load/save whole-vault encrypted
// snapshots. Cipher is agnostic to whether the caller derives it from the
// vault key or a separate local snapshot key (spec §4.F).
type Vault struct {
	cipher aead.Cipher

	mu   sync.Mutex
	data Data
}

// New builds a Vault around cipher, applying opts in order.
func New(cipher aead.Cipher, opts ...Option) *Vault {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	return &Vault{cipher: cipher, data: c.initial}
}

// CreateItem mints a new item with a fresh UUIDv4 id, revision 1, and
// created == updated == now, appends it, and bumps the vault's updated
// timestamp.
func (v *Vault) CreateItem(itemType, title string, data []byte, tags []string, favorite bool) Item {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now().Unix()

	item := Item{
		ID:       newItemID(),
		ItemType: itemType,
		Title:    title,
		Data:     data,
		Revision: 1,
		Favorite: favorite,
		Deleted:  false,
		Tags:     tags,
		Created:  now,
		Updated:  now,
	}

	v.data.Items = append(v.data.Items, item)
	v.data.Updated = now

	return item
}

// GetItem returns the item with the given id, if present and not deleted.
// A missing or soft-deleted id returns (Item{}, false) — not an error.
func (v *Vault) GetItem(id string) (Item, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, ok := v.findVisible(id)
	if !ok {
		return Item{}, false
	}

	return v.data.Items[i], true
}

// ItemUpdate carries the optional fields [Vault.UpdateItem] may apply.
// A nil field is left unchanged.
type ItemUpdate struct {
	Title    *string
	Data     []byte
	Tags     []string
	Favorite *bool
}

// UpdateItem finds the non-deleted item with the given id and applies only
// the fields set in upd, incrementing its revision and updated timestamp
// and propagating updated to the vault. Returns [vaulterrors.ErrNotFound]
// if the item is absent or already deleted.
func (v *Vault) UpdateItem(id string, upd ItemUpdate) (Item, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, ok := v.findVisible(id)
	if !ok {
		return Item{}, vaulterrors.Wrap(vaulterrors.KindNotFound, fmt.Sprintf("item %s", id), nil)
	}

	item := &v.data.Items[i]

	if upd.Title != nil {
		item.Title = *upd.Title
	}

	if upd.Data != nil {
		item.Data = upd.Data
	}

	if upd.Tags != nil {
		item.Tags = upd.Tags
	}

	if upd.Favorite != nil {
		item.Favorite = *upd.Favorite
	}

	now := time.Now().Unix()
	item.Revision++
	item.Updated = now
	v.data.Updated = now

	return *item, nil
}

// DeleteItem soft-deletes the item with the given id: sets Deleted,
// increments revision, and bumps updated. Not idempotent — deleting an
// already-deleted or absent id returns [vaulterrors.ErrNotFound].
func (v *Vault) DeleteItem(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, ok := v.findVisible(id)
	if !ok {
		return vaulterrors.Wrap(vaulterrors.KindNotFound, fmt.Sprintf("item %s", id), nil)
	}

	now := time.Now().Unix()
	v.data.Items[i].Deleted = true
	v.data.Items[i].Revision++
	v.data.Items[i].Updated = now
	v.data.Updated = now

	return nil
}

// ListItems returns a snapshot of all non-deleted items in insertion order.
func (v *Vault) ListItems() []Item {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Item, 0, len(v.data.Items))

	for _, item := range v.data.Items {
		if !item.Deleted {
			out = append(out, item)
		}
	}

	return out
}

// SearchItems returns non-deleted items whose title contains query as a
// case-insensitive substring, insertion order preserved. Matching runs
// against the in-memory plaintext title; the server never sees it.
func (v *Vault) SearchItems(query string) []Item {
	v.mu.Lock()
	defer v.mu.Unlock()

	needle := strings.ToLower(query)

	out := make([]Item, 0)

	for _, item := range v.data.Items {
		if item.Deleted {
			continue
		}

		if strings.Contains(strings.ToLower(item.Title), needle) {
			out = append(out, item)
		}
	}

	return out
}

// findVisible returns the index of the non-deleted item with the given id.
// Caller must hold v.mu.
func (v *Vault) findVisible(id string) (int, bool) {
	for i := range v.data.Items {
		if v.data.Items[i].ID == id && !v.data.Items[i].Deleted {
			return i, true
		}
	}

	return 0, false
}

// Save canonically serializes the current state to JSON and AEAD-encrypts
// it under the Vault's cipher, returning the nonce-prepended snapshot.
func (v *Vault) Save() ([]byte, error) {
	v.mu.Lock()
	serialized, err := json.Marshal(v.data)
	v.mu.Unlock()

	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindEncryption, "serialize vault snapshot", err)
	}

	envelope, err := aead.Encrypt(v.cipher, serialized)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindEncryption, "encrypt vault snapshot", err)
	}

	return envelope, nil
}

// Load decrypts an encrypted snapshot produced by [Vault.Save] under the
// Vault's cipher, parses it, and atomically replaces the in-memory state.
func (v *Vault) Load(envelope []byte) error {
	serialized, err := aead.Decrypt(v.cipher, envelope)
	if err != nil {
		return vaulterrors.Wrap(vaulterrors.KindDecryption, "decrypt vault snapshot", err)
	}

	var data Data
	if err := json.Unmarshal(serialized, &data); err != nil {
		return vaulterrors.Wrap(vaulterrors.KindDecryption, "parse vault snapshot", err)
	}

	v.mu.Lock()
	v.data = data
	v.mu.Unlock()

	return nil
}
