package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/noro/vault-core/vault"
	"github.com/noro/vault-core/vaulterrors"
)

// FieldCrypto is the subset of [session.Session] the adapter needs to
// pre-encrypt outgoing fields and post-decrypt incoming ones. Accepting an
// interface here (rather than importing *session.Session directly) keeps
// the adapter testable with a stub that doesn't require a real session.
type FieldCrypto interface {
	EncryptField(itemID, plaintext string) (string, error)
	DecryptField(itemID, base64Text string) (string, error)
}

// Adapter wraps a [Transport] and a [FieldCrypto], encrypting title/data on
// outbound create/update and decrypting them on inbound fetch — exactly as
// spec §4.G describes. Tags, favorite, deleted, revision, and id remain
// cleartext: they are the server's indexable surface.
type Adapter struct {
	transport Transport
	crypto    FieldCrypto
}

// NewAdapter builds an Adapter around transport and crypto.
func NewAdapter(transport Transport, crypto FieldCrypto) *Adapter {
	return &Adapter{transport: transport, crypto: crypto}
}

// Login authenticates against the sync service; on success the
// transport's session cookie is established for subsequent calls.
func (a *Adapter) Login(ctx context.Context, email, password string) error {
	_, err := a.transport.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/sign-in/email",
		Body:   loginBody{Email: email, Password: password},
	})

	return err
}

// Fetch retrieves all items and decrypts title/data in place.
func (a *Adapter) Fetch(ctx context.Context) ([]vault.Item, error) {
	resp, err := a.transport.Do(ctx, Request{Method: http.MethodGet, Path: "/api/v1/vault/items"})
	if err != nil {
		return nil, err
	}

	var wire itemsResponse
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindHTTP, "parse items response", err)
	}

	items := make([]vault.Item, 0, len(wire.Items))

	for _, ri := range wire.Items {
		item, err := a.decrypt(ri)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

// Create encrypts title/data under the item's own id and sends a create
// request, returning the item as the server echoed it back (decrypted).
func (a *Adapter) Create(ctx context.Context, itemType, id, title string, data []byte, tags []string, favorite bool) (vault.Item, error) {
	encTitle, err := a.crypto.EncryptField(id, title)
	if err != nil {
		return vault.Item{}, err
	}

	encData, err := a.crypto.EncryptField(id, string(data))
	if err != nil {
		return vault.Item{}, err
	}

	resp, err := a.transport.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/v1/vault/items",
		Body: createBody{
			ID:       id,
			ItemType: itemType,
			Title:    encTitle,
			Data:     encData,
			Tags:     tags,
			Favorite: favorite,
		},
	})
	if err != nil {
		return vault.Item{}, err
	}

	var wire itemResponse
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return vault.Item{}, vaulterrors.Wrap(vaulterrors.KindHTTP, "parse create response", err)
	}

	return a.decrypt(wire.Item)
}

// ItemPatch carries the optional fields [Adapter.Update] may send; a nil
// field is omitted from the request entirely.
type ItemPatch struct {
	Title    *string
	Data     []byte
	Tags     []string
	Favorite *bool
}

// Update sends a partial update for the item with the given id, encrypting
// Title/Data (if present) under the item's own id first.
func (a *Adapter) Update(ctx context.Context, id string, patch ItemPatch) (vault.Item, error) {
	body := updateBody{Tags: patch.Tags, Favorite: patch.Favorite}

	if patch.Title != nil {
		encTitle, err := a.crypto.EncryptField(id, *patch.Title)
		if err != nil {
			return vault.Item{}, err
		}

		body.Title = &encTitle
	}

	if patch.Data != nil {
		encData, err := a.crypto.EncryptField(id, string(patch.Data))
		if err != nil {
			return vault.Item{}, err
		}

		body.Data = &encData
	}

	resp, err := a.transport.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/v1/vault/items/%s", id),
		Body:   body,
	})
	if err != nil {
		return vault.Item{}, err
	}

	var wire itemResponse
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return vault.Item{}, vaulterrors.Wrap(vaulterrors.KindHTTP, "parse update response", err)
	}

	return a.decrypt(wire.Item)
}

// Delete removes the item with the given id from the sync service.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	_, err := a.transport.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/v1/vault/items/%s", id),
	})

	return err
}

// decrypt converts a wire remoteItem into a [vault.Item], decrypting title
// and data under the item's own id. Created/Updated aren't part of the
// wire contract; callers that need them reconcile locally.
func (a *Adapter) decrypt(ri remoteItem) (vault.Item, error) {
	title, err := a.crypto.DecryptField(ri.ID, ri.Title)
	if err != nil {
		return vault.Item{}, err
	}

	plainData, err := a.crypto.DecryptField(ri.ID, ri.Data)
	if err != nil {
		return vault.Item{}, err
	}

	tags := make([]string, len(ri.Tags))
	for i, t := range ri.Tags {
		tags[i] = t.Name
	}

	return vault.Item{
		ID:       ri.ID,
		ItemType: ri.ItemType,
		Title:    title,
		Data:     []byte(plainData),
		Revision: ri.Revision,
		Favorite: ri.Favorite,
		Deleted:  ri.Deleted,
		Tags:     tags,
	}, nil
}
