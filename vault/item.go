// Package vault implements the in-memory vault aggregate (spec §4.F): an
// ordered collection of [Item]s with revisions, soft-deletion, search, and
// whole-vault encrypted snapshotting. It is grounded in
// original_source/mobile-core/vault.rs's Mutex<VaultData> shape, translated
// to Go idiom, and in the teacher's functional-options constructor style.
package vault

import (
	"github.com/google/uuid"
)

// Item is a single vault record. Title and Data hold plaintext in memory;
// only their ciphertext forms ever cross a [sync.Transport] boundary.
type Item struct {
	ID       string   `json:"id"`
	ItemType string   `json:"type"`
	Title    string   `json:"title"`
	Data     []byte   `json:"data"`
	Revision int      `json:"revision"`
	Favorite bool     `json:"favorite"`
	Deleted  bool     `json:"deleted"`
	Tags     []string `json:"tags"`
	Created  int64    `json:"created"`
	Updated  int64    `json:"updated"`
}

// Data is the aggregate's persisted shape: an ordered sequence of items
// plus a timestamp of the last mutation.
type Data struct {
	Items   []Item `json:"items"`
	Updated int64  `json:"updated"`
}

func newItemID() string {
	return uuid.NewString()
}
