package cli

import (
	"context"
	"errors"

	"github.com/noro/vault-core/vaultdaemon"
)

// fieldCrypto is the minimal per-item encrypt/decrypt surface both a
// direct *session.Session and a daemon-backed session satisfy — the same
// shape [sync.FieldCrypto] expects.
type fieldCrypto interface {
	EncryptField(itemID, plaintext string) (string, error)
	DecryptField(itemID, base64Text string) (string, error)
}

// daemonCrypto adapts a [vaultdaemon.SessionClient] (whose methods take a
// context and vault path) to the context-free, path-bound [fieldCrypto]
// shape the sync adapter and vault commands share.
type daemonCrypto struct {
	ctx       context.Context
	client    *vaultdaemon.SessionClient
	vaultPath string
}

func (d *daemonCrypto) EncryptField(itemID, plaintext string) (string, error) {
	return d.client.EncryptField(d.ctx, d.vaultPath, itemID, plaintext)
}

func (d *daemonCrypto) DecryptField(itemID, base64Text string) (string, error) {
	return d.client.DecryptField(d.ctx, d.vaultPath, itemID, base64Text)
}

// dialDaemon connects to the session-cache daemon and confirms vaultPath
// has a live, unlocked session cached. It returns
// [vaultdaemon.ErrSocketUnavailable] when the daemon isn't running, or
// errNoDaemonSession when it is running but IsLocked reports that the
// vault hasn't been unlocked through it.
func dialDaemon(ctx context.Context, vaultPath string) (*vaultdaemon.SessionClient, error) {
	client, err := vaultdaemon.Dial()
	if err != nil {
		return nil, err
	}

	locked, err := client.IsLocked(ctx, vaultPath)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	if locked {
		_ = client.Close()
		return nil, errNoDaemonSession
	}

	return client, nil
}

// errNoDaemonSession indicates the daemon is reachable but holds no
// unlocked session for the requested vault path.
var errNoDaemonSession = errors.New("no cached session for this vault; run `vlt unlock`")
