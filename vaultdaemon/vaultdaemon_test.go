package vaultdaemon

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/noro/vault-core/keyringstore"
	"github.com/noro/vault-core/session"
)

// pipeClient drives a sessionServer over an in-memory net.Pipe, exercising
// the same length-prefixed JSON frame protocol a real UNIX socket client
// would use, without touching the filesystem socket path.
type pipeClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func newPipeClient(t *testing.T, handler *sessionServer) *pipeClient {
	t.Helper()

	serverConn, clientConn := net.Pipe()

	go handler.serveConn(context.Background(), serverConn)

	t.Cleanup(func() { _ = clientConn.Close() })

	return &pipeClient{conn: clientConn, r: bufio.NewReader(clientConn)}
}

func (c *pipeClient) call(req request) response {
	if err := writeFrame(c.conn, req); err != nil {
		panic(err)
	}

	var resp response
	if err := readFrame(c.r, &resp); err != nil {
		panic(err)
	}

	return resp
}

func setupVault(t *testing.T) (vaultPath, secretKey string) {
	t.Helper()

	vaultPath = filepath.Join(t.TempDir(), "vault.db")

	keyring, err := keyringstore.Open(vaultPath)
	if err != nil {
		t.Fatalf("keyringstore.Open: %v", err)
	}

	s, err := session.New(context.Background(), keyring)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	secretKey, err = s.Setup(context.Background(), "hunter2")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	s.Lock()

	return vaultPath, secretKey
}

func TestLoginEncryptDecryptField(t *testing.T) {
	vaultPath, secretKey := setupVault(t)

	handler := newSessionHandler()
	client := newPipeClient(t, handler)

	resp := client.call(request{
		Op:        opLogin,
		VaultPath: vaultPath,
		Password:  "hunter2",
		SecretKey: secretKey,
		TTL:       "1m",
	})
	if !resp.OK {
		t.Fatalf("login failed: %s", resp.Error)
	}

	const itemID = "11111111-1111-1111-1111-111111111111"

	encResp := client.call(request{
		Op:        opEncryptField,
		VaultPath: vaultPath,
		ItemID:    itemID,
		Text:      "secret",
	})
	if !encResp.OK {
		t.Fatalf("encrypt_field failed: %s", encResp.Error)
	}

	decResp := client.call(request{
		Op:        opDecryptField,
		VaultPath: vaultPath,
		ItemID:    itemID,
		Text:      encResp.Text,
	})
	if !decResp.OK {
		t.Fatalf("decrypt_field failed: %s", decResp.Error)
	}

	if decResp.Text != "secret" {
		t.Fatalf("decrypt_field = %q, want %q", decResp.Text, "secret")
	}
}

func TestLoginWrongPasswordFails(t *testing.T) {
	vaultPath, secretKey := setupVault(t)

	handler := newSessionHandler()
	client := newPipeClient(t, handler)

	resp := client.call(request{
		Op:        opLogin,
		VaultPath: vaultPath,
		Password:  "wrong password",
		SecretKey: secretKey,
		TTL:       "1m",
	})
	if resp.OK {
		t.Fatal("expected login to fail with the wrong password")
	}
}

func TestEncryptFieldWithoutLoginFails(t *testing.T) {
	vaultPath, _ := setupVault(t)

	handler := newSessionHandler()
	client := newPipeClient(t, handler)

	resp := client.call(request{
		Op:        opEncryptField,
		VaultPath: vaultPath,
		ItemID:    "item-1",
		Text:      "secret",
	})
	if resp.OK {
		t.Fatal("expected encrypt_field to fail without a cached session")
	}
}

func TestLogoutEvictsSession(t *testing.T) {
	vaultPath, secretKey := setupVault(t)

	handler := newSessionHandler()
	client := newPipeClient(t, handler)

	loginResp := client.call(request{
		Op:        opLogin,
		VaultPath: vaultPath,
		Password:  "hunter2",
		SecretKey: secretKey,
		TTL:       "1m",
	})
	if !loginResp.OK {
		t.Fatalf("login failed: %s", loginResp.Error)
	}

	logoutResp := client.call(request{Op: opLogout, VaultPath: vaultPath})
	if !logoutResp.OK {
		t.Fatalf("logout failed: %s", logoutResp.Error)
	}

	lockedResp := client.call(request{Op: opIsLocked, VaultPath: vaultPath})
	if !lockedResp.Locked {
		t.Fatal("expected session to be locked after logout")
	}
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	vaultPath, secretKey := setupVault(t)

	handler := newSessionHandler()
	client := newPipeClient(t, handler)

	loginResp := client.call(request{
		Op:        opLogin,
		VaultPath: vaultPath,
		Password:  "hunter2",
		SecretKey: secretKey,
		TTL:       "20ms",
	})
	if !loginResp.OK {
		t.Fatalf("login failed: %s", loginResp.Error)
	}

	time.Sleep(100 * time.Millisecond)

	lockedResp := client.call(request{Op: opIsLocked, VaultPath: vaultPath})
	if !lockedResp.Locked {
		t.Fatal("expected session to expire after its TTL")
	}
}
