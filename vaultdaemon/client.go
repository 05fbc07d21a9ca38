package vaultdaemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// SessionClient is a client for the session-cache daemon's UNIX socket
// protocol (Login/Logout/IsLocked/EncryptField/DecryptField/Close), carried
// over length-prefixed JSON frames.
type SessionClient struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to the daemon socket after verifying it is owned by the
// current user, not a symlink, has the expected permissions, and is
// actually a socket.
func Dial() (*SessionClient, error) {
	if err := verifySocketSecure(socketPath, os.Getuid()); err != nil {
		return nil, err
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSocketUnavailable, err)
	}

	return &SessionClient{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (c *SessionClient) call(_ context.Context, req request) (response, error) {
	if err := writeFrame(c.conn, req); err != nil {
		return response{}, err
	}

	var resp response
	if err := readFrame(c.r, &resp); err != nil {
		return response{}, err
	}

	if len(resp.Error) > 0 {
		return resp, errors.New(resp.Error)
	}

	return resp, nil
}

// Login asks the daemon to unlock vaultPath's session with password and
// secretKey, caching it for ttl.
func (c *SessionClient) Login(ctx context.Context, vaultPath, password, secretKey, ttl string) error {
	if len(vaultPath) == 0 {
		return ErrEmptyVaultPath
	}

	_, err := c.call(ctx, request{
		Op:        opLogin,
		VaultPath: vaultPath,
		Password:  password,
		SecretKey: secretKey,
		TTL:       ttl,
	})

	return err
}

// Logout evicts vaultPath's cached session, if any.
func (c *SessionClient) Logout(ctx context.Context, vaultPath string) error {
	if len(vaultPath) == 0 {
		return ErrEmptyVaultPath
	}

	_, err := c.call(ctx, request{Op: opLogout, VaultPath: vaultPath})

	return err
}

// IsLocked reports whether vaultPath has no cached unlocked session.
func (c *SessionClient) IsLocked(ctx context.Context, vaultPath string) (bool, error) {
	resp, err := c.call(ctx, request{Op: opIsLocked, VaultPath: vaultPath})
	if err != nil {
		return true, err
	}

	return resp.Locked, nil
}

// EncryptField asks the daemon to encrypt plaintext under vaultPath's
// cached session, scoped to itemID.
func (c *SessionClient) EncryptField(ctx context.Context, vaultPath, itemID, plaintext string) (string, error) {
	resp, err := c.call(ctx, request{
		Op:        opEncryptField,
		VaultPath: vaultPath,
		ItemID:    itemID,
		Text:      plaintext,
	})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

// DecryptField asks the daemon to decrypt base64Text under vaultPath's
// cached session, scoped to itemID.
func (c *SessionClient) DecryptField(ctx context.Context, vaultPath, itemID, base64Text string) (string, error) {
	resp, err := c.call(ctx, request{
		Op:        opDecryptField,
		VaultPath: vaultPath,
		ItemID:    itemID,
		Text:      base64Text,
	})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

// Close closes the underlying socket connection.
func (c *SessionClient) Close() error {
	return c.conn.Close()
}

func verifySocketSecure(path string, uid int) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSocketUnavailable, err)
	}

	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return errors.New("unexpected file stat type")
	}

	if int(stat.Uid) != uid {
		return fmt.Errorf("unexpected socket owner uid: got %d, want %d", stat.Uid, uid)
	}

	if (fi.Mode() & os.ModeSymlink) != 0 {
		return fmt.Errorf("refusing to follow symlink: %s", path)
	}

	if fi.Mode().Perm() != socketPerm {
		return fmt.Errorf("socket file has insecure permissions: %v", fi.Mode().Perm())
	}

	if (fi.Mode() & os.ModeSocket) == 0 {
		return fmt.Errorf("file is not a socket: %s", path)
	}

	return nil
}
