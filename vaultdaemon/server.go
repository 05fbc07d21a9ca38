package vaultdaemon

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/noro/vault-core/keyringstore"
	"github.com/noro/vault-core/session"
)

// safeMap is a generic map guarded by a sync.RWMutex, carried over
// unchanged from the teacher's session table: readers (load) only ever
// take the read lock, writers (store/delete) take the write lock.
type safeMap[K comparable, V any] struct {
	data map[K]V
	mu   sync.RWMutex
}

func newSafeMap[K comparable, V any]() *safeMap[K, V] {
	return &safeMap[K, V]{data: make(map[K]V)}
}

func (m *safeMap[K, V]) store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
}

//nolint:ireturn
func (m *safeMap[K, V]) load(key K) (value V, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok = m.data[key]

	return
}

// Range iterates over all key-value pairs in the map and calls f for each.
//
// Iteration stops if f returns false. The map is write locked for the duration
// of the iteration.
func (m *safeMap[K, V]) Range(f func(K, V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range m.data {
		if !f(k, v) {
			break
		}
	}
}

func (m *safeMap[K, V]) delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
}

// cachedSession holds an unlocked [session.Session] for one vault path,
// expiring after duration unless refreshed by a new Login.
type cachedSession struct {
	session  *session.Session
	duration time.Duration
	done     chan struct{}
}

func newCachedSession(s *session.Session, duration time.Duration) *cachedSession {
	return &cachedSession{session: s, duration: duration, done: make(chan struct{})}
}

func (c *cachedSession) start(cleanup func()) {
	defer cleanup()

	timer := time.NewTimer(c.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		c.session.Lock()
	case <-c.done:
	}
}

func (c *cachedSession) stop() {
	select {
	case <-c.done:
		// already closed
	default:
		close(c.done)
	}
}

// sessionServer dispatches daemon requests against a table of cached,
// per-vault-path crypto sessions. It caches an unlocked *session.Session
// rather than any key-derivation metadata, so field encrypt/decrypt never
// re-derives the AUK for the lifetime of the cache entry.
type sessionServer struct {
	sessions *safeMap[string, *cachedSession]
}

func newSessionHandler() *sessionServer {
	return &sessionServer{
		sessions: newSafeMap[string, *cachedSession](),
	}
}

// stopAll stops all active sessions safely via safeMap.
func (sh *sessionServer) stopAll() {
	sh.sessions.Range(func(_ string, c *cachedSession) bool {
		c.stop()
		return true
	})
}

func (sh *sessionServer) handle(ctx context.Context, req request) response {
	switch req.Op {
	case opLogin:
		return sh.login(ctx, req)
	case opLogout:
		return sh.logout(req)
	case opIsLocked:
		return sh.isLocked(req)
	case opEncryptField:
		return sh.encryptField(req)
	case opDecryptField:
		return sh.decryptField(req)
	default:
		return response{Error: "unknown op: " + string(req.Op)}
	}
}

func (sh *sessionServer) login(ctx context.Context, req request) response {
	if len(req.VaultPath) == 0 {
		return response{Error: ErrEmptyVaultPath.Error()}
	}

	duration, err := time.ParseDuration(req.TTL)
	if err != nil {
		return response{Error: "invalid ttl: " + err.Error()}
	}

	keyring, err := keyringstore.Open(req.VaultPath)
	if err != nil {
		return response{Error: err.Error()}
	}

	s, err := session.New(ctx, keyring)
	if err != nil {
		return response{Error: err.Error()}
	}

	if err := s.Unlock(ctx, req.Password, req.SecretKey); err != nil {
		return response{Error: err.Error()}
	}

	if prev, ok := sh.sessions.load(req.VaultPath); ok {
		prev.stop()
	}

	cached := newCachedSession(s, duration)
	sh.sessions.store(req.VaultPath, cached)

	log.Printf("session started for vault: %q: ttl %s", req.VaultPath, req.TTL)

	go cached.start(func() {
		sh.sessions.mu.Lock()
		if sh.sessions.data[req.VaultPath] == cached {
			delete(sh.sessions.data, req.VaultPath)
		}
		sh.sessions.mu.Unlock()
		log.Printf("session expired for vault: %s", req.VaultPath)
	})

	return response{OK: true}
}

func (sh *sessionServer) logout(req request) response {
	if len(req.VaultPath) == 0 {
		return response{Error: ErrEmptyVaultPath.Error()}
	}

	c, ok := sh.sessions.load(req.VaultPath)
	if !ok {
		return response{Error: errNoSession.Error()}
	}

	c.stop()
	sh.sessions.delete(req.VaultPath)

	return response{OK: true}
}

func (sh *sessionServer) isLocked(req request) response {
	c, ok := sh.sessions.load(req.VaultPath)
	if !ok {
		return response{OK: true, Locked: true}
	}

	return response{OK: true, Locked: c.session.IsLocked()}
}

func (sh *sessionServer) encryptField(req request) response {
	c, ok := sh.sessions.load(req.VaultPath)
	if !ok {
		return response{Error: errNoSession.Error()}
	}

	ct, err := c.session.EncryptField(req.ItemID, req.Text)
	if err != nil {
		return response{Error: err.Error()}
	}

	return response{OK: true, Text: ct}
}

func (sh *sessionServer) decryptField(req request) response {
	c, ok := sh.sessions.load(req.VaultPath)
	if !ok {
		return response{Error: errNoSession.Error()}
	}

	pt, err := c.session.DecryptField(req.ItemID, req.Text)
	if err != nil {
		return response{Error: err.Error()}
	}

	return response{OK: true, Text: pt}
}

var errNoSession = errors.New("no cached session for the given vault path")

// serveConn handles one client connection: read a request frame, dispatch,
// write a response frame, repeat until the connection closes.
func (sh *sessionServer) serveConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	r := bufio.NewReader(conn)

	for {
		var req request
		if err := readFrame(r, &req); err != nil {
			return
		}

		resp := sh.handle(ctx, req)

		if err := writeFrame(conn, resp); err != nil {
			return
		}
	}
}
