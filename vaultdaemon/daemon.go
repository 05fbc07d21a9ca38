// Package vaultdaemon implements a session-caching daemon that holds
// unlocked [session.Session]s in a long-lived process, keyed by vault path,
// so consecutive CLI invocations can skip re-deriving the AUK on every
// command. It is adapted from the teacher's vaultdaemon package: the
// UNIX-domain-socket transport, socket-permission and peer-credential
// verification (golang.org/x/sys/unix.GetsockoptUcred), and the
// safeMap[K,V] session table all carry over unchanged; only the wire
// protocol differs (length-prefixed JSON frames instead of gRPC — see
// protocol.go).
package vaultdaemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrEmptyVaultPath indicates a request was made without a vault path.
var ErrEmptyVaultPath = errors.New("vault path must not be empty")

// ErrSocketUnavailable indicates the daemon's socket could not be reached,
// most likely because the daemon is not running.
var ErrSocketUnavailable = errors.New("vault daemon socket is unavailable")

// socketPerm defines the file permission mode
// for the unix domain socket.
const socketPerm = 0o600

// socketPath is the location of the unix domain socket
// used by the daemon.
var socketPath = fmt.Sprintf("/run/user/%d/vlt.sock", os.Getuid())

// getCred returns the credentials from the remote end of a unix socket.
func getCred(conn net.Conn) (*unix.Ucred, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("connection is not a *net.UnixConn: got %T", conn)
	}

	rawConn, err := unixConn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var (
		ucred    *unix.Ucred
		ucredErr error
	)

	err = rawConn.Control(func(fd uintptr) {
		// Getsockopt syscall to retrieve peer credentials (uid, gid, pid)
		// from the remote end of the connected unix socket
		//
		// https://man7.org/linux/man-pages/man7/unix.7.html (SO_PEERCRED details)
		ucred, ucredErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return nil, err
	}

	if ucredErr != nil {
		return nil, ucredErr
	}

	return ucred, nil
}

// uidCheckingListener wraps a [net.Listener] and only accepts connections
// from clients matching the allowed UID.
type uidCheckingListener struct {
	net.Listener
	allowedUID int
}

// Accept returns the next connection if the client's UID matches allowedUID.
// Other connections are closed and skipped.
func (l *uidCheckingListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}

		ucred, err := getCred(conn)
		if err != nil {
			log.Printf("uid check failed: %v", err)
			_ = conn.Close() //nolint:wsl

			continue
		}

		if int(ucred.Uid) != l.allowedUID {
			log.Printf("connection from disallowed uid: %d", ucred.Uid)
			_ = conn.Close() //nolint:wsl

			continue
		}

		// connection allowed
		return conn, nil
	}
}

// Run starts the vltd daemon and serves the session-cache protocol over a
// UNIX domain socket.
//
// It creates the socket with 0600 permissions and only allows connections
// from the current user, validated by UID.
func Run(ctx context.Context) {
	log.SetPrefix("[vltd] ")

	log.Printf("daemon started")

	_ = os.Remove(socketPath) // remove stale socket

	socket, err := net.Listen("unix", socketPath)
	if err != nil {
		panic(fmt.Errorf("unix socket listen: %w", err))
	}
	defer func() { //nolint:wsl
		_ = socket.Close()
		_ = os.Remove(socketPath)
	}()

	if err := os.Chmod(socketPath, socketPerm); err != nil {
		panic(fmt.Errorf("unix socket chmod: %w", err))
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handler := newSessionHandler()

	lis := &uidCheckingListener{
		Listener:   socket,
		allowedUID: os.Getuid(),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		log.Printf("server listening at: %v", socket.Addr())

		for {
			conn, err := lis.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					log.Printf("accept error: %v", err)
					return
				}
			}

			go handler.serveConn(ctx, conn)
		}
	}()

	<-ctx.Done()

	log.Printf("received shutdown signal: shutting down...")

	_ = socket.Close()
	handler.stopAll()

	<-done
	log.Println("shutdown complete")
}
