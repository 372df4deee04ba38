// Package listen builds the net.Listener fstore's API server binds to,
// supporting either a bare TCP address or a Unix domain socket with an
// optional mode/owner/group applied after bind, per spec.md §6.
//
// No example repo in the reference set constructs a UDS listener with
// post-bind chmod/chown, so this is plain net/os — there is no ecosystem
// library concern here for a third-party dependency to cover (see
// DESIGN.md).
package listen

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"

	"github.com/marmos91/fstore/internal/logger"
)

// Config describes a listening endpoint: either a bare TCP address/path, or
// a Unix domain socket with ownership/mode overrides.
type Config struct {
	// Address is a TCP address ("host:port") or, when Unix is true, a
	// filesystem path for the socket.
	Address string
	Unix    bool

	// Mode is the octal file mode applied to the socket after bind, e.g.
	// 0o660. Zero means "leave as umask produced".
	Mode os.FileMode
	// Owner is a username or numeric uid string; empty leaves it unchanged.
	Owner string
	// Group is a group name or numeric gid string; empty leaves it
	// unchanged.
	Group string
}

// Listen constructs the listener described by cfg. For a Unix socket, any
// pre-existing file at Address is removed first (a stale socket from an
// unclean shutdown), and the returned listener's Close also unlinks the
// file.
func Listen(cfg Config) (net.Listener, error) {
	if !cfg.Unix {
		return net.Listen("tcp", cfg.Address)
	}

	if err := os.Remove(cfg.Address); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale socket %s: %w", cfg.Address, err)
	}

	ln, err := net.Listen("unix", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to bind unix socket %s: %w", cfg.Address, err)
	}

	if err := applyOwnership(cfg); err != nil {
		ln.Close()
		return nil, err
	}

	return &unixListener{Listener: ln, path: cfg.Address}, nil
}

func applyOwnership(cfg Config) error {
	if cfg.Mode != 0 {
		if err := os.Chmod(cfg.Address, cfg.Mode); err != nil {
			return fmt.Errorf("failed to chmod socket: %w", err)
		}
	}

	if cfg.Owner == "" && cfg.Group == "" {
		return nil
	}

	uid, gid := -1, -1
	if cfg.Owner != "" {
		resolved, err := resolveUID(cfg.Owner)
		if err != nil {
			return err
		}
		uid = resolved
	}
	if cfg.Group != "" {
		resolved, err := resolveGID(cfg.Group)
		if err != nil {
			return err
		}
		gid = resolved
	}

	if err := os.Chown(cfg.Address, uid, gid); err != nil {
		return fmt.Errorf("failed to chown socket: %w", err)
	}
	return nil
}

func resolveUID(owner string) (int, error) {
	if n, err := strconv.Atoi(owner); err == nil {
		return n, nil
	}
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, fmt.Errorf("unknown socket owner %q: %w", owner, err)
	}
	return strconv.Atoi(u.Uid)
}

func resolveGID(group string) (int, error) {
	if n, err := strconv.Atoi(group); err == nil {
		return n, nil
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, fmt.Errorf("unknown socket group %q: %w", group, err)
	}
	return strconv.Atoi(g.Gid)
}

// unixListener removes its socket file on Close, the spec's "the file is
// removed on drop" requirement.
type unixListener struct {
	net.Listener
	path string
}

func (l *unixListener) Close() error {
	err := l.Listener.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		logger.Warn("failed to remove unix socket file", "path", l.path, "error", rmErr)
	}
	return err
}
