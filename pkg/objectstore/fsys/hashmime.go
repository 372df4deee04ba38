package fsys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// sha256sum streams path through a SHA-256 hasher and returns lowercase hex
// (C2). The teacher's payload store computes digests the same way — open,
// io.Copy into hash.Hash, EncodeToString — just keyed differently.
func sha256sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fstoreerr.Internal("failed to open file for hashing", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fstoreerr.Internal("failed to read file for hashing", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// detectMIME returns (type, subtype) for path using content sniffing (C2).
// mimetype.DetectFile plays the libmagic-equivalent role the spec calls
// for; its internal matcher tree is safe for concurrent use, so unlike the
// spec's "thread-local magic cookie" note there's no per-goroutine state to
// manage here — a single package-level detector instance already satisfies
// "do not create one per file".
func detectMIME(path string) (string, string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", fstoreerr.Internal("failed to detect content type", err)
	}

	full := mt.String()
	if semi := strings.IndexByte(full, ';'); semi >= 0 {
		full = full[:semi]
	}
	full = strings.TrimSpace(full)

	slash := strings.IndexByte(full, '/')
	if slash < 0 {
		return "", "", fstoreerr.Internal(fmt.Sprintf("mime type %q has no subtype", full), nil)
	}
	return full[:slash], full[slash+1:], nil
}
