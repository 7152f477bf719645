package vault

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/mcp-gateway-registry/core/pkg/fileutils"
	"github.com/mcp-gateway-registry/core/pkg/logger"
)

// Vault reads and writes Records to disk with atomic-write semantics and
// strict permissions: 0600 on every file, 0700 on the containing
// directory.
type Vault struct{}

// NewVault constructs a Vault. It holds no state; every call is explicit
// about its path.
func NewVault() *Vault {
	return &Vault{}
}

// Write serializes rec as indented JSON and atomically installs it at
// path, creating the parent directory (mode 0700) if necessary.
func (v *Vault) Write(path string, rec *Record) error {
	dir := filepath.Dir(path)
	if err := fileutils.EnsureDir(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return fileutils.AtomicWriteFile(path, data, 0o600)
}

// Read parses the Record at path. A missing or corrupt file returns
// (nil, false); a corrupt file is logged at warning level rather than
// surfaced as an error, since callers uniformly treat "no valid record"
// the same way regardless of cause.
func (v *Vault) Read(path string) (*Record, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warn("vault record corrupt", "path", path, "error", err.Error())
		return nil, false
	}
	return &rec, true
}

// IsValid reports whether rec has not yet entered its expiry skew window:
// expires_at must be more than skew seconds in the future.
func (v *Vault) IsValid(rec *Record, skew time.Duration) bool {
	if rec == nil {
		return false
	}
	expiresAt := time.Unix(rec.ExpiresAt, 0)
	return expiresAt.After(time.Now().Add(skew))
}
