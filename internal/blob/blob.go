// Package blob stores large clipboard payloads (images) as
// content-addressed files beside the history database. Every blob file
// on disk corresponds to at least one live history entry; Sweep removes
// the orphans left behind by trims and deletions.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const blobExt = ".bin"

// Area is a directory of content-addressed blob files.
type Area struct {
	root string
}

// NewArea opens (creating if needed) a blob area rooted at dir.
func NewArea(dir string) (*Area, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("blob: mkdir: %w", err)
	}
	return &Area{root: dir}, nil
}

// Root returns the blob directory.
func (a *Area) Root() string { return a.root }

// Put writes data under its content hash and returns the ref. Writing
// the same content twice is a no-op returning the same ref. The write is
// atomic (temp file + rename) so a crash never leaves a partial blob.
func (a *Area) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	ref := hex.EncodeToString(sum[:])
	path := a.path(ref)

	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	// Unique temp name; concurrent writers of the same content race
	// benignly on the final rename.
	tmp := filepath.Join(a.root, "tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("blob: write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("blob: rename: %w", err)
	}
	return ref, nil
}

// Get reads a blob by ref.
func (a *Area) Get(ref string) ([]byte, error) {
	data, err := os.ReadFile(a.path(ref))
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", ref, err)
	}
	return data, nil
}

// Exists reports whether ref is on disk.
func (a *Area) Exists(ref string) bool {
	_, err := os.Stat(a.path(ref))
	return err == nil
}

// Delete removes a blob. Deleting a missing ref is not an error.
func (a *Area) Delete(ref string) error {
	err := os.Remove(a.path(ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", ref, err)
	}
	return nil
}

// List returns every stored ref.
func (a *Area) List() ([]string, error) {
	dirents, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("blob: list: %w", err)
	}
	var refs []string
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, blobExt) {
			continue
		}
		refs = append(refs, strings.TrimSuffix(name, blobExt))
	}
	return refs, nil
}

// Sweep deletes every blob whose ref is not in live. Returns the number
// of orphans removed. Leftover temp files are cleaned up too.
func (a *Area) Sweep(live map[string]struct{}) (int, error) {
	dirents, err := os.ReadDir(a.root)
	if err != nil {
		return 0, fmt.Errorf("blob: sweep: %w", err)
	}

	removed := 0
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() {
			continue
		}
		if strings.HasPrefix(name, "tmp-") {
			_ = os.Remove(filepath.Join(a.root, name))
			continue
		}
		if !strings.HasSuffix(name, blobExt) {
			continue
		}
		ref := strings.TrimSuffix(name, blobExt)
		if _, ok := live[ref]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(a.root, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Clear deletes every blob unconditionally.
func (a *Area) Clear() error {
	_, err := a.Sweep(nil)
	return err
}

func (a *Area) path(ref string) string {
	return filepath.Join(a.root, ref+blobExt)
}
