package pathsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxSuffixAttempts bounds how many numeric suffixes (_1, _2, ...) the
// unique-name generator tries before falling back to a UUID suffix.
const MaxSuffixAttempts = 1000

// Claimed reports whether a candidate destination path is already taken by
// another entry planned against the same journal. Callers pass the
// journal's destination registry (Journal.DestinationClaimed);
// UniqueDestination checks the disk itself.
type Claimed func(path string) bool

// UniqueDestination returns a destination path derived from original that
// is neither claimed (per the Claimed callback) nor present on disk. It
// tries "stem_1.ext", "stem_2.ext", ... up to MaxSuffixAttempts, then
// falls back to a random UUID suffix.
func UniqueDestination(original string, claimed Claimed) string {
	dir := filepath.Dir(original)
	ext := filepath.Ext(original)
	stem := strings.TrimSuffix(filepath.Base(original), ext)

	exists := func(p string) bool {
		if claimed != nil && claimed(p) {
			return true
		}
		_, err := os.Stat(p)
		return err == nil
	}

	for n := 1; n <= MaxSuffixAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}

	candidate := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, uuid.NewString(), ext))
	return candidate
}
