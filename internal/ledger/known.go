package ledger

import "strings"

// KnownHashes is the set of transaction hashes already claimed, keyed in
// lower case. It is not safe for concurrent use.
type KnownHashes struct {
	set map[string]struct{}
}

func NewKnownHashes(hashes ...string) *KnownHashes {
	k := &KnownHashes{set: make(map[string]struct{}, len(hashes))}
	for _, hash := range hashes {
		k.Add(hash)
	}
	return k
}

func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

// Has reports whether hash is in the set. Empty hashes are never known.
func (k *KnownHashes) Has(hash string) bool {
	hash = normalizeHash(hash)
	if hash == "" {
		return false
	}
	_, ok := k.set[hash]
	return ok
}

// Add inserts hash and reports whether it was new.
func (k *KnownHashes) Add(hash string) bool {
	hash = normalizeHash(hash)
	if hash == "" {
		return false
	}
	if _, ok := k.set[hash]; ok {
		return false
	}
	k.set[hash] = struct{}{}
	return true
}

// Clone returns an independent copy.
func (k *KnownHashes) Clone() *KnownHashes {
	out := &KnownHashes{set: make(map[string]struct{}, len(k.set))}
	for hash := range k.set {
		out.set[hash] = struct{}{}
	}
	return out
}

func (k *KnownHashes) Len() int {
	return len(k.set)
}
