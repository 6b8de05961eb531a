package timeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// encoding to change without colliding with old hashes.
const (
	DomainAsset = "cliptrack/asset/v1"
	DomainGroup = "cliptrack/group/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of an asset. Two assets with the same
// groups, tracks, clips and notifications hash equally regardless of how
// they were written on disk.
func Hash(a *Asset) (string, error) {
	canonical, err := MarshalCanonical(a)
	if err != nil {
		return "", fmt.Errorf("hash asset: %w", err)
	}
	return hashWithDomain(DomainAsset, canonical), nil
}

// HashGroup returns the content hash of a single group.
func HashGroup(g *TrackGroup) (string, error) {
	canonical, err := MarshalCanonical(g)
	if err != nil {
		return "", fmt.Errorf("hash group %d: %w", g.ID, err)
	}
	return hashWithDomain(DomainGroup, canonical), nil
}
