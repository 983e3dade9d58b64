package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/linecont/internal/filter"
)

// DomainResult prefixes result digests. The version suffix allows the
// serialisation to change without colliding with old digests.
const DomainResult = "linecont/result/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ResultHash fingerprints a filter result together with the options that
// produced it. Features are identified by input position, so the digest is
// independent of attribute content.
func ResultHash(res *filter.Result, opts filter.Options) (string, error) {
	positions := make([]any, len(res.Positions))
	for i, p := range res.Positions {
		positions[i] = p
	}

	pairs := make([]any, len(res.Pairs))
	for i, p := range res.Pairs {
		pairs[i] = map[string]any{
			"a":  p.A,
			"b":  p.B,
			"at": []any{p.At[0], p.At[1]},
		}
	}

	obj := map[string]any{
		"tolerance": opts.ToleranceDegrees,
		"epsilon":   opts.Epsilon,
		"features":  positions,
		"pairs":     pairs,
	}

	canonical, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}
