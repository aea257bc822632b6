package fingerprint

// Comparison summarizes how closely two fingerprints match. It is a manual
// verification aid, not a cryptographic equality check.
type Comparison struct {
	Exact          bool
	Similarity     float64 // percent of matching hex characters
	MatchingColors int
}

// Compare reports exact match, character-level similarity over the hex hash
// and the count of matching color blocks.
func Compare(a, b *Fingerprint) Comparison {
	if a == nil || b == nil {
		return Comparison{}
	}
	cmp := Comparison{Exact: a.Hash == b.Hash}

	n := len(a.Hash)
	if len(b.Hash) < n {
		n = len(b.Hash)
	}
	matched := 0
	for i := 0; i < n; i++ {
		if a.Hash[i] == b.Hash[i] {
			matched++
		}
	}
	if longest := max(len(a.Hash), len(b.Hash)); longest > 0 {
		cmp.Similarity = float64(matched) / float64(longest) * 100
	}

	for i := 0; i < len(a.Colors) && i < len(b.Colors); i++ {
		if a.Colors[i] == b.Colors[i] {
			cmp.MatchingColors++
		}
	}
	return cmp
}
