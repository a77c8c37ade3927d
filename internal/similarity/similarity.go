// Package similarity scores how well a free-text query names a known
// project.
//
// Plain edit distance penalizes legitimate abbreviations and
// hyphen/underscore variants too harshly, so the score is layered: an
// LCS-based ratio is always computed as the floor, and substring,
// subsequence, and token-overlap matches earn bonuses on top of it. The
// highest applicable score wins.
package similarity

import "strings"

const (
	// substringBonus rewards containment, scaled by the length ratio of
	// the shorter string to the longer.
	substringBonus = 0.30

	// subsequenceBonus rewards queries whose characters all appear in the
	// target in order (abbreviations).
	subsequenceBonus = 0.20

	// initialsScore is the fixed score for a query matching the first
	// letters of the target's tokens ("pcm" -> "project-context-manager").
	initialsScore = 0.80

	// tokenBonus rewards overlapping token sets, scaled by Jaccard overlap.
	tokenBonus = 0.25
)

// Normalize lowercases s and collapses runs of '-', '_', and space into a
// single '-' so that "My_Project", "my project", and "my-project" compare
// equal. Leading and trailing separators are dropped.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if r == '-' || r == '_' || r == ' ' {
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits s into normalized tokens.
func Tokens(s string) []string {
	norm := Normalize(s)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, "-")
}

// Score returns a similarity score in [0,1] for how well query names
// target. It is pure and deterministic. Normalized-equal strings score
// exactly 1.0.
func Score(query, target string) float64 {
	q := Normalize(query)
	t := Normalize(target)

	if q == "" || t == "" {
		return 0
	}
	if q == t {
		return 1.0
	}

	// LCS ratio is the floor for every other case.
	baseline := lcsRatio(q, t)
	best := baseline

	// Substring containment, either direction.
	if strings.Contains(t, q) || strings.Contains(q, t) {
		shorter, longer := len(q), len(t)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		ratio := float64(shorter) / float64(longer)
		best = max(best, baseline+substringBonus*ratio)
	}

	// Abbreviation: all characters of the shorter string appear in the
	// longer one in order.
	if isSubsequence(q, t) || isSubsequence(t, q) {
		best = max(best, baseline+subsequenceBonus)

		short, long := q, t
		if len(short) > len(long) {
			short, long = long, short
		}
		if short == tokenInitials(long) {
			best = max(best, initialsScore)
		}
	}

	// Token overlap.
	if overlap := tokenJaccard(Tokens(q), Tokens(t)); overlap > 0 {
		best = max(best, baseline+tokenBonus*overlap)
	}

	return min(best, 1.0)
}

// lcsRatio is 2*LCS(a,b) / (len(a)+len(b)).
func lcsRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	return 2 * float64(lcsLength(a, b)) / float64(len(a)+len(b))
}

// lcsLength computes the longest common subsequence length with a rolling
// single-row table.
func lcsLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = tmp
		}
	}
	return row[len(b)]
}

// isSubsequence reports whether every byte of needle appears in hay in
// order, not necessarily contiguously.
func isSubsequence(needle, hay string) bool {
	if len(needle) > len(hay) {
		return false
	}
	i := 0
	for j := 0; j < len(hay) && i < len(needle); j++ {
		if needle[i] == hay[j] {
			i++
		}
	}
	return i == len(needle)
}

// tokenInitials returns the first byte of each token of a normalized
// string: "project-context-manager" -> "pcm".
func tokenInitials(norm string) string {
	tokens := strings.Split(norm, "-")
	if len(tokens) < 2 {
		return ""
	}
	var b strings.Builder
	for _, tok := range tokens {
		if tok != "" {
			b.WriteByte(tok[0])
		}
	}
	return b.String()
}

// tokenJaccard is |A∩B| / |A∪B| over token sets.
func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, tok := range a {
		set[tok] = struct{}{}
	}

	union := len(set)
	shared := 0
	seen := make(map[string]struct{}, len(b))
	for _, tok := range b {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			shared++
		} else {
			union++
		}
	}

	if shared == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
