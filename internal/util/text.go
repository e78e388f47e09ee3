package util

import (
	"regexp"
	"strings"
)

var (
	reQuotes = regexp.MustCompile(`["'` + "`" + `«»“”]`)
	rePunct  = regexp.MustCompile(`[,;:()\[\]{}!?#%&+=~|]`)
	reSpaces = regexp.MustCompile(`\s+`)
)

// NormalizeName prepares a product or master-data name for comparison:
// uppercase, punctuation stripped, whitespace collapsed. CJK text passes
// through untouched apart from width-ambiguous multiply signs.
func NormalizeName(input string) string {
	s := strings.ToUpper(input)
	repl := strings.NewReplacer("×", "X", "＊", "X", "*", "X", "　", " ")
	s = repl.Replace(s)
	s = reQuotes.ReplaceAllString(s, " ")
	s = rePunct.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeCode strips everything from an item code except letters, digits
// and the separators codes legitimately carry.
func NormalizeCode(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, " ", "")
	out := strings.Builder{}
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '/' || r == '.' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// Tokenize splits a normalized name on whitespace, dropping single-rune
// fragments.
func Tokenize(input string) []string {
	norm := NormalizeName(input)
	parts := strings.Split(norm, " ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// BlockRatio is a longest-matching-blocks similarity ratio in [0,1]:
// 2*M/(len(a)+len(b)) where M is the total length of the matching blocks
// found by recursively taking the longest common substring.
func BlockRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	matched := matchingBlockLen(ra, rb)
	return float64(2*matched) / float64(len(ra)+len(rb))
}

func matchingBlockLen(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlockLen(a[:ai], b[:bi])
	total += matchingBlockLen(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	// Rolling row of best match lengths ending at each b position.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > size {
					size = cur[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// JaccardTokens is intersection-over-union of two token sets.
func JaccardTokens(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := map[string]struct{}{}
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := map[string]struct{}{}
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func StringPtr(v string) *string { return &v }

func Int64Ptr(v int64) *int64 { return &v }
