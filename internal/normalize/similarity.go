package normalize

// Ratio returns a similarity score in [0,1] for two strings, computed
// as 2*M/T where M is the total length of matching blocks found by
// recursively taking the longest common substring, and T is the summed
// length of both inputs. Identical strings score 1, disjoint ones 0.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matched := matchingBlocks(ra, rb, 0, len(ra), 0, len(rb))
	return 2 * float64(matched) / float64(total)
}

// matchingBlocks sums the lengths of the longest common substring of
// the given ranges plus, recursively, the matches to its left and right.
func matchingBlocks(a, b []rune, alo, ahi, blo, bhi int) int {
	ai, bj, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	matched := size
	matched += matchingBlocks(a, b, alo, ai, blo, bj)
	matched += matchingBlocks(a, b, ai+size, ahi, bj+size, bhi)
	return matched
}

// longestMatch finds the longest common substring of a[alo:ahi] and
// b[blo:bhi]; ties go to the earliest position in a, then in b.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestSize int) {
	besti, bestj = alo, blo

	// j2len[j] = length of the common run ending at a[i-1], b[j-1]
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestSize
}
