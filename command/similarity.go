package command

import "unicode"

// Similarity scores input against the template in [0, 1], 1 meaning the
// literal text of the template is present exactly. Comparison ignores case.
func (t *Template) Similarity(input string) float64 {
	return t.similarity(lowerRunes(input))
}

// similarity expects input already lower-cased.
//
// For literal-only templates this is the classic normalised edit ratio,
// 1 - d/max(len(a), len(b)). When the template has placeholders the score
// is normalised by the skeleton length alone, since whatever the user put
// in a placeholder says nothing about how well the command words match.
func (t *Template) similarity(input []rune) float64 {
	d := t.distance(input)

	n := t.skeletonLen
	if !t.HasPlaceholders() && len(input) > n {
		n = len(input)
	}
	if n == 0 {
		return 0
	}

	score := 1 - float64(d)/float64(n)
	if score < 0 {
		return 0
	}
	return score
}

// distance computes the Levenshtein distance between input and the
// template where each placeholder matches any run of input, including an
// empty one, at no cost.
func (t *Template) distance(input []rune) int {
	// Single row of the distance matrix, updated per pattern item.
	previous := make([]int, len(input)+1)
	for j := range previous {
		previous[j] = j
	}
	current := make([]int, len(input)+1)

	for _, s := range t.segments {
		if s.isPlaceholder() {
			// A wildcard may swallow input[j-1] for free, or nothing at all.
			current[0] = previous[0]
			for j := 1; j <= len(input); j++ {
				current[j] = min(previous[j], current[j-1])
			}
			previous, current = current, previous
			continue
		}

		for _, p := range s.literal {
			p = unicode.ToLower(p)
			current[0] = previous[0] + 1
			for j := 1; j <= len(input); j++ {
				cost := 1
				if input[j-1] == p {
					cost = 0
				}
				deletion := previous[j] + 1
				insertion := current[j-1] + 1
				substitution := previous[j-1] + cost
				current[j] = min(deletion, insertion, substitution)
			}
			previous, current = current, previous
		}
	}

	return previous[len(input)]
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
