package normalize

import "strings"

// Number-to-words support for SortKey. Only what leading title tokens
// need: cardinals, ordinals, and spoken year forms.

var onesWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

var ordinalIrregular = map[string]string{
	"one":    "first",
	"two":    "second",
	"three":  "third",
	"five":   "fifth",
	"eight":  "eighth",
	"nine":   "ninth",
	"twelve": "twelfth",
}

// cardinalWords spells out a non-negative integer: 21 -> "twenty-one".
func cardinalWords(n int) string {
	switch {
	case n < 20:
		return onesWords[n]
	case n < 100:
		s := tensWords[n/10]
		if n%10 != 0 {
			s += "-" + onesWords[n%10]
		}
		return s
	case n < 1000:
		s := onesWords[n/100] + " hundred"
		if n%100 != 0 {
			s += " " + cardinalWords(n%100)
		}
		return s
	case n < 1000000:
		s := cardinalWords(n/1000) + " thousand"
		if n%1000 != 0 {
			s += " " + cardinalWords(n%1000)
		}
		return s
	default:
		s := cardinalWords(n/1000000) + " million"
		if n%1000000 != 0 {
			s += " " + cardinalWords(n%1000000)
		}
		return s
	}
}

// ordinalWords spells out an ordinal: 21 -> "twenty-first".
func ordinalWords(n int) string {
	words := cardinalWords(n)

	// Only the final word changes form.
	idx := strings.LastIndexAny(words, " -")
	head, last := "", words
	if idx >= 0 {
		head, last = words[:idx+1], words[idx+1:]
	}

	switch {
	case ordinalIrregular[last] != "":
		last = ordinalIrregular[last]
	case strings.HasSuffix(last, "y"):
		last = last[:len(last)-1] + "ieth"
	default:
		last += "th"
	}
	return head + last
}

// yearWords spells out a 4-digit year the way it is said aloud:
// 1984 -> "nineteen eighty-four", 1906 -> "nineteen oh six",
// 1900 -> "nineteen hundred", 2005 -> "two thousand five".
func yearWords(n int) string {
	if n < 1000 || n >= 10000 {
		return cardinalWords(n)
	}

	high, low := n/100, n%100
	if high%10 == 0 {
		// x000..x009: read as a cardinal ("two thousand five").
		if low < 10 {
			return cardinalWords(n)
		}
		return cardinalWords(high/10*1000) + " " + cardinalWords(low)
	}

	switch {
	case low == 0:
		return cardinalWords(high) + " hundred"
	case low < 10:
		return cardinalWords(high) + " oh " + onesWords[low]
	default:
		return cardinalWords(high) + " " + cardinalWords(low)
	}
}
