package application

import "strings"

type runeRange struct {
	lo, hi rune
}

// Pictographic ranges removed before text is spoken.
var emojiRanges = []runeRange{
	{0x1F300, 0x1F9FF},
	{0x1F600, 0x1F64F},
	{0x1F680, 0x1F6FF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
	{0x1F900, 0x1F9FF},
	{0x1F1E0, 0x1F1FF},
	{0x1F191, 0x1F251},
	{0x1F004, 0x1F004},
	{0x1F0CF, 0x1F0CF},
}

func isEmoji(r rune) bool {
	for _, rr := range emojiRanges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

// StripEmoji drops emoji code points and leaves everything else untouched.
func StripEmoji(text string) string {
	return strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, text)
}
