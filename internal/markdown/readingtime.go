package markdown

import "strings"

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// ReadingTime estimates whole minutes to read text, rounding up. Text with
// no words still reports one minute.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
