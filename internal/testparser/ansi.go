package testparser

import "regexp"

// ansiRegex matches terminal color and erase-line control sequences.
var ansiRegex = regexp.MustCompile("\x1b\\[[0-9;]*[mK]")

// StripANSI removes terminal color and control sequences from s.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
