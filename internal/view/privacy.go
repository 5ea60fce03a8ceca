package view

import "strings"

// AnonymizeUser labels a principal by the first four characters of its last
// dash-separated group.
func AnonymizeUser(principal string) string {
	last := []rune(principal[strings.LastIndex(principal, "-")+1:])
	if len(last) > 4 {
		last = last[:4]
	}
	return "User " + strings.ToUpper(string(last))
}
