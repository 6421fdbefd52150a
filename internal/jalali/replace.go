// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jalali

import (
	"regexp"
	"strings"
)

const digit = `[0-9۰-۹٠-٩]`

// tokenPattern matches YYYY/M/D and YYYY/MM/DD.
var tokenPattern = regexp.MustCompile(digit + `{4}/` + digit + `{1,2}/` + digit + `{1,2}`)

// Match describes one date-shaped token found by a Replacer.
type Match struct {
	Token     string
	Converted string
	// Err is set when the token could not be converted. In lenient mode the
	// token stays in the output verbatim.
	Err error
}

// Replacer rewrites every date token in a text. The zero value is strict:
// the first invalid token aborts the replacement.
type Replacer struct {
	// Lenient leaves invalid tokens untouched instead of failing.
	Lenient bool
}

// Replace scans text left to right for non-overlapping date tokens and
// replaces each with its Gregorian form. Scanning resumes right after each
// match's original span. It returns the rewritten text and every token seen,
// in order. Text without tokens is returned unchanged with no matches.
func (r Replacer) Replace(text string) (string, []Match, error) {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, nil, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	matches := make([]Match, 0, len(locs))
	last := 0
	for _, loc := range locs {
		token := text[loc[0]:loc[1]]
		b.WriteString(text[last:loc[0]])
		last = loc[1]

		converted, err := Convert(token)
		if err != nil {
			if !r.Lenient {
				return text, matches, err
			}
			matches = append(matches, Match{Token: token, Err: err})
			b.WriteString(token)
			continue
		}
		matches = append(matches, Match{Token: token, Converted: converted})
		b.WriteString(converted)
	}
	b.WriteString(text[last:])
	return b.String(), matches, nil
}

// ScanAndReplace replaces every Jalali date token in text with its Gregorian
// form. The first invalid token fails the whole call with *InvalidDateError.
func ScanAndReplace(text string) (string, error) {
	out, _, err := Replacer{}.Replace(text)
	return out, err
}
