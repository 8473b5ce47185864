package data

import (
	"regexp"
	"strings"
)

var finalAnswerRe = regexp.MustCompile(`(?i)Final Answer:`)

// ExtractFinalAnswer returns the text after the first "Final Answer:" marker, or the whole
// response when there is none or nothing follows it.
func ExtractFinalAnswer(response string) string {
	loc := finalAnswerRe.FindStringIndex(response)
	if loc == nil {
		return response
	}
	if answer := strings.TrimSpace(response[loc[1]:]); answer != "" {
		return answer
	}
	return response
}
