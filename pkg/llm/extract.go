package llm

import (
	"regexp"
	"strings"
)

// fallbackRunes is how much of an unparseable reply is passed on as the move,
// so the applier can report what the model actually said.
const fallbackRunes = 10

var moveRe = regexp.MustCompile(
	`(?:[1-9１-９][一二三四五六七八九]|同[ 　]?)` +
		`(?:成銀|成桂|成香|[王玉飛角金銀桂香歩龍竜馬と全圭杏])` +
		`(?:不成|成|打)?` +
		`(?:[(（][1-9１-９][1-9１-９][)）])?`)

// ExtractMove picks the first move-shaped token out of a model reply. Replies
// without one yield their first few runes.
func ExtractMove(reply string) string {
	reply = strings.TrimSpace(reply)
	if m := moveRe.FindString(reply); m != "" {
		return m
	}
	runes := []rune(reply)
	if len(runes) > fallbackRunes {
		runes = runes[:fallbackRunes]
	}
	return string(runes)
}
