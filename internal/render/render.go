// Package render turns agent markdown into HTML for the browser.
package render

import (
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

// Raw HTML from the model is never passed through.
var md = markdown.New(
	markdown.HTML(false),
	markdown.Linkify(true),
	markdown.Tables(true),
	markdown.Typographer(false),
	markdown.XHTMLOutput(false),
)

// Markdown renders CommonMark source to HTML.
func Markdown(src string) string {
	return md.RenderToString([]byte(src))
}

// ErrorBlock formats err as the markdown shown in place of a report.
// The fence is longer than any backtick run in the message.
func ErrorBlock(err error) string {
	msg := err.Error()
	fence := strings.Repeat("`", max(3, longestRun(msg, '`')+1))
	return "**System Error**\n" + fence + "\n" + msg + "\n" + fence
}

func longestRun(s string, c rune) int {
	longest, run := 0, 0
	for _, r := range s {
		if r != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

// ErrorHTML renders ErrorBlock(err).
func ErrorHTML(err error) string {
	return Markdown(ErrorBlock(err))
}
