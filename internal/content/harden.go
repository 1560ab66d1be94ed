// Package content turns raw campaign HTML into a deliverability-hardened
// email document.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxPreheaderLength is the maximum number of characters kept from the
// extracted preheader text.
const MaxPreheaderLength = 100

var firstTextRun = regexp.MustCompile(`>([^<]+)<`)

const documentHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="color-scheme" content="light dark">
<meta name="supported-color-schemes" content="light dark">
</head>
<body style="margin:0;padding:0;word-spacing:normal;background-color:#ffffff;">
`

const preheaderOpen = `<div style="display:none;font-size:0px;color:#ffffff;line-height:0px;max-height:0px;max-width:0px;opacity:0;overflow:hidden;">`

const articleOpen = `<div role="article" aria-roledescription="email" lang="en" style="-webkit-text-size-adjust:100%;-ms-text-size-adjust:100%;background-color:#ffffff;">
`

// clipGuard keeps clients that truncate long messages from clipping the
// visible content.
const clipGuard = `<div style="display:none;white-space:nowrap;font-size:15px;line-height:0;">` +
	`&nbsp; &zwnj; &nbsp; &zwnj; &nbsp; &zwnj; &nbsp; &zwnj; &nbsp; &zwnj; &nbsp; &zwnj; &nbsp; &zwnj;` +
	`</div>
`

// Preheader returns the first run of text found between a '>' and the
// following '<' in raw, trimmed and truncated to MaxPreheaderLength
// characters. It returns "" when no such run exists.
func Preheader(raw string) string {
	m := firstTextRun.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	text := strings.TrimSpace(m[1])
	if utf8.RuneCountInString(text) <= MaxPreheaderLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxPreheaderLength])
}

// Harden wraps raw in a self-contained HTML document with a hidden
// preheader block and a trailing anti-clipping block. raw is embedded
// unmodified. Harden never fails.
func Harden(raw string) string {
	preheader := Preheader(raw)

	var b strings.Builder
	b.Grow(len(documentHead) + len(raw) + 1024)
	b.WriteString(documentHead)
	b.WriteString(preheaderOpen)
	b.WriteString(preheader)
	b.WriteString("</div>\n")
	b.WriteString(articleOpen)
	b.WriteString(raw)
	b.WriteString("\n</div>\n")
	b.WriteString(clipGuard)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
