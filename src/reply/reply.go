// Package reply turns a free-text model answer into a single file edit.
//
// The answer is untrusted: it must carry an "ARCHIVO:" line naming the target
// path and at least one fenced code block. Anything else fails the parse.
package reply

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrParse       = errors.New("could not process response")
	ErrNoFilePath  = errors.New("response has no ARCHIVO: line")
	ErrNoCodeBlock = errors.New("response has no fenced code block")
)

// Edit is the file path and full new content extracted from one reply.
type Edit struct {
	FilePath  string
	CodeBlock string
	Lang      string
}

var (
	pathRe  = regexp.MustCompile(`(?i)ARCHIVO:[ \t]*(.+)`)
	fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+#\\.-]*)[ \\t]*\\n(.*?)\\n```")
)

// Parse extracts the first ARCHIVO: line and the first fenced block. The two
// matches are independent; only the first code block is used.
func Parse(text string) (Edit, error) {
	path := extractPath(text)
	if path == "" {
		return Edit{}, errors.Join(ErrParse, ErrNoFilePath)
	}
	lang, body, ok := firstCodeBlock(text)
	if !ok {
		return Edit{}, errors.Join(ErrParse, ErrNoCodeBlock)
	}
	return Edit{FilePath: path, CodeBlock: body, Lang: lang}, nil
}

func extractPath(text string) string {
	m := pathRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	// Models like to wrap the path in markdown emphasis or backticks.
	return strings.Trim(m[1], "`*\"' \t\r")
}

func firstCodeBlock(text string) (lang, body string, ok bool) {
	m := fenceRe.FindStringSubmatch(text)
	if len(m) < 3 {
		return "", "", false
	}
	return strings.ToLower(m[1]), m[2], true
}

// CountBlocks reports how many fenced blocks the reply contains. Callers use it
// to warn when extra blocks are being dropped.
func CountBlocks(text string) int {
	return len(fenceRe.FindAllStringIndex(text, -1))
}
