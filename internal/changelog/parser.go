package changelog

import (
	"regexp"
	"strconv"
	"strings"
)

// markerRe matches a version marker anywhere in the document. The optional
// flame accepts logs written by the earlier script.
var markerRe = regexp.MustCompile(`## (?:🔥 )?VERSION (\d+) 📝`)

// headingRe matches a version marker that starts a line; used to split entries.
var headingRe = regexp.MustCompile(`(?m)^## (?:🔥 )?VERSION (\d+) 📝[ \t]*$`)

var (
	summaryRe = regexp.MustCompile(`(?m)^\*\*\d+ files changed: (.*)\*\*[ \t]*$`)
	quotedRe  = regexp.MustCompile("`([^`]*)`")
)

// Versions returns every version marker in doc, in document order.
func Versions(doc string) []int {
	matches := markerRe.FindAllStringSubmatch(doc, -1)
	versions := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		versions = append(versions, n)
	}
	return versions
}

// NextVersion returns max(existing markers)+1, or 0 when doc has none.
func NextVersion(doc string) int {
	next := 0
	for _, v := range Versions(doc) {
		if v+1 > next {
			next = v + 1
		}
	}
	return next
}

// Entry is a parsed view of one record in the document.
type Entry struct {
	Version int
	Time    string
	Files   []string
	Body    string // the record text from its heading to the next separator
}

// Entries splits doc into records in document order (newest first for a log
// written by this package).
func Entries(doc string) []Entry {
	locs := headingRe.FindAllStringSubmatchIndex(doc, -1)
	entries := make([]Entry, 0, len(locs))
	for i, loc := range locs {
		end := len(doc)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimRight(doc[loc[0]:end], " \t\r\n")
		body = strings.TrimRight(strings.TrimSuffix(body, separator), " \t\r\n")

		n, err := strconv.Atoi(doc[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Version: n,
			Time:    parseTime(body),
			Files:   parseFiles(body),
			Body:    body,
		})
	}
	return entries
}

func parseTime(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, timeLabel); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func parseFiles(body string) []string {
	m := summaryRe.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	var files []string
	for _, q := range quotedRe.FindAllStringSubmatch(m[1], -1) {
		files = append(files, q[1])
	}
	return files
}
