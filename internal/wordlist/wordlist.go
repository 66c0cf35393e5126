// Package wordlist loads line-delimited word sources for wordlist tokens.
package wordlist

import (
	"fmt"
	"os"
	"strings"
)

// aliases maps built-in short names to canonical wordlist paths, so a token
// can say wordlist=common instead of carrying an absolute path.
var aliases = map[string]string{
	"common":    "/usr/share/seclists/Discovery/Web-Content/common.txt",
	"dirs":      "/usr/share/seclists/Discovery/Web-Content/raft-medium-directories.txt",
	"usernames": "/usr/share/seclists/Usernames/top-usernames-shortlist.txt",
	"passwords": "/usr/share/seclists/Passwords/darkweb2017-top100.txt",
}

// Resolve maps a built-in alias to its canonical path. Anything that is not
// a known alias is returned unchanged and treated as a path.
func Resolve(source string) string {
	if path, ok := aliases[source]; ok {
		return path
	}
	return source
}

// Load reads the word source, skipping blank lines and # comments and
// de-duplicating while preserving first-occurrence order.
func Load(source string) ([]string, error) {
	data, err := os.ReadFile(Resolve(source))
	if err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", source, err)
	}
	return Parse(string(data)), nil
}

// Parse splits raw wordlist text into its ordered, de-duplicated words.
func Parse(raw string) []string {
	lines := strings.Split(raw, "\n")
	seen := make(map[string]struct{}, len(lines))
	var words []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		words = append(words, line)
	}
	return words
}
