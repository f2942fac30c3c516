package cluster

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Namer picks a folder name for a group of file names. An empty name
// tells the planner to fall back to "Group N".
type Namer interface {
	Name(ctx context.Context, files []string) (string, error)
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"img": true, "dsc": true, "copy": true, "final": true, "new": true,
	"file": true, "untitled": true,
}

// TokenNamer names a group after the word its file names share most. File
// extensions, numbers, short words and stop words don't count.
type TokenNamer struct{}

func (TokenNamer) Name(_ context.Context, files []string) (string, error) {
	counts := make(map[string]int)
	for _, f := range files {
		stem := strings.TrimSuffix(f, filepath.Ext(f))
		seen := make(map[string]bool)
		for _, w := range Tokenize(stem) {
			if len([]rune(w)) < 3 || stopWords[w] || isNumber(w) || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}
	if len(counts) == 0 {
		return "", nil
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	name := words[0]
	if len(words) > 1 && counts[words[1]] == counts[words[0]] && counts[words[0]] > 1 {
		name += " " + words[1]
	}
	return cases.Title(language.English).String(name), nil
}

var unsafeFolderChars = regexp.MustCompile(`[^\p{L}\p{N}_\- ]+`)

// SafeFolder strips anything that could not sit in a single folder name.
func SafeFolder(text string) string {
	s := strings.TrimSpace(unsafeFolderChars.ReplaceAllString(text, ""))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "Cluster"
	}
	return s
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
