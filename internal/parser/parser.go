// Package parser reads text files into import drafts. One file holds one
// text: a "# <title>" heading, an optional "category: <name>" line, then
// one memorizable line per file line. A line may carry pronunciation and
// translation columns separated by "|":
//
//	# Le Corbeau et le Renard
//	category: Poem
//
//	Maître Corbeau, sur un arbre perché | metr korbo | Master Crow, perched on a tree
//	Tenait en son bec un fromage
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	titlePrefix    = "# "
	categoryPrefix = "category:"
	fieldSeparator = "|"
)

// Line is one parsed memorizable line.
type Line struct {
	Text          string
	Pronunciation string
	Translation   string
}

// Draft is a parsed text ready for import.
type Draft struct {
	Title    string
	Category string
	Lines    []Line
}

// ParseFile reads a file from the given path and extracts its draft.
func ParseFile(path string) (*Draft, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts a draft. It fails when no
// title heading is present; a missing or unrecognized category is left
// empty for the importer to default.
func Parse(r io.Reader) (*Draft, error) {
	scanner := bufio.NewScanner(r)
	var draft Draft

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, titlePrefix) {
			// The first heading wins; later ones are ignored.
			if draft.Title == "" {
				draft.Title = strings.TrimSpace(line[len(titlePrefix):])
			}
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), categoryPrefix) && len(draft.Lines) == 0 {
			draft.Category = strings.TrimSpace(line[len(categoryPrefix):])
			continue
		}

		draft.Lines = append(draft.Lines, splitLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if draft.Title == "" {
		return nil, fmt.Errorf("no title heading found")
	}
	return &draft, nil
}

// splitLine breaks "text | pronunciation | translation" into its fields.
// Missing columns stay empty; extra separators belong to the translation.
func splitLine(raw string) Line {
	parts := strings.SplitN(raw, fieldSeparator, 3)
	line := Line{Text: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		line.Pronunciation = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		line.Translation = strings.TrimSpace(parts[2])
	}
	return line
}
