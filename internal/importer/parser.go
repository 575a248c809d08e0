package importer

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Note is one parsed markdown knowledge note.
type Note struct {
	Title   string
	Tags    []string
	Content string
}

const tagsPrefix = "tags:"

// ParseNoteFile reads a markdown note from disk.
func ParseNoteFile(path, fallbackTitle string) (Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return Note{}, err
	}
	defer file.Close()

	return ParseNote(file, fallbackTitle)
}

// ParseNote extracts a note from markdown. The first top-level heading
// becomes the title; a "tags:" line directly under it becomes the tag list;
// everything else is content. Notes without a heading use fallbackTitle.
func ParseNote(r io.Reader, fallbackTitle string) (Note, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	note := Note{Title: fallbackTitle}
	var body []string
	titleSeen := false
	tagsSeen := false

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !titleSeen && strings.HasPrefix(trimmed, "# ") {
			note.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			titleSeen = true
			continue
		}

		// Only the line directly under the heading may declare tags,
		// so literal "tags:" text later in the body survives.
		if titleSeen && !tagsSeen && len(body) == 0 && strings.HasPrefix(strings.ToLower(trimmed), tagsPrefix) {
			for _, tag := range strings.Split(trimmed[len(tagsPrefix):], ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					note.Tags = append(note.Tags, tag)
				}
			}
			tagsSeen = true
			continue
		}

		if len(body) == 0 && trimmed == "" {
			continue // skip leading blank lines
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return Note{}, err
	}

	note.Content = strings.TrimRight(strings.Join(body, "\n"), "\n")
	return note, nil
}
