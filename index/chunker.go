package index

import "strings"

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// ChunkText splits extracted text into paragraph-aligned chunks of roughly
// target characters, carrying the last paragraph over as overlap so retrieval
// keeps local context across chunk boundaries.
func ChunkText(content string, target, overlap int) []string {
	clean := strings.ReplaceAll(content, "\r\n", "\n")
	paragraphs := strings.Split(clean, "\n\n")
	chunks := make([]string, 0)
	current := make([]string, 0)
	currentLen := 0

	for _, paragraph := range paragraphs {
		p := strings.TrimSpace(paragraph)
		if p == "" {
			continue
		}

		paragraphLen := len(p)
		if currentLen+paragraphLen > target && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			if overlap > 0 {
				last := current[len(current)-1]
				current = []string{last}
				currentLen = len(last)
			} else {
				current = current[:0]
				currentLen = 0
			}
		}

		current = append(current, p)
		currentLen += paragraphLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}

	return chunks
}
