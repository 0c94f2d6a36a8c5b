package processor

import (
	"strings"
)

// chunkParagraphs packs paragraphs into chunks of at most size characters.
// Each chunk after the first starts with the last overlap characters of the
// previous one, cut forward to a word boundary.
func chunkParagraphs(text string, size, overlap int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	// no room for a piece after the carried overlap and the separator
	limit := size - overlap - 2
	if limit < 1 {
		overlap = 0
		limit = max(size-2, 1)
	}
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	// length of the overlap carried into current; a chunk holding only that is never emitted
	carried := 0

	flush := func() {
		if current.Len() <= carried {
			return
		}
		content := strings.TrimSpace(current.String())
		current.Reset()
		carried = 0
		chunks = append(chunks, content)
		if tail := overlapTail(content, overlap); tail != "" {
			current.WriteString(tail)
			carried = current.Len()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Oversized paragraphs are cut on word boundaries
		for _, piece := range splitLong(para, limit) {
			if current.Len() > 0 && current.Len()+len(piece)+2 > size {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
		}
	}

	flush()

	return chunks
}

func overlapTail(content string, overlap int) string {
	if overlap <= 0 || len(content) <= overlap {
		return ""
	}
	start := len(content) - overlap
	tail := content[start:]
	// drop a partial leading word
	if prev := content[start-1]; prev != ' ' && prev != '\n' {
		if i := strings.IndexAny(tail, " \n"); i >= 0 {
			tail = tail[i+1:]
		} else {
			return ""
		}
	}
	return strings.TrimSpace(tail)
}

func splitLong(para string, limit int) []string {
	if limit <= 0 || len(para) <= limit {
		return []string{para}
	}

	var pieces []string
	words := strings.Fields(para)
	var b strings.Builder
	for _, w := range words {
		if b.Len() > 0 && b.Len()+1+len(w) > limit {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}
