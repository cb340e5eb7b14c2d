package ingest

// Default chunking parameters. 1500 runes with 150 overlap keeps each
// chunk within a comfortable embedding input size while preserving
// clause continuity across window boundaries.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 150
)

// Split cuts text into overlapping fixed-size windows. Window i starts
// at i*(size-overlap); the final window runs to end-of-text and may be
// shorter. Splitting is purely positional, with no sentence or
// paragraph awareness. Empty input yields nil.
//
// Operates on runes so multi-byte characters are never cut in half.
// The overlap < size precondition is enforced by clamping: a
// non-positive step falls back to a full-size step, which guarantees
// the cursor always advances and the loop terminates.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
