package tui

// History keeps submitted prompt lines for recall with up and down. The
// line being typed when recall starts is kept as a draft and given back
// when recall moves past the newest entry.
type History struct {
	lines []string
	limit int
	pos   int // len(lines) when not recalling
	draft string
}

// NewHistory creates a history holding at most limit lines.
func NewHistory(limit int) *History {
	return &History{lines: make([]string, 0, limit), limit: limit}
}

// Push records a submitted line and ends recall. Empty lines and repeats
// of the newest line are skipped.
func (h *History) Push(line string) {
	if line != "" && (len(h.lines) == 0 || h.lines[len(h.lines)-1] != line) {
		h.lines = append(h.lines, line)
		if len(h.lines) > h.limit {
			h.lines = h.lines[len(h.lines)-h.limit:]
		}
	}
	h.Reset()
}

// Prev steps to the next older line. current is the prompt content, kept
// as the draft when recall starts. At the oldest line it stays there.
func (h *History) Prev(current string) (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	if h.pos == len(h.lines) {
		h.draft = current
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.lines[h.pos], true
}

// Next steps to the next newer line. Past the newest it ends recall and
// returns the draft with ok false.
func (h *History) Next() (line string, ok bool) {
	if h.pos >= len(h.lines) {
		return h.draft, false
	}
	h.pos++
	if h.pos == len(h.lines) {
		draft := h.draft
		h.Reset()
		return draft, false
	}
	return h.lines[h.pos], true
}

// Reset ends recall and forgets the draft.
func (h *History) Reset() {
	h.pos = len(h.lines)
	h.draft = ""
}
