package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/pharmadoc/internal/config"
)

// DefaultSeparators go from the most to the least structurally significant.
// The trailing "" splits into single runes.
var DefaultSeparators = []string{"\n\n", "\n", "。", ". ", "、", " ", ""}

// Span is a chunk of the input. Text == input[Start:End].
type Span struct {
	Text  string
	Start int
	End   int
}

// Splitter is a recursive character splitter. Sizes are counted in runes.
// Separators stay attached to the piece they end, so spans never lose input.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewSplitter(cfg config.ChunkerConfig) *Splitter {
	s := &Splitter{Size: cfg.Size, Overlap: cfg.Overlap, Separators: cfg.Separators}
	if s.Size <= 0 {
		s.Size = config.ChunkSize
	}
	if s.Overlap < 0 {
		s.Overlap = 0
	}
	if s.Overlap >= s.Size {
		s.Overlap = s.Size / 4
	}
	if len(s.Separators) == 0 {
		s.Separators = DefaultSeparators
	}
	return s
}

// Split returns the chunks of text in order. Empty or blank text gives no chunks.
func (s *Splitter) Split(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	raw := s.split(text, 0, len(text), s.Separators, true)

	out := make([]Span, 0, len(raw))
	for _, p := range raw {
		sp := Span{Text: text[p.start:p.end], Start: p.start, End: p.end}
		if strings.TrimSpace(sp.Text) == "" {
			continue
		}
		out = append(out, sp)
	}
	return out
}

// SplitText is Split without the offsets.
func (s *Splitter) SplitText(text string) []string {
	spans := s.Split(text)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.Text
	}
	return out
}

type piece struct {
	start, end int
	runes      int
}

func (s *Splitter) split(full string, start, end int, seps []string, top bool) []piece {
	text := full[start:end]
	sep, finer, ok := pickSeparator(text, seps)
	if !ok {
		if top {
			return hardCut(full, start, end, s.Size, s.Overlap)
		}
		// one atomic unit with no finer separator
		return []piece{{start: start, end: end, runes: utf8.RuneCountInString(text)}}
	}

	var out, window []piece
	for _, p := range splitKeep(full, start, end, sep) {
		if p.runes <= s.Size {
			window = append(window, p)
			continue
		}
		if len(window) > 0 {
			out = append(out, s.merge(window)...)
			window = nil
		}
		if len(finer) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, s.split(full, p.start, p.end, finer, false)...)
	}
	if len(window) > 0 {
		out = append(out, s.merge(window)...)
	}
	return out
}

// pickSeparator returns the first separator present in text and the ones after it.
func pickSeparator(text string, seps []string) (string, []string, bool) {
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			return sep, seps[i+1:], true
		}
	}
	return "", nil, false
}

// splitKeep cuts full[start:end] after every occurrence of sep.
func splitKeep(full string, start, end int, sep string) []piece {
	var out []piece
	if sep == "" {
		for i := start; i < end; {
			_, w := utf8.DecodeRuneInString(full[i:end])
			out = append(out, piece{start: i, end: i + w, runes: 1})
			i += w
		}
		return out
	}

	cur := start
	for cur < end {
		idx := strings.Index(full[cur:end], sep)
		next := end
		if idx >= 0 {
			next = cur + idx + len(sep)
		}
		out = append(out, piece{start: cur, end: next, runes: utf8.RuneCountInString(full[cur:next])})
		cur = next
	}
	return out
}

// merge packs adjacent pieces into windows of at most Size runes, carrying up
// to Overlap runes of trailing pieces into the next window.
func (s *Splitter) merge(pieces []piece) []piece {
	var out, cur []piece
	total := 0
	emit := func() {
		out = append(out, piece{start: cur[0].start, end: cur[len(cur)-1].end, runes: total})
	}

	for _, p := range pieces {
		if total+p.runes > s.Size && len(cur) > 0 {
			emit()
			for total > s.Overlap || (total+p.runes > s.Size && total > 0) {
				total -= cur[0].runes
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += p.runes
	}
	if len(cur) > 0 {
		emit()
	}
	return out
}

// hardCut is the fallback when no separator applies at all.
func hardCut(full string, start, end, size, overlap int) []piece {
	offsets := make([]int, 0, end-start+1)
	for i := range full[start:end] {
		offsets = append(offsets, start+i)
	}
	offsets = append(offsets, end)
	n := len(offsets) - 1

	step := size - overlap
	if step <= 0 {
		step = size
	}
	var out []piece
	for i := 0; i < n; i += step {
		j := min(i+size, n)
		out = append(out, piece{start: offsets[i], end: offsets[j], runes: j - i})
		if j == n {
			break
		}
	}
	return out
}
