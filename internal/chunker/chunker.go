// Package chunker splits record content into size-bounded pieces along
// markdown structure first and prose boundaries after. Context assembly uses
// it so excerpts of long records end on a natural break.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 400
	DefaultMaxSize    = 600
)

// Options configures splitting. Sizes are in bytes.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default splitting options.
func DefaultOptions() Options {
	return Options{TargetSize: DefaultTargetSize, MaxSize: DefaultMaxSize}
}

// Piece is a contiguous part of the original text.
type Piece struct {
	Text      string
	StartLine int
	EndLine   int
}

// Split breaks text into pieces no longer than opts.MaxSize. Text that
// already fits is returned as a single piece.
func Split(text string, opts Options) []Piece {
	if opts.MaxSize <= 0 {
		opts = DefaultOptions()
	}
	if opts.TargetSize <= 0 || opts.TargetSize > opts.MaxSize {
		opts.TargetSize = opts.MaxSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []Piece{{Text: text, StartLine: 1, EndLine: strings.Count(text, "\n") + 1}}
	}
	return merge(blocks(text), opts)
}

// Prefix returns the longest run of leading pieces of text that fits in max
// bytes. When even the first piece is too long it is cut at a rune boundary.
func Prefix(text string, max int) string {
	if max <= 0 {
		return ""
	}
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	var b strings.Builder
	for _, p := range Split(text, Options{TargetSize: max, MaxSize: max}) {
		sep := 0
		if b.Len() > 0 {
			sep = 1
		}
		if b.Len()+sep+len(p.Text) > max {
			break
		}
		if sep > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.Text)
	}
	if b.Len() > 0 {
		return b.String()
	}
	return cut(text, max)
}

// cut truncates s to at most n bytes without splitting a UTF-8 sequence.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// blocks splits on heading lines and blank lines.
func blocks(text string) []Piece {
	lines := strings.Split(text, "\n")
	var out []Piece
	var cur []string
	start := 1

	flush := func(end int) {
		t := strings.TrimSpace(strings.Join(cur, "\n"))
		if t != "" {
			out = append(out, Piece{Text: t, StartLine: start, EndLine: end})
		}
		cur = nil
		start = end + 1
	}

	for i, line := range lines {
		n := i + 1
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#") && len(cur) > 0:
			flush(n - 1)
		case trimmed == "":
			flush(n)
			continue
		}
		cur = append(cur, line)
	}
	flush(len(lines))
	return out
}

// merge joins neighbouring blocks up to the target size and splits blocks
// over the max size.
func merge(bs []Piece, opts Options) []Piece {
	var out []Piece
	var acc Piece

	flush := func() {
		if acc.Text == "" {
			return
		}
		if len(acc.Text) > opts.MaxSize {
			out = append(out, splitLines(acc, opts)...)
		} else {
			out = append(out, acc)
		}
		acc = Piece{}
	}

	for _, b := range bs {
		if acc.Text == "" {
			acc = b
			continue
		}
		if joined := acc.Text + "\n\n" + b.Text; len(joined) <= opts.TargetSize {
			acc.Text = joined
			acc.EndLine = b.EndLine
			continue
		}
		flush()
		acc = b
	}
	flush()
	return out
}

// splitLines breaks an oversized block on line boundaries, falling back to
// sentences and then words for lines that are still too long.
func splitLines(b Piece, opts Options) []Piece {
	var out []Piece
	for i, line := range strings.Split(b.Text, "\n") {
		n := b.StartLine + i
		for _, t := range pack(sentences(line), " ", opts) {
			out = append(out, Piece{Text: t, StartLine: n, EndLine: n})
		}
	}
	return coalesce(out, opts)
}

// coalesce joins consecutive single-line pieces up to the target size.
func coalesce(ps []Piece, opts Options) []Piece {
	var out []Piece
	for _, p := range ps {
		if k := len(out) - 1; k >= 0 && out[k].EndLine != p.StartLine &&
			len(out[k].Text)+1+len(p.Text) <= opts.TargetSize {
			out[k].Text += "\n" + p.Text
			out[k].EndLine = p.EndLine
			continue
		}
		out = append(out, p)
	}
	return out
}

// pack greedily joins parts with sep up to the target size. Parts over the
// max size are split into words first.
func pack(parts []string, sep string, opts Options) []string {
	var out []string
	var cur strings.Builder
	emit := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			out = append(out, t)
		}
		cur.Reset()
	}
	for _, p := range parts {
		if len(p) > opts.MaxSize {
			emit()
			if sep == " " && strings.Contains(p, " ") {
				out = append(out, pack(strings.Fields(p), " ", opts)...)
			} else {
				out = append(out, p)
			}
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(sep)+len(p) > opts.TargetSize {
			emit()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(p)
	}
	emit()
	return out
}

// sentences splits a line after '.', '!' or '?' followed by a space.
func sentences(line string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(line); i++ {
		switch line[i] {
		case '.', '!', '?':
			if line[i+1] == ' ' {
				out = append(out, strings.TrimSpace(line[start:i+1]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(line[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
