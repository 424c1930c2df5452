package document

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultLanguages are the code-block languages recognised when
// ParserOptions.Languages is empty.
var DefaultLanguages = []string{"python", "py", "starlark", "star"}

// DefaultStartPattern recognises reStructuredText code directives such as
//
//	.. code-block:: python
//	   :linenos:
//	   :emphasize-lines: 1
//
// including the invisible-code-block variant and option names containing
// hyphens. Custom patterns must provide the named groups "indent" and "lang"
// and may provide "invisible" and "options".
var DefaultStartPattern = regexp.MustCompile(
	`(?m)^(?P<indent>[ \t]*)\.\.[ \t]*(?P<invisible>invisible-)?code(?:-block)?::?[ \t]*(?P<lang>\w+)\b[^\n]*\n(?P<options>(?:[ \t]*:[\w-]+:[^\n]*\n)*)`)

var fenceOpen = regexp.MustCompile("^([ \t]{0,3})(`{3,}|~{3,})[ \t]*([^`]*)$")

// CodeBlock is the parsed payload of an executable code region.
type CodeBlock struct {
	// Language is the lower-cased language named by the directive or fence.
	Language string

	// Code is the dedented source of the block.
	Code string

	// Options holds directive options (reST) or key=value info-string
	// attributes (Markdown).
	Options map[string]string

	// Invisible marks blocks declared with invisible-code-block.
	Invisible bool

	// Line is the 1-based document line of the first line of Code.
	Line int
}

// Span is a code block located in a source text.
type Span struct {
	// Start and End delimit the whole construct, directive included.
	Start int
	End   int

	// BodyStart is the offset of the first code line.
	BodyStart int

	Block *CodeBlock
}

// ParserOptions configures a CodeBlockParser.
type ParserOptions struct {
	// Languages lists the accepted block languages. Defaults to DefaultLanguages.
	Languages []string

	// StartPattern overrides DefaultStartPattern for reST directives.
	StartPattern *regexp.Regexp

	// DisableMarkdown turns off fenced block recognition.
	DisableMarkdown bool

	// DisableRST turns off directive recognition.
	DisableRST bool
}

// CodeBlockParser finds executable code blocks in a source text.
type CodeBlockParser struct {
	languages map[string]bool
	start     *regexp.Regexp
	groups    struct{ indent, invisible, lang, options int }
	markdown  bool
	rst       bool
}

// NewCodeBlockParser builds a parser from opts.
func NewCodeBlockParser(opts ParserOptions) (*CodeBlockParser, error) {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	start := opts.StartPattern
	if start == nil {
		start = DefaultStartPattern
	}

	p := &CodeBlockParser{
		languages: make(map[string]bool, len(langs)),
		start:     start,
		markdown:  !opts.DisableMarkdown,
		rst:       !opts.DisableRST,
	}
	for _, l := range langs {
		p.languages[strings.ToLower(l)] = true
	}
	p.groups.indent = start.SubexpIndex("indent")
	p.groups.invisible = start.SubexpIndex("invisible")
	p.groups.lang = start.SubexpIndex("lang")
	p.groups.options = start.SubexpIndex("options")
	if p.groups.indent < 0 || p.groups.lang < 0 {
		return nil, fmt.Errorf("document: start pattern %q needs named groups indent and lang", start)
	}
	return p, nil
}

// Accepts reports whether blocks in lang are recognised.
func (p *CodeBlockParser) Accepts(lang string) bool {
	return p.languages[strings.ToLower(lang)]
}

// Find returns every code block in src, in source order.
func (p *CodeBlockParser) Find(src string) []Span {
	lines := SplitLines(src)
	var spans []Span
	if p.rst {
		spans = append(spans, p.findDirectives(src, lines)...)
	}
	if p.markdown {
		spans = append(spans, p.findFences(lines)...)
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// FindAfter returns the first code block starting at or after offset.
func (p *CodeBlockParser) FindAfter(src string, offset int) (Span, bool) {
	for _, s := range p.Find(src) {
		if s.Start >= offset {
			return s, true
		}
	}
	return Span{}, false
}

// Parse claims every code block of doc that no earlier parser owns.
func (p *CodeBlockParser) Parse(doc *Document) error {
	for _, s := range p.Find(doc.Source) {
		s.Block.Line = doc.LineAt(s.BodyStart)
		if _, err := doc.Claim(s.Start, s.End, s.Block); err != nil {
			if errors.Is(err, ErrRegionClaimed) {
				continue
			}
			return err
		}
	}
	return nil
}

func (p *CodeBlockParser) findDirectives(src string, lines []Line) []Span {
	var spans []Span
	for _, m := range p.start.FindAllStringSubmatchIndex(src, -1) {
		group := func(i int) string {
			if i < 0 || m[2*i] < 0 {
				return ""
			}
			return src[m[2*i]:m[2*i+1]]
		}

		lang := strings.ToLower(group(p.groups.lang))
		if !p.Accepts(lang) {
			continue
		}
		indent := len(group(p.groups.indent))

		first := LineIndex(lines, m[1])
		last := -1
		for i := first; i < len(lines); i++ {
			if IsBlank(lines[i].Text) {
				continue
			}
			if len(Indent(lines[i].Text)) <= indent {
				break
			}
			last = i
		}
		if last < 0 {
			continue
		}

		texts := make([]string, 0, last-first+1)
		for _, l := range lines[first : last+1] {
			texts = append(texts, l.Text)
		}
		bodyStart := lines[first].Start
		for i := first; i <= last && IsBlank(lines[i].Text); i++ {
			bodyStart = lines[i+1].Start
		}

		spans = append(spans, Span{
			Start:     m[0],
			End:       lines[last].Next,
			BodyStart: bodyStart,
			Block: &CodeBlock{
				Language:  lang,
				Code:      Dedent(trimLeadingBlank(texts)),
				Options:   parseDirectiveOptions(group(p.groups.options)),
				Invisible: group(p.groups.invisible) != "",
			},
		})
	}
	return spans
}

func (p *CodeBlockParser) findFences(lines []Line) []Span {
	var spans []Span
	for i := 0; i < len(lines); i++ {
		m := fenceOpen.FindStringSubmatch(lines[i].Text)
		if m == nil {
			continue
		}
		fence := m[2]
		info := strings.Fields(m[3])

		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if isClosingFence(lines[j].Text, fence) {
				end = j
				break
			}
		}

		if len(info) > 0 && p.Accepts(info[0]) {
			texts := make([]string, 0, end-i)
			for _, l := range lines[i+1 : min(end, len(lines))] {
				texts = append(texts, strings.TrimPrefix(l.Text, m[1]))
			}
			spanEnd := lines[len(lines)-1].Next
			if end < len(lines) {
				spanEnd = lines[end].Next
			}
			bodyStart := spanEnd
			if i+1 < len(lines) {
				bodyStart = lines[i+1].Start
			}
			spans = append(spans, Span{
				Start:     lines[i].Start,
				End:       spanEnd,
				BodyStart: bodyStart,
				Block: &CodeBlock{
					Language: strings.ToLower(info[0]),
					Code:     Dedent(texts),
					Options:  parseInfoOptions(info[1:]),
				},
			})
		}
		i = end
	}
	return spans
}

func isClosingFence(text, fence string) bool {
	t := strings.TrimSpace(text)
	if len(t) < len(fence) {
		return false
	}
	return strings.Trim(t, fence[:1]) == ""
}

func trimLeadingBlank(texts []string) []string {
	for len(texts) > 0 && IsBlank(texts[0]) {
		texts = texts[1:]
	}
	return texts
}

// parseDirectiveOptions reads ":name: value" lines.
func parseDirectiveOptions(block string) map[string]string {
	opts := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, ":") {
			continue
		}
		name, value, ok := strings.Cut(line[1:], ":")
		if !ok {
			continue
		}
		opts[name] = strings.TrimSpace(value)
	}
	return opts
}

// parseInfoOptions reads "key=value" or bare "flag" words of a fence info string.
func parseInfoOptions(words []string) map[string]string {
	opts := make(map[string]string)
	for _, w := range words {
		w = strings.Trim(w, "{}")
		if w == "" {
			continue
		}
		k, v, _ := strings.Cut(w, "=")
		opts[k] = strings.Trim(v, `"'`)
	}
	return opts
}
