package table

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/textutil"
)

const headingSelector = "h1,h2,h3,h4,h5,h6,caption,.title,.section-title"

var textColumnSplitRe = regexp.MustCompile(`\t+| {2,}`)

// ParseHTML parses an HTML fragment into titled sections.
func ParseHTML(html string) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return FromDocument(doc), nil
}

// FromDocument walks every table in document order. A table's title is its
// caption, or else the nearest heading before it; consecutive tables sharing
// a title land in one section.
func FromDocument(doc *goquery.Document) []Section {
	var sections []Section
	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		// nested layout tables are flattened into their parent
		if s.ParentsFiltered("table").Length() > 0 {
			return
		}
		title := tableTitle(s)
		t := parseTable(s)
		if len(sections) > 0 && sections[len(sections)-1].Title == title {
			last := &sections[len(sections)-1]
			last.Tables = append(last.Tables, t)
			return
		}
		sections = append(sections, Section{Title: title, Tables: []Table{t}})
	})
	return sections
}

// TablesFromHTML returns every table in the fragment, ignoring titles.
func TablesFromHTML(html string) ([]Table, error) {
	sections, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}
	var out []Table
	for _, s := range sections {
		out = append(out, s.Tables...)
	}
	return out, nil
}

func tableTitle(s *goquery.Selection) string {
	if caption := textutil.Clean(s.Find("caption").First().Text()); caption != "" {
		return caption
	}
	for node := s; node.Length() > 0 && !node.Is("body"); node = node.Parent() {
		if heading := node.PrevAllFiltered(headingSelector).First(); heading.Length() > 0 {
			return textutil.Clean(heading.Text())
		}
	}
	return ""
}

func parseTable(s *goquery.Selection) Table {
	var headers []string
	var rows [][]Value

	headerRow := s.Find("thead tr").First()
	if headerRow.Length() == 0 {
		if first := s.Find("tr").First(); first.Find("th").Length() > 0 && first.Find("td").Length() == 0 {
			headerRow = first
		}
	}
	headerRow.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, textutil.Clean(cell.Text()))
	})

	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if headerRow.Length() > 0 && tr.IsSelection(headerRow) {
			return
		}
		if tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		var cells []Value
		tr.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, Parse(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		rows = append(rows, cells)
	})

	return New(headers, rows)
}

type xmlEnvelope struct {
	Sections []xmlSection `xml:"section"`
}

type xmlSection struct {
	Title string `xml:"title,attr"`
	Body  string `xml:",innerxml"`
}

// ParseSectionsXML decodes the live-stats envelope: a root element holding
// <section title="..."> children whose bodies are HTML. A payload with no
// sections is parsed as plain HTML.
func ParseSectionsXML(data []byte) ([]Section, error) {
	var env xmlEnvelope
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&env); err != nil {
		return nil, errors.Wrap(err, "decode stats envelope")
	}

	if len(env.Sections) == 0 {
		return ParseHTML(string(data))
	}

	sections := make([]Section, 0, len(env.Sections))
	for _, raw := range env.Sections {
		tables, err := TablesFromHTML(stripCDATA(raw.Body))
		if err != nil {
			return nil, errors.Wrapf(err, "section %q", raw.Title)
		}
		sections = append(sections, Section{Title: textutil.Clean(raw.Title), Tables: tables})
	}
	return sections, nil
}

func stripCDATA(body string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "<![CDATA[")
	return strings.TrimSuffix(body, "]]>")
}

// FromText splits plain text (as extracted from a PDF) into tables: runs of
// consecutive lines with at least two columns separated by tabs or two or
// more spaces. The first line of each run is its header.
func FromText(text string) []Table {
	var tables []Table
	var block [][]string

	flush := func() {
		if len(block) >= 2 {
			rows := make([][]Value, 0, len(block)-1)
			for _, line := range block[1:] {
				cells := make([]Value, len(line))
				for i, c := range line {
					cells[i] = Parse(c)
				}
				rows = append(rows, cells)
			}
			tables = append(tables, New(block[0], rows))
		}
		block = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		cols := textColumnSplitRe.Split(line, -1)
		if line == "" || len(cols) < 2 {
			flush()
			continue
		}
		block = append(block, cols)
	}
	flush()
	return tables
}
