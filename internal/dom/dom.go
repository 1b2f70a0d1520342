package dom

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrTargetNotFound is returned when a widget's target element is missing.
var ErrTargetNotFound = errors.New("target element not found")

// Document is the page handle widgets attach to. Callers pass it explicitly
// instead of relying on a global selector engine. Methods are safe for
// concurrent use; independent widgets may attach to the same page.
type Document struct {
	doc     *goquery.Document
	changes []Change
	mu      sync.Mutex
}

// Change records one mutation made through the Document.
type Change struct {
	Type     string // append_header, set_attribute, append_html
	Selector string
	Property string
	Value    string
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString reads an HTML document from a string.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// New returns an empty page.
func New() *Document {
	doc, _ := ParseString("<!DOCTYPE html><html><head></head><body></body></html>")
	return doc
}

// Exists reports whether the CSS selector matches anything.
func (d *Document) Exists(selector string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Length() > 0
}

// HasID reports whether an element with the given id exists.
func (d *Document) HasID(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byID(id).Length() > 0
}

// AppendHeader appends a <th> holding name to every header row (thead > tr)
// of every element matching table. The name is inserted as text, never as
// markup.
// It returns how many rows received a cell; zero is not an error.
func (d *Document) AppendHeader(table, name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := headerRows(d.doc.Find(table))
	rows.Each(func(_ int, row *goquery.Selection) {
		row.AppendNodes(headerCell(name))
	})
	if rows.Length() > 0 {
		d.record(Change{Type: "append_header", Selector: table, Value: name})
	}
	return rows.Length()
}

// Headers returns the header cell texts of the first matching table.
func (d *Document) Headers(table string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	headers := []string{}
	headerRows(d.doc.Find(table)).First().Children().Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, th.Text())
	})
	return headers
}

func headerRows(tables *goquery.Selection) *goquery.Selection {
	return tables.ChildrenFiltered("thead").ChildrenFiltered("tr")
}

// AttachByID sets attributes on the element with the given id.
func (d *Document) AttachByID(id string, attrs map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.byID(id)
	if target.Length() == 0 {
		return fmt.Errorf("%w: id %q", ErrTargetNotFound, id)
	}
	d.setAttrs(target, "#"+id, attrs)
	return nil
}

// Attach sets attributes on every element matching the CSS selector.
func (d *Document) Attach(selector string, attrs map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(selector)
	if target.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, selector)
	}
	d.setAttrs(target, selector, attrs)
	return nil
}

// AppendHTML appends markup to the elements matching parent.
func (d *Document) AppendHTML(parent, html string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(parent)
	if target.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrTargetNotFound, parent)
	}
	target.AppendHtml(html)
	d.record(Change{Type: "append_html", Selector: parent, Value: html})
	return nil
}

// Attr returns an attribute of the first element matching the selector.
func (d *Document) Attr(selector, name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).First().Attr(name)
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// Changes returns a copy of the recorded mutations in order.
func (d *Document) Changes() []Change {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Change{}, d.changes...)
}

func (d *Document) byID(id string) *goquery.Selection {
	return d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

func (d *Document) setAttrs(target *goquery.Selection, selector string, attrs map[string]string) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target.SetAttr(name, attrs[name])
		d.record(Change{Type: "set_attribute", Selector: selector, Property: name, Value: attrs[name]})
	}
}

func (d *Document) record(change Change) {
	d.changes = append(d.changes, change)
}

func headerCell(name string) *html.Node {
	th := &html.Node{Type: html.ElementNode, Data: "th", DataAtom: atom.Th}
	th.AppendChild(&html.Node{Type: html.TextNode, Data: name})
	return th
}
