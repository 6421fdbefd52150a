// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx is a WordprocessingML object model over a .docx package. It
// exposes the text-bearing structure of a document (body, tables, section
// headers and footers, footnotes, endnotes, comments) down to individual
// runs, and writes the package back with only the modified parts
// re-serialized.
package docx

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

const defaultMainPart = "word/document.xml"

// Document is a loaded .docx file.
type Document struct {
	pkg  *Package
	main *Part

	body      *Container
	sections  []Section
	footnotes *Container
	endnotes  *Container
	comments  *Container
}

// Section holds the header and footer containers referenced by one w:sectPr.
// Either slice is empty when the section defines none.
type Section struct {
	Headers []*Container
	Footers []*Container
}

// Open reads and parses the .docx file at path.
func Open(path string) (*Document, error) {
	pkg, err := OpenPackage(path)
	if err != nil {
		return nil, err
	}
	return Load(pkg)
}

// Load builds a Document from an opened package. Every container the model
// exposes is parsed here, so a corrupt part fails Load rather than a later
// accessor.
func Load(pkg *Package) (*Document, error) {
	mainName, err := mainPartName(pkg)
	if err != nil {
		return nil, err
	}
	main, err := pkg.XMLPart(mainName)
	if err != nil {
		return nil, err
	}
	bodyNode := xmlquery.QuerySelector(main.doc, exprBody)
	if bodyNode == nil {
		return nil, fmt.Errorf("part %s: no w:body element", main.Name)
	}

	rels, err := pkg.Relationships(main.Name)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Relationship, len(rels))
	for _, r := range rels {
		byID[r.ID] = r
	}

	d := &Document{
		pkg:  pkg,
		main: main,
		body: &Container{part: main, node: bodyNode},
	}

	loaded := make(map[string]*Container)
	load := func(rel Relationship) (*Container, error) {
		if rel.External || !pkg.Has(rel.Target) {
			return nil, nil
		}
		if c, ok := loaded[partKey(rel.Target)]; ok {
			return c, nil
		}
		part, err := pkg.XMLPart(rel.Target)
		if err != nil {
			return nil, err
		}
		root := rootElement(part.doc)
		if root == nil {
			return nil, fmt.Errorf("part %s: no root element", part.Name)
		}
		c := &Container{part: part, node: root}
		loaded[partKey(rel.Target)] = c
		return c, nil
	}

	for _, sectPr := range xmlquery.QuerySelectorAll(main.doc, exprSectPr) {
		var s Section
		for _, ref := range xmlquery.QuerySelectorAll(sectPr, exprHeaderRef) {
			c, err := load(byID[attrValue(ref, nsR, "id")])
			if err != nil {
				return nil, err
			}
			if c != nil {
				s.Headers = append(s.Headers, c)
			}
		}
		for _, ref := range xmlquery.QuerySelectorAll(sectPr, exprFooterRef) {
			c, err := load(byID[attrValue(ref, nsR, "id")])
			if err != nil {
				return nil, err
			}
			if c != nil {
				s.Footers = append(s.Footers, c)
			}
		}
		d.sections = append(d.sections, s)
	}

	for _, rel := range rels {
		var slot **Container
		switch {
		case hasRelType(rel, "footnotes"):
			slot = &d.footnotes
		case hasRelType(rel, "endnotes"):
			slot = &d.endnotes
		case hasRelType(rel, "comments"):
			slot = &d.comments
		default:
			continue
		}
		c, err := load(rel)
		if err != nil {
			return nil, err
		}
		if c != nil && *slot == nil {
			*slot = c
		}
	}

	return d, nil
}

// mainPartName finds the officeDocument target in the package relationships.
func mainPartName(pkg *Package) (string, error) {
	rels, err := pkg.Relationships("")
	if err != nil {
		return "", err
	}
	for _, r := range rels {
		if hasRelType(r, "officeDocument") && !r.External {
			return r.Target, nil
		}
	}
	if pkg.Has(defaultMainPart) {
		return defaultMainPart, nil
	}
	return "", fmt.Errorf("no main document part in package")
}

// Body returns the main document body.
func (d *Document) Body() *Container { return d.body }

// Sections returns one entry per w:sectPr, in document order.
func (d *Document) Sections() []Section { return d.sections }

// Footnotes returns the footnotes container, if the document has one.
func (d *Document) Footnotes() (*Container, bool) { return d.footnotes, d.footnotes != nil }

// Endnotes returns the endnotes container, if the document has one.
func (d *Document) Endnotes() (*Container, bool) { return d.endnotes, d.endnotes != nil }

// Comments returns the comments container, if the document has one.
func (d *Document) Comments() (*Container, bool) { return d.comments, d.comments != nil }

// Changed reports whether any run was rewritten.
func (d *Document) Changed() bool { return d.pkg.Changed() }

// Save writes the document to path. The source file is never touched.
func (d *Document) Save(path string) error { return d.pkg.Save(path) }

// Container is any holder of block content: the body, a header or footer,
// a notes or comments part, or a table cell.
type Container struct {
	part *Part
	node *xmlquery.Node
}

// Part returns the name of the package part the container lives in.
func (c *Container) Part() string { return c.part.Name }

// Paragraphs returns the block-level paragraphs of the container in
// document order, looking through content controls and note/comment
// wrappers but not into tables.
func (c *Container) Paragraphs() []*Paragraph {
	var out []*Paragraph
	eachBlock(c.node, func(n *xmlquery.Node) {
		if isW(n, "p") {
			out = append(out, &Paragraph{part: c.part, node: n})
		}
	})
	return out
}

// Tables returns the block-level tables of the container in document order.
func (c *Container) Tables() []*Table {
	var out []*Table
	eachBlock(c.node, func(n *xmlquery.Node) {
		if isW(n, "tbl") {
			out = append(out, &Table{part: c.part, node: n})
		}
	})
	return out
}

func eachBlock(n *xmlquery.Node, fn func(*xmlquery.Node)) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case isW(ch, "p"), isW(ch, "tbl"):
			fn(ch)
		case isW(ch, "sdt"), isW(ch, "sdtContent"), isW(ch, "customXml"),
			isW(ch, "footnote"), isW(ch, "endnote"), isW(ch, "comment"):
			eachBlock(ch, fn)
		}
	}
}

// Table is a w:tbl element.
type Table struct {
	part *Part
	node *xmlquery.Node
}

// Rows returns the table rows in order.
func (t *Table) Rows() []*Row {
	nodes := xmlquery.QuerySelectorAll(t.node, exprRows)
	rows := make([]*Row, len(nodes))
	for i, n := range nodes {
		rows[i] = &Row{part: t.part, node: n}
	}
	return rows
}

// Row is a w:tr element.
type Row struct {
	part *Part
	node *xmlquery.Node
}

// Cells returns the cells of the row in order. Each cell is a Container.
func (r *Row) Cells() []*Container {
	nodes := xmlquery.QuerySelectorAll(r.node, exprCells)
	cells := make([]*Container, len(nodes))
	for i, n := range nodes {
		cells[i] = &Container{part: r.part, node: n}
	}
	return cells
}

// Paragraph is a w:p element.
type Paragraph struct {
	part *Part
	node *xmlquery.Node
}

// Runs returns the runs that belong to the paragraph, including runs inside
// hyperlinks, insertions, smart tags, and inline content controls. Runs of
// paragraphs nested in drawings or text boxes are not included.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != xmlquery.ElementNode {
				continue
			}
			switch {
			case isW(ch, "r"):
				out = append(out, &Run{part: p.part, node: ch})
			case isW(ch, "pPr"), isW(ch, "p"), isW(ch, "tbl"):
			default:
				walk(ch)
			}
		}
	}
	walk(p.node)
	return out
}

// Text returns the concatenated text of the paragraph's runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs() {
		b.WriteString(r.Text())
	}
	return b.String()
}

// Run is a w:r element.
type Run struct {
	part *Part
	node *xmlquery.Node
}

// Part returns the name of the package part the run lives in.
func (r *Run) Part() string { return r.part.Name }

// Text returns the character content of the run: w:t text, with w:tab as
// "\t" and line breaks (w:br without a page or column type, w:cr) as "\n".
func (r *Run) Text() string {
	var b strings.Builder
	for ch := r.node.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case isW(ch, "t"):
			b.WriteString(ch.InnerText())
		case isW(ch, "tab"):
			b.WriteByte('\t')
		case isW(ch, "cr"), isLineBreak(ch):
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SetText replaces the character content of the run. Run properties and
// every child that does not carry text (drawings, fields, page breaks) stay
// in place; the new text elements take the position of the first old one.
// Line breaks keep the element kind and attributes of the old breaks, in
// order, so a w:cr stays a w:cr.
func (r *Run) SetText(s string) {
	var old, breaks []*xmlquery.Node
	for ch := r.node.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case isW(ch, "t") || isW(ch, "tab"):
			old = append(old, ch)
		case isW(ch, "cr") || isLineBreak(ch):
			old = append(old, ch)
			breaks = append(breaks, ch)
		}
	}
	var anchor *xmlquery.Node
	if len(old) > 0 {
		anchor = old[0]
	}

	prefix := r.node.Prefix
	for _, n := range textElements(prefix, s, breaks) {
		insertBefore(r.node, anchor, n)
	}
	for _, n := range old {
		removeNode(n)
	}
	r.part.dirty = true
}

func isLineBreak(n *xmlquery.Node) bool {
	if !isW(n, "br") {
		return false
	}
	t := attrValue(n, nsW, "type")
	return t == "" || t == "textWrapping"
}

// textElements converts text into w:t, w:tab, and break elements. The n-th
// "\n" copies breaks[n] when there is one and becomes a plain w:br otherwise.
func textElements(prefix, s string, breaks []*xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	nbreak := 0
	var chunk strings.Builder
	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		text := chunk.String()
		chunk.Reset()
		t := newElement(prefix, "t")
		if strings.TrimSpace(text) != text {
			t.Attr = append(t.Attr, preserveSpace)
		}
		appendChild(t, newText(text))
		out = append(out, t)
	}
	for _, c := range s {
		switch c {
		case '\t':
			flush()
			out = append(out, newElement(prefix, "tab"))
		case '\n':
			flush()
			if nbreak < len(breaks) {
				out = append(out, copyBreak(breaks[nbreak]))
			} else {
				out = append(out, newElement(prefix, "br"))
			}
			nbreak++
		default:
			chunk.WriteRune(c)
		}
	}
	flush()
	return out
}

func copyBreak(n *xmlquery.Node) *xmlquery.Node {
	br := newElement(n.Prefix, n.Data)
	br.Attr = append(br.Attr, n.Attr...)
	return br
}
