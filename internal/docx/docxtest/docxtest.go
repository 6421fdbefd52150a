// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docxtest builds small .docx packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const (
	nsDecl = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctBase  = "application/vnd.openxmlformats-officedocument.wordprocessingml."
	decl    = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// Fixture describes the parts of a generated document. All XML fields are
// inner content: the builder adds the root element and namespace declarations.
type Fixture struct {
	// Body is the content of w:body. A final w:sectPr referencing every
	// header and footer is appended. Body may carry its own w:sectPr elements
	// referring to rIdH<n> / rIdF<n>.
	Body string

	// Headers and Footers become word/header<n>.xml and word/footer<n>.xml with
	// relationship ids rIdH<n> and rIdF<n> (1-based).
	Headers []string
	Footers []string

	// Footnotes, Endnotes, and Comments become their parts when non-empty.
	Footnotes string
	Endnotes  string
	Comments  string
}

var refTypes = []string{"default", "first", "even"}

// Bytes renders the fixture as a .docx zip.
func (f Fixture) Bytes() ([]byte, error) {
	var rels, overrides, sectRefs strings.Builder
	entries := map[string]string{}

	for i, h := range f.Headers {
		name := fmt.Sprintf("header%d.xml", i+1)
		entries["word/"+name] = decl + `<w:hdr ` + nsDecl + `>` + h + `</w:hdr>`
		fmt.Fprintf(&rels, `<Relationship Id="rIdH%d" Type="%sheader" Target="%s"/>`, i+1, relBase, name)
		fmt.Fprintf(&overrides, `<Override PartName="/word/%s" ContentType="%sheader+xml"/>`, name, ctBase)
		fmt.Fprintf(&sectRefs, `<w:headerReference w:type="%s" r:id="rIdH%d"/>`, refTypes[i%len(refTypes)], i+1)
	}
	for i, ft := range f.Footers {
		name := fmt.Sprintf("footer%d.xml", i+1)
		entries["word/"+name] = decl + `<w:ftr ` + nsDecl + `>` + ft + `</w:ftr>`
		fmt.Fprintf(&rels, `<Relationship Id="rIdF%d" Type="%sfooter" Target="%s"/>`, i+1, relBase, name)
		fmt.Fprintf(&overrides, `<Override PartName="/word/%s" ContentType="%sfooter+xml"/>`, name, ctBase)
		fmt.Fprintf(&sectRefs, `<w:footerReference w:type="%s" r:id="rIdF%d"/>`, refTypes[i%len(refTypes)], i+1)
	}

	notes := []struct {
		content, kind, root string
	}{
		{f.Footnotes, "footnotes", "w:footnotes"},
		{f.Endnotes, "endnotes", "w:endnotes"},
		{f.Comments, "comments", "w:comments"},
	}
	for _, n := range notes {
		if n.content == "" {
			continue
		}
		name := n.kind + ".xml"
		entries["word/"+name] = decl + `<` + n.root + ` ` + nsDecl + `>` + n.content + `</` + n.root + `>`
		fmt.Fprintf(&rels, `<Relationship Id="rId%s" Type="%s%s" Target="%s"/>`, n.kind, relBase, n.kind, name)
		fmt.Fprintf(&overrides, `<Override PartName="/word/%s" ContentType="%s%s+xml"/>`, name, ctBase, n.kind)
	}

	entries["word/document.xml"] = decl + `<w:document ` + nsDecl + `><w:body>` + f.Body +
		`<w:sectPr>` + sectRefs.String() + `<w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`
	entries["word/_rels/document.xml.rels"] = decl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		rels.String() + `</Relationships>`
	entries["_rels/.rels"] = decl +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="` + relBase + `officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
	entries["[Content_Types].xml"] = decl +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="` + ctBase + `document.main+xml"/>` +
		overrides.String() + `</Types>`

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	// [Content_Types].xml sorts first, matching what Word writes.

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, entries[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the fixture into dir/name and returns the path.
func Write(t testing.TB, dir, name string, f Fixture) string {
	t.Helper()
	data, err := f.Bytes()
	if err != nil {
		t.Fatalf("building %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// P returns a paragraph holding the given runs.
func P(runs ...string) string {
	return "<w:p>" + strings.Join(runs, "") + "</w:p>"
}

// R returns a plain run with text.
func R(text string) string {
	return `<w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r>`
}

// BoldR returns a bold run with text.
func BoldR(text string) string {
	return `<w:r><w:rPr><w:b/><w:color w:val="FF0000"/></w:rPr><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r>`
}

// Table returns a table; each row is a list of cell contents (block XML).
func Table(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="2000" w:type="dxa"/></w:tcPr>` + cell + "</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// Footnote wraps paragraphs in a w:footnote with the given id.
func Footnote(id int, paragraphs ...string) string {
	return fmt.Sprintf(`<w:footnote w:id="%d">%s</w:footnote>`, id, strings.Join(paragraphs, ""))
}

// Endnote wraps paragraphs in a w:endnote with the given id.
func Endnote(id int, paragraphs ...string) string {
	return fmt.Sprintf(`<w:endnote w:id="%d">%s</w:endnote>`, id, strings.Join(paragraphs, ""))
}

// Comment wraps paragraphs in a w:comment with the given id.
func Comment(id int, paragraphs ...string) string {
	return fmt.Sprintf(`<w:comment w:id="%d" w:author="Reviewer" w:initials="R">%s</w:comment>`,
		id, strings.Join(paragraphs, ""))
}

// Entries reads every zip entry of the file at path.
func Entries(t testing.TB, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer zr.Close()

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = data
	}
	return out
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
