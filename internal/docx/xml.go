// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

const (
	nsW      = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsXML    = "http://www.w3.org/XML/1998/namespace"
	xmlDecl  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`
	wordsPre = "w"
)

var (
	exprBody      = mustCompile("/w:document/w:body")
	exprSectPr    = mustCompile("//w:sectPr")
	exprHeaderRef = mustCompile("w:headerReference")
	exprFooterRef = mustCompile("w:footerReference")
	exprRows      = mustCompile("w:tr | w:sdt/w:sdtContent/w:tr | w:customXml/w:tr")
	exprCells     = mustCompile("w:tc | w:sdt/w:sdtContent/w:tc | w:customXml/w:tc")
)

func mustCompile(expr string) *xpath.Expr {
	e, err := xpath.CompileWithNS(expr, map[string]string{wordsPre: nsW})
	if err != nil {
		panic(fmt.Sprintf("docx: compiling %q: %v", expr, err))
	}
	return e
}

func parseXML(data []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return doc, nil
}

// rootElement returns the document element of a parsed part.
func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// isW reports whether n is the WordprocessingML element w:<local>.
func isW(n *xmlquery.Node, local string) bool {
	if n == nil || n.Type != xmlquery.ElementNode || n.Data != local {
		return false
	}
	return n.NamespaceURI == nsW || (n.NamespaceURI == "" && n.Prefix == wordsPre)
}

// attrValue returns the value of the attribute local in namespace ns. An
// empty ns matches unqualified attributes only.
func attrValue(n *xmlquery.Node, ns, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local != local {
			continue
		}
		if ns == "" {
			if a.Name.Space == "" {
				return a.Value
			}
			continue
		}
		if a.NamespaceURI == ns || a.Name.Space == ns {
			return a.Value
		}
	}
	return ""
}

func appendChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.NextSibling = nil
	n.PrevSibling = parent.LastChild
	if parent.LastChild != nil {
		parent.LastChild.NextSibling = n
	} else {
		parent.FirstChild = n
	}
	parent.LastChild = n
}

// insertBefore links n into parent right before ref. A nil ref appends.
func insertBefore(parent, ref, n *xmlquery.Node) {
	if ref == nil {
		appendChild(parent, n)
		return
	}
	n.Parent = parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else {
		parent.FirstChild = n
	}
	ref.PrevSibling = n
}

func removeNode(n *xmlquery.Node) {
	parent := n.Parent
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	} else if parent != nil {
		parent.FirstChild = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	} else if parent != nil {
		parent.LastChild = n.PrevSibling
	}
	n.Parent, n.PrevSibling, n.NextSibling = nil, nil, nil
}

// marshalXML serializes a parsed part. It writes every node kind the parser
// produces, keeps namespace prefixes as declared, and never reindents.
func marshalXML(doc *xmlquery.Node) []byte {
	var buf bytes.Buffer
	first := doc.FirstChild
	if first == nil || first.Type != xmlquery.DeclarationNode {
		buf.WriteString(xmlDecl)
	}
	scope := map[string]string{nsXML: "xml"}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		writeNode(&buf, n, scope)
	}
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *xmlquery.Node, scope map[string]string) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(buf, c, scope)
		}

	case xmlquery.DeclarationNode:
		if n.Data == "xml" && len(n.Attr) == 0 {
			buf.WriteString(xmlDecl)
			return
		}
		buf.WriteString("<?")
		buf.WriteString(n.Data)
		for _, a := range n.Attr {
			buf.WriteString(" ")
			buf.WriteString(a.Name.Local)
			buf.WriteString(`="`)
			buf.WriteString(attrEscaper.Replace(a.Value))
			buf.WriteString(`"`)
		}
		buf.WriteString("?>")

	case xmlquery.ElementNode:
		scope = declare(n, scope)
		name := n.Data
		if n.Prefix != "" {
			name = n.Prefix + ":" + n.Data
		}
		buf.WriteString("<")
		buf.WriteString(name)
		for _, a := range n.Attr {
			buf.WriteString(" ")
			buf.WriteString(attrName(a, scope))
			buf.WriteString(`="`)
			buf.WriteString(attrEscaper.Replace(a.Value))
			buf.WriteString(`"`)
		}
		if n.FirstChild == nil {
			buf.WriteString("/>")
			return
		}
		buf.WriteString(">")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(buf, c, scope)
		}
		buf.WriteString("</")
		buf.WriteString(name)
		buf.WriteString(">")

	case xmlquery.TextNode:
		buf.WriteString(textEscaper.Replace(n.Data))

	case xmlquery.CharDataNode:
		buf.WriteString("<![CDATA[")
		buf.WriteString(n.Data)
		buf.WriteString("]]>")

	case xmlquery.CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	}
}

// declare extends scope with the namespace prefixes declared on n.
func declare(n *xmlquery.Node, scope map[string]string) map[string]string {
	var next map[string]string
	for _, a := range n.Attr {
		if a.Name.Space != "xmlns" {
			continue
		}
		if next == nil {
			next = make(map[string]string, len(scope)+4)
			for k, v := range scope {
				next[k] = v
			}
		}
		next[a.Value] = a.Name.Local
	}
	if next == nil {
		return scope
	}
	return next
}

// attrName renders the qualified name of an attribute. The parser stores
// either the prefix or the namespace URI in Name.Space depending on whether
// it could resolve the declaration, so both are handled.
func attrName(a xmlquery.Attr, scope map[string]string) string {
	switch {
	case a.Name.Space == "":
		return a.Name.Local
	case a.Name.Space == "xmlns":
		return "xmlns:" + a.Name.Local
	case a.Name.Space == nsXML || a.NamespaceURI == nsXML || a.Name.Space == "xml":
		return "xml:" + a.Name.Local
	}
	if prefix, ok := scope[a.NamespaceURI]; ok && prefix != "" {
		return prefix + ":" + a.Name.Local
	}
	if prefix, ok := scope[a.Name.Space]; ok && prefix != "" {
		return prefix + ":" + a.Name.Local
	}
	return a.Name.Space + ":" + a.Name.Local
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

func newElement(prefix, local string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       prefix,
		NamespaceURI: nsW,
	}
}

func newText(s string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.TextNode, Data: s}
}

var preserveSpace = xmlquery.Attr{
	Name:         xml.Name{Space: "xml", Local: "space"},
	Value:        "preserve",
	NamespaceURI: nsXML,
}
