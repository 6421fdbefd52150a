// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Part is one XML part of a package, parsed on first access.
type Part struct {
	// Name is the zip entry name, e.g. "word/document.xml".
	Name string

	doc   *xmlquery.Node
	dirty bool
}

// Dirty reports whether the part tree was modified since it was loaded.
func (p *Part) Dirty() bool { return p.dirty }

// Package is an Open Packaging Conventions zip held fully in memory. Parts
// that are never modified are written back byte for byte.
type Package struct {
	zr    *zip.Reader
	index map[string]*zip.File
	parts map[string]*Part
}

// OpenPackage reads the zip package at path into memory.
func OpenPackage(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ReadPackage(data)
}

// ReadPackage parses an in-memory zip package.
func ReadPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading zip archive: %w", err)
	}
	p := &Package{
		zr:    zr,
		index: make(map[string]*zip.File, len(zr.File)),
		parts: make(map[string]*Part),
	}
	for _, f := range zr.File {
		p.index[partKey(f.Name)] = f
	}
	return p, nil
}

// Part names are case-insensitive in OPC.
func partKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}

// Has reports whether the package contains an entry called name.
func (p *Package) Has(name string) bool {
	_, ok := p.index[partKey(name)]
	return ok
}

// XMLPart returns the parsed part called name, loading it on first use.
func (p *Package) XMLPart(name string) (*Part, error) {
	key := partKey(name)
	if part, ok := p.parts[key]; ok {
		return part, nil
	}
	f, ok := p.index[key]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %w", f.Name, err)
	}

	doc, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", f.Name, err)
	}
	part := &Part{Name: f.Name, doc: doc}
	p.parts[key] = part
	return part, nil
}

// Changed reports whether any loaded part was modified.
func (p *Package) Changed() bool {
	for _, part := range p.parts {
		if part.dirty {
			return true
		}
	}
	return false
}

// Write serializes the package to w, keeping entry order. Unmodified entries
// are copied without recompression.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range p.zr.File {
		part, ok := p.parts[partKey(f.Name)]
		if !ok || !part.dirty {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}

		method := zip.Deflate
		if f.Method == zip.Store {
			method = zip.Store
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   method,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.Name, err)
		}
		if _, err := fw.Write(marshalXML(part.doc)); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if p.zr.Comment != "" {
		if err := zw.SetComment(p.zr.Comment); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Save writes the package to dst through a temporary file in the same
// directory, so dst is either the complete new package or untouched.
func (p *Package) Save(dst string) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := p.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("renaming to %s: %w", dst, err)
	}
	return nil
}

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// Relationships returns the relationships whose source is the part called
// source, or the package relationships when source is empty. A missing .rels
// part yields no relationships.
func (p *Package) Relationships(source string) ([]Relationship, error) {
	relsName := "_rels/.rels"
	if source != "" {
		relsName = path.Join(path.Dir(source), "_rels", path.Base(source)+".rels")
	}
	if !p.Has(relsName) {
		return nil, nil
	}
	part, err := p.XMLPart(relsName)
	if err != nil {
		return nil, err
	}
	root := rootElement(part.doc)
	if root == nil {
		return nil, fmt.Errorf("part %s: no root element", relsName)
	}

	var rels []Relationship
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || n.Data != "Relationship" {
			continue
		}
		rel := Relationship{
			ID:       attrValue(n, "", "Id"),
			Type:     attrValue(n, "", "Type"),
			Target:   attrValue(n, "", "Target"),
			External: attrValue(n, "", "TargetMode") == "External",
		}
		if !rel.External {
			rel.Target = resolveTarget(source, rel.Target)
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// resolveTarget turns a relationship target into a part name.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// hasRelType reports whether a relationship type URI names the given kind,
// accepting both transitional and strict namespaces.
func hasRelType(rel Relationship, kind string) bool {
	return strings.HasSuffix(rel.Type, "/"+kind)
}
