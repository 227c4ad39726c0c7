package ubl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"gopkg.in/xmlpath.v2"
)

// Los pasos de xmlpath comparan sólo el nombre local, así que "cbc:ID" y
// "ID" con cualquier prefijo resuelven igual.

// ParseTree lee el documento completo y devuelve el elemento raíz si se
// llama root. Es el único punto estricto: el resto de lecturas toleran
// nodos ausentes.
func ParseTree(raw string, root string) (*xmlpath.Node, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &MalformedDocumentError{Kind: NotWellFormed, Root: root, Err: errors.New("empty document")}
	}

	if err := checkWellFormed(raw); err != nil {
		return nil, &MalformedDocumentError{Kind: NotWellFormed, Root: root, Err: err}
	}

	doc, err := xmlpath.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, &MalformedDocumentError{Kind: NotWellFormed, Root: root, Err: err}
	}

	iter := xmlpath.MustCompile("/" + root).Iter(doc)
	if !iter.Next() {
		return nil, &MalformedDocumentError{Kind: MissingRoot, Root: root}
	}
	return iter.Node(), nil
}

// checkWellFormed recorre los tokens una vez: xmlpath acepta varios elementos
// raíz y texto suelto fuera de la raíz, y aquí eso es un documento inválido.
func checkWellFormed(raw string) error {
	dec := xml.NewDecoder(strings.NewReader(raw))
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return errors.New("more than one root element")
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errors.New("text outside the root element")
			}
		}
	}
	if roots == 0 {
		return errors.New("no root element")
	}
	return nil
}

// Text devuelve el texto del primer nodo que coincide, o "" si no hay ninguno.
func Text(ctx *xmlpath.Node, p *xmlpath.Path) string {
	if ctx == nil {
		return ""
	}
	s, ok := p.String(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// TextOr es Text con un valor por defecto para los nodos ausentes o vacíos.
func TextOr(ctx *xmlpath.Node, p *xmlpath.Path, fallback string) string {
	if s := Text(ctx, p); s != "" {
		return s
	}
	return fallback
}

// Nodes normaliza un nodo repetible a una secuencia (0, 1 o N elementos).
func Nodes(ctx *xmlpath.Node, p *xmlpath.Path) []*xmlpath.Node {
	if ctx == nil {
		return nil
	}
	var out []*xmlpath.Node
	iter := p.Iter(ctx)
	for iter.Next() {
		out = append(out, iter.Node())
	}
	return out
}

// First devuelve el primer nodo que coincide, o nil.
func First(ctx *xmlpath.Node, p *xmlpath.Path) *xmlpath.Node {
	if ctx == nil {
		return nil
	}
	iter := p.Iter(ctx)
	if !iter.Next() {
		return nil
	}
	return iter.Node()
}
