package najdi

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type field struct {
	name  string
	value string
}

// form is an HTML form reduced to what a browser would submit.
type form struct {
	action string
	method string
	fields []field
}

// parseForm returns the form called name in the document read from r, or
// nil if there is none.
func parseForm(r io.Reader, name string) (*form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	n := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Form && attr(n, "name") == name
	})
	if n == nil {
		return nil, nil
	}

	f := &form{
		action: attr(n, "action"),
		method: strings.ToUpper(attr(n, "method")),
	}
	if f.method == "" {
		f.method = "GET"
	}
	collect(n, f)
	return f, nil
}

func collect(n *html.Node, f *form) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Input:
				if fl, ok := inputField(c); ok {
					f.fields = append(f.fields, fl)
				}
			case atom.Textarea:
				if name := attr(c, "name"); name != "" {
					f.fields = append(f.fields, field{name: name, value: text(c)})
				}
			}
		}
		collect(c, f)
	}
}

func inputField(n *html.Node) (field, bool) {
	name := attr(n, "name")
	if name == "" {
		return field{}, false
	}
	switch strings.ToLower(attr(n, "type")) {
	case "submit", "button", "reset", "image", "file":
		return field{}, false
	case "checkbox", "radio":
		if !hasAttr(n, "checked") {
			return field{}, false
		}
		v := attr(n, "value")
		if v == "" {
			v = "on"
		}
		return field{name: name, value: v}, true
	}
	return field{name: name, value: attr(n, "value")}, true
}

// set replaces the value of the named field and reports whether it exists.
func (f *form) set(name, value string) bool {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].value = value
			return true
		}
	}
	return false
}

// encode returns the fields urlencoded in document order.
func (f *form) encode() string {
	var b strings.Builder
	for i, fl := range f.fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(fl.name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fl.value))
	}
	return b.String()
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
