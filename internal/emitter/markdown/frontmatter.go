package markdown

import (
	"bytes"
	"errors"
	"sort"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

const delimiter = "---\n"

// ErrMissingClosingDelimiter indicates text that opens a frontmatter block
// without closing it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Fields returns the frontmatter fields of doc, without the fingerprint.
func Fields(doc records.Document) map[string]any {
	fields := map[string]any{
		"document_id": strings.TrimSpace(doc.ID),
		"title":       strings.TrimSpace(doc.Title),
	}
	optional := map[string]string{
		"subtitle":    doc.Subtitle,
		"author":      doc.Author,
		"date":        doc.Date,
		"institution": doc.Institution,
		"unit":        doc.Unit,
		"short_name":  doc.ShortName,
		"version":     doc.Version,
	}
	for k, v := range optional {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	var keywords []string
	for _, k := range strings.Split(doc.Keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) > 0 {
		fields["keywords"] = keywords
	}
	return fields
}

// serializeYAML writes fields with sorted keys, so equal maps serialize equally.
func serializeYAML(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k})
		switch v := fields[k].(type) {
		case []string:
			seq := &yaml.Node{Kind: yaml.SequenceNode}
			for _, item := range v {
				seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
			}
			node.Content = append(node.Content, seq)
		default:
			var val yaml.Node
			if err := val.Encode(v); err != nil {
				return nil, err
			}
			node.Content = append(node.Content, &val)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint hashes the frontmatter fields, minus any fingerprint field,
// together with the body.
func Fingerprint(fields map[string]any, body string) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != mdfp.FingerprintField {
			forHash[k] = v
		}
	}
	serialized, err := serializeYAML(forHash)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(serialized), "\n"), body), nil
}

// Finalize prepends YAML frontmatter carrying the document metadata and a
// content fingerprint of the body.
func (e *Emitter) Finalize(doc records.Document, text string) (string, error) {
	body := strings.TrimLeft(text, "\n")
	fields := Fields(doc)
	fp, err := Fingerprint(fields, body)
	if err != nil {
		return "", err
	}
	fields[mdfp.FingerprintField] = fp

	fm, err := serializeYAML(fields)
	if err != nil {
		return "", err
	}
	return delimiter + string(fm) + delimiter + body, nil
}

// Split separates frontmatter fields from the body of a finalized document.
// Text without frontmatter yields nil fields and the whole text as body.
func Split(text string) (map[string]any, string, error) {
	if !strings.HasPrefix(text, delimiter) {
		return nil, text, nil
	}
	rest := text[len(delimiter):]
	var raw, body string
	if strings.HasPrefix(rest, delimiter) {
		body = rest[len(delimiter):]
	} else {
		idx := strings.Index(rest, "\n"+delimiter)
		if idx < 0 {
			return nil, "", ErrMissingClosingDelimiter
		}
		raw, body = rest[:idx+1], rest[idx+1+len(delimiter):]
	}

	fields := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, "", err
	}
	return fields, body, nil
}

// Verify reports whether a finalized document still matches its fingerprint.
func Verify(text string) (bool, error) {
	fields, body, err := Split(text)
	if err != nil || fields == nil {
		return false, err
	}
	stored, _ := fields[mdfp.FingerprintField].(string)
	if stored == "" {
		return false, nil
	}
	for k, v := range fields {
		if list, ok := v.([]any); ok {
			items := make([]string, 0, len(list))
			for _, item := range list {
				s, _ := item.(string)
				items = append(items, s)
			}
			fields[k] = items
		}
	}
	fp, err := Fingerprint(fields, body)
	if err != nil {
		return false, err
	}
	return fp == stored, nil
}
