// Package extract turns a rendered registry page into agency records or a typed negative outcome.
package extract

import (
	"fmt"
	"strings"

	"agencyharvest/internal/document"
	"agencyharvest/internal/registry"
)

// Kind classifies the answer of one lookup.
type Kind int

const (
	// KindNoResult means the page explicitly said nothing matched the query.
	KindNoResult Kind = iota
	// KindSystemError means the registry showed an error banner other than "no match".
	KindSystemError
	// KindRecords means at least one record was parsed.
	KindRecords
	// KindParseFailure means the page did not have the expected structure.
	KindParseFailure
)

func (k Kind) String() string {
	switch k {
	case KindNoResult:
		return "no_result"
	case KindSystemError:
		return "system_error"
	case KindRecords:
		return "records"
	case KindParseFailure:
		return "parse_failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the result of extracting one page. Records is non-empty if and only if
// Kind is KindRecords.
type Outcome struct {
	Kind    Kind
	Message string
	Records []registry.Record
}

func NoResult(message string) Outcome {
	return Outcome{Kind: KindNoResult, Message: message}
}

func SystemError(message string) Outcome {
	return Outcome{Kind: KindSystemError, Message: message}
}

func ParseFailure(reason string) Outcome {
	return Outcome{Kind: KindParseFailure, Message: reason}
}

func Found(records []registry.Record) Outcome {
	if len(records) == 0 {
		return ParseFailure("no entry could be decomposed into a record")
	}
	return Outcome{Kind: KindRecords, Records: records}
}

// Extractor parses registry pages according to a Layout.
type Extractor struct {
	Layout Layout
	// Phones formats phone and fax numbers when non-nil.
	Phones *registry.PhoneNormalizer
}

func NewExtractor(layout Layout, phones *registry.PhoneNormalizer) Extractor {
	return Extractor{Layout: layout.WithDefaults(), Phones: phones}
}

// Extract classifies a page, it always returns exactly one kind of outcome.
func (e Extractor) Extract(tree *document.Tree) Outcome {
	if tree == nil {
		return ParseFailure("no document")
	}

	if outcome, ok := e.classifyMessage(tree); ok {
		return outcome
	}

	panel, ok := tree.ByID(e.Layout.ResultPanelID)
	if !ok {
		return ParseFailure("result panel not found")
	}
	if !panel.Visible() {
		return ParseFailure("result panel not visible")
	}

	entries := panel.ByClass(e.Layout.EntryClass)
	if len(entries) == 0 {
		return ParseFailure("result panel has no entries")
	}

	records := make([]registry.Record, 0, len(entries))
	for _, entry := range entries {
		record, ok := e.parseEntry(entry)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return Found(records)
}

func (e Extractor) classifyMessage(tree *document.Tree) (Outcome, bool) {
	panel, ok := tree.ByID(e.Layout.MessagePanelID)
	if !ok || !panel.Visible() {
		return Outcome{}, false
	}
	for _, banner := range panel.FindAll(e.Layout.ErrorBannerSelector) {
		text := banner.Text()
		switch {
		case e.Layout.NoResultMarker != "" && strings.Contains(text, e.Layout.NoResultMarker):
			return NoResult(text), true
		case e.Layout.SystemErrorMarker != "" && strings.Contains(text, e.Layout.SystemErrorMarker):
			return SystemError(text), true
		}
	}
	return Outcome{}, false
}

// parseEntry decomposes one result entry, ok is false when the entry has no document number.
// Every other field is optional and a missing region leaves it empty.
func (e Extractor) parseEntry(entry document.Node) (registry.Record, bool) {
	l := e.Layout
	var record registry.Record

	number, ok := entry.Find(l.DocumentNumberSelector)
	if !ok {
		return record, false
	}
	record.DocumentNumber = number.Text()
	if strings.TrimSpace(record.DocumentNumber) == "" {
		return record, false
	}

	if name, ok := entry.Find(l.NameSelector); ok {
		record.Name = stripLabel(name.Text(), l.NameLabel)
	}

	if contact, ok := entry.Find(l.ContactSelector); ok {
		for _, line := range strings.Split(contact.Text(), "\n") {
			if v, ok := cutLabel(line, l.PhoneLabel); ok {
				record.Phone = v
			} else if v, ok := cutLabel(line, l.FaxLabel); ok {
				record.Fax = v
			}
		}
	}

	if email, ok := entry.Find(l.EmailSelector); ok {
		if v, ok := cutLabel(email.Text(), l.EmailLabel); ok {
			record.Email = v
		}
	}

	if address, ok := entry.Find(l.AddressSelector); ok {
		record.Address = stripLabel(address.Text(), l.AddressLabel)
		parts := address.FindAll(l.AddressPartSelector)
		if len(parts) >= 2 {
			record.District = parts[0].Text()
			record.City = parts[1].Text()
		}
	}

	if ref, ok := entry.Find(l.RegulatoryRefSelector); ok {
		if v, ok := cutLabel(ref.Text(), l.RegulatoryRefLabel); ok {
			record.RegulatoryRef = v
		}
	}

	record = record.Normalize()
	if e.Phones != nil {
		record = e.Phones.Apply(record)
	}
	return record, record.Valid()
}

// cutLabel removes a label prefix from text, ok is false if the label is not present.
// Rendered text has its lines trimmed, so a label's trailing whitespace is not required.
func cutLabel(text, label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return strings.TrimSpace(text), true
	}
	idx := strings.Index(text, label)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(text[:idx] + text[idx+len(label):]), true
}

// stripLabel is cutLabel for fields whose label is optional.
func stripLabel(text, label string) string {
	v, ok := cutLabel(text, label)
	if !ok {
		return strings.TrimSpace(text)
	}
	return v
}
