// Package registry holds the normalized shape of a harvested agency directory entry.
package registry

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Record is one agency directory entry. Every attribute is optional, an empty
// string means the source did not carry the value.
type Record struct {
	// DocumentNumber is the registry-assigned business key that defines identity.
	DocumentNumber string
	Name           string
	Phone          string
	Fax            string
	Email          string
	Address        string
	District       string
	City           string
	// RegulatoryRef is the telecom authority (BTK) reference of the agency.
	RegulatoryRef string
}

// Valid reports whether the record carries an identity and may be persisted.
func (r Record) Valid() bool {
	return r.DocumentNumber != ""
}

// Normalize returns a copy of the record with surrounding whitespace trimmed from every field.
func (r Record) Normalize() Record {
	return Record{
		DocumentNumber: strings.TrimSpace(r.DocumentNumber),
		Name:           strings.TrimSpace(r.Name),
		Phone:          strings.TrimSpace(r.Phone),
		Fax:            strings.TrimSpace(r.Fax),
		Email:          strings.TrimSpace(r.Email),
		Address:        strings.TrimSpace(r.Address),
		District:       strings.TrimSpace(r.District),
		City:           strings.TrimSpace(r.City),
		RegulatoryRef:  strings.TrimSpace(r.RegulatoryRef),
	}
}

// FilterValid returns the records that carry an identity, in order.
func FilterValid(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

const DefaultPhoneRegion = "TR"

// PhoneNormalizer rewrites phone and fax numbers into E.164 form.
type PhoneNormalizer struct {
	Region string
}

// Format returns raw as E.164, or raw unchanged when it is not a valid number.
func (p PhoneNormalizer) Format(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	region := p.Region
	if region == "" {
		region = DefaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return raw
	}
	if !phonenumbers.IsValidNumber(number) {
		return raw
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Apply returns a copy of r with its phone and fax formatted.
func (p PhoneNormalizer) Apply(r Record) Record {
	r.Phone = p.Format(r.Phone)
	r.Fax = p.Format(r.Fax)
	return r
}
