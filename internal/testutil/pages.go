// Package testutil builds registry pages shaped like the live agency search for tests.
package testutil

import (
	"fmt"
	"html"
	"strings"
)

// Entry is one result entry on a results page, empty fields are left out of the markup.
type Entry struct {
	DocumentNumber string
	Name           string
	Phone          string
	Fax            string
	Email          string
	Address        string
	// AddressParts are rendered as bold values after the address, usually district and city.
	AddressParts []string
	BTK          string
	// OmitAddress leaves out the whole address row.
	OmitAddress bool
}

func (e Entry) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="lit-container"><div class="w3-row">`)
	if e.DocumentNumber != "" {
		fmt.Fprintf(&b, `<div class="w3-col l1"><span class="litc">%s</span></div>`, html.EscapeString(e.DocumentNumber))
	}
	fmt.Fprintf(&b, `<div class="w3-col l5"><span class="litc">Acenta Adı : %s</span></div>`, html.EscapeString(e.Name))

	var contact []string
	if e.Phone != "" {
		contact = append(contact, "Telefon : "+html.EscapeString(e.Phone))
	}
	if e.Fax != "" {
		contact = append(contact, "Faks : "+html.EscapeString(e.Fax))
	}
	fmt.Fprintf(&b, `<div class="w3-col l3"><span class="litc">%s</span></div>`, strings.Join(contact, "<br>"))
	if e.Email != "" {
		fmt.Fprintf(&b, `<div class="w3-col l3"><span class="litc">Email : %s</span></div>`, html.EscapeString(e.Email))
	} else {
		b.WriteString(`<div class="w3-col l3"><span class="litc"></span></div>`)
	}
	b.WriteString(`</div>`)

	if e.OmitAddress {
		b.WriteString(`<div class="w3-row"><div class="lit3"></div></div>`)
	} else {
		fmt.Fprintf(&b, `<div class="w3-row"><div class="lit2">Adres : %s`, html.EscapeString(e.Address))
		for i, part := range e.AddressParts {
			if i > 0 {
				b.WriteString(" /")
			}
			fmt.Fprintf(&b, ` <b>%s</b>`, html.EscapeString(part))
		}
		b.WriteString(`</div></div>`)
	}
	if e.BTK != "" {
		fmt.Fprintf(&b, `<div class="w3-row"><div class="lit2">BTK : %s</div></div>`, html.EscapeString(e.BTK))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Form is the search form with the hidden state fields an ASP.NET page carries.
func Form(inner string) string {
	return `<form method="post" action="./acenta-arama" id="form1">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="state-1">
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="validation-1">
<input name="ctl00$ContentPlaceHolder1$TursabNoText" type="text" id="ContentPlaceHolder1_TursabNoText">
<input type="submit" name="ctl00$ContentPlaceHolder1$SearchButton" value="Ara" id="ContentPlaceHolder1_SearchButton">
<input type="submit" name="ctl00$ContentPlaceHolder1$CleanButton" value="Temizle" id="ContentPlaceHolder1_CleanButton">
` + inner + `</form>`
}

func page(body string) string {
	return "<!DOCTYPE html><html><head><title>Acenta Arama</title></head><body>" + Form(body) + "</body></html>"
}

// SearchPage is the page before any query was made.
func SearchPage() string {
	return page("")
}

// ResultPage is a page listing the given entries.
func ResultPage(entries ...Entry) string {
	var b strings.Builder
	b.WriteString(`<div id="ContentPlaceHolder1_ResultPanel">`)
	for _, e := range entries {
		b.WriteString(e.HTML())
	}
	b.WriteString(`</div>`)
	return page(b.String())
}

// HiddenResultPage is a page whose result panel exists but is hidden.
func HiddenResultPage(entries ...Entry) string {
	var b strings.Builder
	b.WriteString(`<div id="ContentPlaceHolder1_ResultPanel" style="display: none">`)
	for _, e := range entries {
		b.WriteString(e.HTML())
	}
	b.WriteString(`</div>`)
	return page(b.String())
}

func messagePage(text string) string {
	return page(fmt.Sprintf(
		`<div id="ContentPlaceHolder1_FormMessagePanel"><div class="w3-panel w3-pale-red"><p>%s</p></div></div>`,
		html.EscapeString(text),
	))
}

// NoResultPage is the page the registry shows when nothing matches.
func NoResultPage() string {
	return messagePage("Arama kriterlerinize uygun sonuç bulunamamıştır.")
}

// SystemErrorPage is the page the registry shows when it fails to answer.
func SystemErrorPage(message string) string {
	return messagePage("Hata: " + message)
}

// BarePage is a page without search form or panels.
func BarePage() string {
	return "<html><body><p>maintenance</p></body></html>"
}
