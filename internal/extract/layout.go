package extract

import "dario.cat/mergo"

// Layout describes where the registry page keeps each piece of information. Ids, selectors,
// label prefixes and marker texts are part of the remote page format, they are configuration
// and can be replaced without touching the parsing code.
type Layout struct {
	// MessagePanelID is the panel that shows banners in place of results.
	MessagePanelID string `json:"message_panel_id"`
	// ErrorBannerSelector selects banners inside the message panel.
	ErrorBannerSelector string `json:"error_banner_selector"`
	// NoResultMarker is the banner text that means nothing matched the query.
	NoResultMarker string `json:"no_result_marker"`
	// SystemErrorMarker is the banner text that means the registry failed to answer.
	SystemErrorMarker string `json:"system_error_marker"`

	ResultPanelID string `json:"result_panel_id"`
	// EntryClass is the class of each result entry inside the result panel.
	EntryClass string `json:"entry_class"`

	DocumentNumberSelector string `json:"document_number_selector"`
	NameSelector           string `json:"name_selector"`
	NameLabel              string `json:"name_label"`
	ContactSelector        string `json:"contact_selector"`
	PhoneLabel             string `json:"phone_label"`
	FaxLabel               string `json:"fax_label"`
	EmailSelector          string `json:"email_selector"`
	EmailLabel             string `json:"email_label"`
	AddressSelector        string `json:"address_selector"`
	AddressLabel           string `json:"address_label"`
	// AddressPartSelector selects the unlabeled (district, city) values inside the address region.
	AddressPartSelector   string `json:"address_part_selector"`
	RegulatoryRefSelector string `json:"regulatory_ref_selector"`
	RegulatoryRefLabel    string `json:"regulatory_ref_label"`
}

// DefaultLayout mirrors the TÜRSAB agency search page.
func DefaultLayout() Layout {
	return Layout{
		MessagePanelID:      "ContentPlaceHolder1_FormMessagePanel",
		ErrorBannerSelector: ".w3-panel.w3-pale-red",
		NoResultMarker:      "Arama kriterlerinize uygun sonuç bulunamamıştır",
		SystemErrorMarker:   "Hata",

		ResultPanelID: "ContentPlaceHolder1_ResultPanel",
		EntryClass:    "lit-container",

		DocumentNumberSelector: ".w3-col.l1 .litc",
		NameSelector:           ".w3-col.l5 .litc",
		NameLabel:              "Acenta Adı : ",
		ContactSelector:        ".w3-col.l3 .litc",
		PhoneLabel:             "Telefon : ",
		FaxLabel:               "Faks : ",
		EmailSelector:          ".w3-col.l3:last-child .litc",
		EmailLabel:             "Email : ",
		AddressSelector:        ".w3-row:nth-child(2) .lit2",
		AddressLabel:           "Adres : ",
		AddressPartSelector:    "b",
		RegulatoryRefSelector:  ".w3-row:nth-child(3) .lit2",
		RegulatoryRefLabel:     "BTK :",
	}
}

// WithDefaults fills every unset field of l from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	out := l
	// merging two values of the same plain struct type cannot fail
	_ = mergo.Merge(&out, DefaultLayout())
	return out
}

// Markers returns the element ids whose presence means the page finished rendering an answer.
func (l Layout) Markers() []string {
	return []string{l.ResultPanelID, l.MessagePanelID}
}
