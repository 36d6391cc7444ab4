package extract

import (
	"strings"
	"testing"

	"agencyharvest/internal/document"
	"agencyharvest/internal/registry"
	"agencyharvest/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *document.Tree {
	t.Helper()
	tree, err := document.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return tree
}

func defaultExtractor() Extractor {
	return NewExtractor(Layout{}, nil)
}

func TestExtractFound(t *testing.T) {
	page := testutil.ResultPage(testutil.Entry{
		DocumentNumber: "1234",
		Name:           "Example Travel",
		Phone:          "0212 555 12 34",
		Fax:            "0212 555 12 35",
		Email:          "info@example.com",
		Address:        "Moda Cad. No:1",
		AddressParts:   []string{"Kadikoy", "Istanbul"},
		BTK:            "BTK-99",
	})

	outcome := defaultExtractor().Extract(parse(t, page))
	require.Equal(t, KindRecords, outcome.Kind)

	expected := []registry.Record{{
		DocumentNumber: "1234",
		Name:           "Example Travel",
		Phone:          "0212 555 12 34",
		Fax:            "0212 555 12 35",
		Email:          "info@example.com",
		Address:        "Moda Cad. No:1 Kadikoy / Istanbul",
		District:       "Kadikoy",
		City:           "Istanbul",
		RegulatoryRef:  "BTK-99",
	}}
	if diff := cmp.Diff(expected, outcome.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractNoResult(t *testing.T) {
	outcome := defaultExtractor().Extract(parse(t, testutil.NoResultPage()))
	require.Equal(t, KindNoResult, outcome.Kind)
	require.Empty(t, outcome.Records)
}

func TestExtractSystemError(t *testing.T) {
	outcome := defaultExtractor().Extract(parse(t, testutil.SystemErrorPage("servis yanıt vermiyor")))
	require.Equal(t, KindSystemError, outcome.Kind)
	require.Contains(t, outcome.Message, "servis yanıt vermiyor")
	require.Empty(t, outcome.Records)
}

func TestExtractParseFailures(t *testing.T) {
	table := []struct {
		name string
		page string
	}{
		{name: "no panels", page: testutil.BarePage()},
		{name: "search page", page: testutil.SearchPage()},
		{name: "hidden result panel", page: testutil.HiddenResultPage(testutil.Entry{DocumentNumber: "1"})},
		{name: "empty result panel", page: testutil.ResultPage()},
		{name: "entries without identity", page: testutil.ResultPage(
			testutil.Entry{Name: "nameless"},
			testutil.Entry{Name: "also nameless"},
		)},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			outcome := defaultExtractor().Extract(parse(t, row.page))
			require.Equal(t, KindParseFailure, outcome.Kind)
			require.NotEmpty(t, outcome.Message)
			require.Empty(t, outcome.Records)
		})
	}

	require.Equal(t, KindParseFailure, defaultExtractor().Extract(nil).Kind)
}

func TestExtractDropsEntriesWithoutIdentity(t *testing.T) {
	page := testutil.ResultPage(
		testutil.Entry{Name: "no document number"},
		testutil.Entry{DocumentNumber: "5678", Name: "Second Travel"},
	)

	outcome := defaultExtractor().Extract(parse(t, page))
	require.Equal(t, KindRecords, outcome.Kind)
	require.Len(t, outcome.Records, 1)
	require.Equal(t, "5678", outcome.Records[0].DocumentNumber)
	for _, r := range outcome.Records {
		require.True(t, r.Valid())
	}
}

func TestExtractPartialFields(t *testing.T) {
	page := testutil.ResultPage(
		testutil.Entry{
			DocumentNumber: "1",
			Name:           "Missing Composite",
			Phone:          "0212 000 00 00",
			Email:          "a@example.com",
			Address:        "Somewhere",
			BTK:            "B1",
		},
		testutil.Entry{
			DocumentNumber: "2",
			Name:           "One Part Only",
			Address:        "Elsewhere",
			AddressParts:   []string{"Kadikoy"},
		},
		testutil.Entry{
			DocumentNumber: "3",
			Name:           "No Address Row",
			Fax:            "0212 111 11 11",
			OmitAddress:    true,
		},
	)

	outcome := defaultExtractor().Extract(parse(t, page))
	require.Equal(t, KindRecords, outcome.Kind)
	require.Len(t, outcome.Records, 3)

	first := outcome.Records[0]
	require.Equal(t, "", first.District)
	require.Equal(t, "", first.City)
	require.Equal(t, "Missing Composite", first.Name)
	require.Equal(t, "0212 000 00 00", first.Phone)
	require.Equal(t, "", first.Fax)
	require.Equal(t, "a@example.com", first.Email)
	require.Equal(t, "Somewhere", first.Address)
	require.Equal(t, "B1", first.RegulatoryRef)

	second := outcome.Records[1]
	require.Equal(t, "", second.District)
	require.Equal(t, "", second.City)
	require.Equal(t, "Elsewhere Kadikoy", second.Address)

	third := outcome.Records[2]
	require.Equal(t, "", third.Address)
	require.Equal(t, "", third.District)
	require.Equal(t, "", third.City)
	require.Equal(t, "0212 111 11 11", third.Fax)
	require.Equal(t, "", third.Phone)
	require.Equal(t, "", third.RegulatoryRef)
}

func TestExtractPhoneNormalization(t *testing.T) {
	page := testutil.ResultPage(testutil.Entry{
		DocumentNumber: "1234",
		Phone:          "0212 555 12 34",
		Fax:            "invalid",
	})

	ex := NewExtractor(DefaultLayout(), &registry.PhoneNormalizer{Region: "TR"})
	outcome := ex.Extract(parse(t, page))
	require.Equal(t, KindRecords, outcome.Kind)
	require.Equal(t, "+902125551234", outcome.Records[0].Phone)
	require.Equal(t, "invalid", outcome.Records[0].Fax)
}

func TestExtractCustomMarkers(t *testing.T) {
	layout := Layout{NoResultMarker: "nothing here"}
	ex := NewExtractor(layout, nil)
	require.Equal(t, "Hata", ex.Layout.SystemErrorMarker)

	page := strings.Replace(
		testutil.NoResultPage(),
		"Arama kriterlerinize uygun sonuç bulunamamıştır.",
		"nothing here",
		1,
	)
	require.Equal(t, KindNoResult, ex.Extract(parse(t, page)).Kind)

	// the default marker text no longer means "no result" and the page has no results
	require.Equal(t, KindParseFailure, ex.Extract(parse(t, testutil.NoResultPage())).Kind)
}

// every page shape yields exactly one classification and never mixes a negative
// classification with records
func TestExtractClassificationExhaustive(t *testing.T) {
	pages := []string{
		testutil.BarePage(),
		testutil.SearchPage(),
		testutil.NoResultPage(),
		testutil.SystemErrorPage("x"),
		testutil.ResultPage(),
		testutil.ResultPage(testutil.Entry{DocumentNumber: "1"}),
		testutil.ResultPage(testutil.Entry{Name: "x"}),
		testutil.HiddenResultPage(testutil.Entry{DocumentNumber: "1"}),
	}
	for _, p := range pages {
		outcome := defaultExtractor().Extract(parse(t, p))
		switch outcome.Kind {
		case KindRecords:
			require.NotEmpty(t, outcome.Records)
		case KindNoResult, KindSystemError, KindParseFailure:
			require.Empty(t, outcome.Records)
		default:
			t.Fatalf("unknown kind %v", outcome.Kind)
		}
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "records", KindRecords.String())
	require.Equal(t, "no_result", KindNoResult.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
