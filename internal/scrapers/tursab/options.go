package tursab

import (
	"time"

	"dario.cat/mergo"
)

const (
	DefaultBaseURL      = "https://www.tursab.org.tr"
	DefaultSearchPath   = "/acenta-arama"
	DefaultAwaitTimeout = 20 * time.Second
)

var DefaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Form holds the element ids of the search form controls.
type Form struct {
	InputID        string `json:"input_id"`
	SearchButtonID string `json:"search_button_id"`
	ResetButtonID  string `json:"reset_button_id"`
}

func DefaultForm() Form {
	return Form{
		InputID:        "ContentPlaceHolder1_TursabNoText",
		SearchButtonID: "ContentPlaceHolder1_SearchButton",
		ResetButtonID:  "ContentPlaceHolder1_CleanButton",
	}
}

type Options struct {
	BaseURL    string
	SearchPath string
	// UserAgents is the pool one user agent is picked from per session.
	UserAgents []string
	// AwaitTimeout bounds every request of the session.
	AwaitTimeout time.Duration
	Form         Form
	// TranscriptDir receives every http exchange of the session when set.
	TranscriptDir string
}

// WithDefaults fills every unset option.
func (o Options) WithDefaults() Options {
	defaults := Options{
		BaseURL:      DefaultBaseURL,
		SearchPath:   DefaultSearchPath,
		UserAgents:   DefaultUserAgents,
		AwaitTimeout: DefaultAwaitTimeout,
		Form:         DefaultForm(),
	}
	err := mergo.Merge(&o, defaults)
	if err != nil {
		panic(err)
	}
	return o
}
