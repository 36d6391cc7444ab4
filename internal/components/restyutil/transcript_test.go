package restyutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"agencyharvest/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mu    sync.Mutex
	files map[string]string
}

func (m *memoryOutput) Write(id string, contents string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string]string{}
	}
	m.files[id] = contents
	return nil
}

func TestRecordTranscript(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-served-by", "test")
		w.Write([]byte("hello " + r.Method))
	}))
	defer ts.Close()

	out := &memoryOutput{}
	client := resty.New()
	RecordTranscript(client, out, &telemetry.Recorder{})

	_, err := client.R().Get(ts.URL + "/search")
	require.NoError(t, err)
	_, err = client.R().SetFormData(map[string]string{"q": "1234"}).Post(ts.URL + "/search")
	require.NoError(t, err)

	require.Len(t, out.files, 2)

	get := out.files["000001-get.txt"]
	require.Contains(t, get, "---- REQUEST ----\n\nGET "+ts.URL+"/search")
	require.Contains(t, get, "200 "+ts.URL+"/search")
	require.Contains(t, get, "X-Served-By: test")
	require.Contains(t, get, "hello GET")

	post := out.files["000002-post.txt"]
	require.Contains(t, post, "q=1234")
	require.Contains(t, post, "hello POST")
}

func TestRecordTranscriptBodylessRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	out := &memoryOutput{}
	client := resty.New()
	RecordTranscript(client, out, &telemetry.Recorder{})

	res, err := client.R().Get(ts.URL)
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())

	get, ok := out.files["000001-get.txt"]
	require.True(t, ok)
	require.Contains(t, get, "---- REQUEST ----\n\nGET "+ts.URL)
	require.Contains(t, get, "---- RESPONSE ----\n\n200 ")
}

func TestFormatRequestBody(t *testing.T) {
	cases := []struct {
		name     string
		req      func() *http.Request
		expected string
	}{
		{
			name: "no GetBody",
			req: func() *http.Request {
				return &http.Request{}
			},
			expected: "",
		},
		{
			name: "GetBody yields nil",
			req: func() *http.Request {
				return &http.Request{GetBody: func() (io.ReadCloser, error) { return nil, nil }}
			},
			expected: "",
		},
		{
			name: "form body",
			req: func() *http.Request {
				return &http.Request{GetBody: func() (io.ReadCloser, error) {
					return io.NopCloser(strings.NewReader("q=1234")), nil
				}}
			},
			expected: "q=1234",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, formatRequestBody(c.req()))
		})
	}
}

func TestFormatHeadersSorted(t *testing.T) {
	h := http.Header{}
	h.Add("B", "2")
	h.Add("A", "1")
	h.Add("A", "3")
	require.Equal(t, "A: 1\nA: 3\nB: 2", formatHeaders(h))
	require.Equal(t, "", formatHeaders(http.Header{}))
}
