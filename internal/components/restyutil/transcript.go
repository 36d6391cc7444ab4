// Package restyutil records the http exchanges of a resty client for later inspection.
package restyutil

import (
	"fmt"
	"strings"
	"sync/atomic"

	"agencyharvest/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_transcript_write = "transcript.write"

// Output receives one rendered exchange per call.
type Output interface {
	Write(id string, contents string) error
}

// RecordTranscript writes every response the client receives to output, named
// "<sequence>-<method>.txt" so that a directory listing reads in request order.
func RecordTranscript(client *resty.Client, output Output, tel telemetry.API) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		seq := atomic.AddUint64(&counter, 1)
		id := fmt.Sprintf("%06d-%s.txt", seq, strings.ToLower(res.Request.Method))
		err := output.Write(id, FormatMessage(res))
		if err != nil {
			tel.ReportWarning(report_transcript_write, id, err)
		}
		return nil
	})
}
