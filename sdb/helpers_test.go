package sdb

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testBox = "0.0000219907"

// handlerFunc responde a uma chamada a partir dos parâmetros da query.
type handlerFunc func(q url.Values) (int, string)

func newTestClient(t *testing.T, mode ErrorMode, h handlerFunc) (*Client, *MockHTTPClient) {
	t.Helper()
	mock := &MockHTTPClient{DoFn: func(req *http.Request) (*http.Response, error) {
		status, body := h(req.URL.Query())
		return MockResponse(status, body), nil
	}}
	c, err := New(Config{
		AccessKey:  "AKID",
		SecretKey:  "secret",
		ErrorMode:  mode,
		HTTPClient: mock,
	})
	require.NoError(t, err)
	c.signer.now = func() time.Time { return time.Date(2011, 10, 7, 8, 18, 22, 0, time.UTC) }
	return c, mock
}

func okResponse(action, result string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<%[1]sResponse xmlns="http://sdb.amazonaws.com/doc/2009-04-15/">%[2]s<ResponseMetadata><RequestId>req-1</RequestId><BoxUsage>%[3]s</BoxUsage></ResponseMetadata></%[1]sResponse>`,
		action, result, testBox)
}

func errorBody(code, message string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<Response><Errors><Error><Code>%s</Code><Message>%s</Message><BoxUsage>%s</BoxUsage></Error></Errors><RequestID>req-err</RequestID></Response>`,
		code, message, testBox)
}

// selectBody monta uma página com itens item00000, item00001, ... a partir
// de start.
func selectBody(start, n int, next string) string {
	var b strings.Builder
	b.WriteString("<SelectResult>")
	for i := start; i < start+n; i++ {
		fmt.Fprintf(&b, "<Item><Name>item%05d</Name><Attribute><Name>n</Name><Value>%d</Value></Attribute></Item>", i, i)
	}
	if next != "" {
		fmt.Fprintf(&b, "<NextToken>%s</NextToken>", next)
	}
	b.WriteString("</SelectResult>")
	return okResponse("Select", b.String())
}

func ok(action string) handlerFunc {
	return func(url.Values) (int, string) { return http.StatusOK, okResponse(action, "") }
}
