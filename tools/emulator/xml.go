package emulator

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

const namespace = "http://sdb.amazonaws.com/doc/2009-04-15/"

// boxUsage fixo por chamada; o serviço real cobra conforme o custo.
const boxUsage = 0.0000219907

type xmlMetadata struct {
	RequestID string `xml:"RequestId"`
	BoxUsage  string `xml:"BoxUsage"`
}

// xmlResponse é o envelope <{Action}Response>.
type xmlResponse struct {
	XMLName  xml.Name
	Xmlns    string      `xml:"xmlns,attr"`
	Result   interface{} `xml:",omitempty"`
	Metadata xmlMetadata `xml:"ResponseMetadata"`
}

type xmlAttribute struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type xmlItem struct {
	Name       string         `xml:"Name"`
	Attributes []xmlAttribute `xml:"Attribute"`
}

type listDomainsResult struct {
	XMLName     xml.Name `xml:"ListDomainsResult"`
	DomainNames []string `xml:"DomainName"`
	NextToken   string   `xml:"NextToken,omitempty"`
}

type domainMetadataResult struct {
	XMLName                  xml.Name `xml:"DomainMetadataResult"`
	ItemCount                int      `xml:"ItemCount"`
	ItemNamesSizeBytes       int      `xml:"ItemNamesSizeBytes"`
	AttributeNameCount       int      `xml:"AttributeNameCount"`
	AttributeNamesSizeBytes  int      `xml:"AttributeNamesSizeBytes"`
	AttributeValueCount      int      `xml:"AttributeValueCount"`
	AttributeValuesSizeBytes int      `xml:"AttributeValuesSizeBytes"`
	Timestamp                int64    `xml:"Timestamp"`
}

type getAttributesResult struct {
	XMLName    xml.Name       `xml:"GetAttributesResult"`
	Attributes []xmlAttribute `xml:"Attribute"`
}

type selectResult struct {
	XMLName   xml.Name  `xml:"SelectResult"`
	Items     []xmlItem `xml:"Item"`
	NextToken string    `xml:"NextToken,omitempty"`
}

type xmlError struct {
	Code     string `xml:"Code"`
	Message  string `xml:"Message"`
	BoxUsage string `xml:"BoxUsage"`
}

type xmlErrorResponse struct {
	XMLName   xml.Name   `xml:"Response"`
	Errors    []xmlError `xml:"Errors>Error"`
	RequestID string     `xml:"RequestID"`
}

// apiError é uma falha no formato do serviço.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Code + ": " + e.Message }

func newAPIError(status int, code, format string, args ...interface{}) *apiError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &apiError{Status: status, Code: code, Message: msg}
}

func formatBox(v float64) string {
	return strconv.FormatFloat(v, 'f', 10, 64)
}

func writeXML(w http.ResponseWriter, log zerolog.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return
	}
	if err := xml.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("erro ao serializar resposta")
	}
}

func writeResult(w http.ResponseWriter, log zerolog.Logger, action, requestID string, result interface{}) {
	writeXML(w, log, http.StatusOK, xmlResponse{
		XMLName:  xml.Name{Local: action + "Response"},
		Xmlns:    namespace,
		Result:   result,
		Metadata: xmlMetadata{RequestID: requestID, BoxUsage: formatBox(boxUsage)},
	})
}

func writeError(w http.ResponseWriter, log zerolog.Logger, requestID string, e *apiError) {
	writeXML(w, log, e.Status, xmlErrorResponse{
		Errors:    []xmlError{{Code: e.Code, Message: e.Message, BoxUsage: formatBox(boxUsage)}},
		RequestID: requestID,
	})
}
