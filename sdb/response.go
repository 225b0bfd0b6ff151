package sdb

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// Decoder converte o corpo XML de uma resposta em v.
type Decoder interface {
	Decode(body []byte, v any) error
}

// XMLDecoder é o Decoder padrão, sobre encoding/xml.
type XMLDecoder struct{}

func (XMLDecoder) Decode(body []byte, v any) error {
	return xml.Unmarshal(body, v)
}

type xmlMetadata struct {
	RequestID string `xml:"RequestId"`
	BoxUsage  string `xml:"BoxUsage"`
}

// envelope é comum a todas as respostas de sucesso; o elemento raiz varia
// por ação (<CreateDomainResponse>, <SelectResponse>, ...).
type envelope struct {
	Metadata xmlMetadata `xml:"ResponseMetadata"`
}

func (e *envelope) metadata() ResponseMetadata {
	return ResponseMetadata{
		RequestID: e.Metadata.RequestID,
		BoxUsage:  parseBoxUsage(e.Metadata.BoxUsage),
	}
}

type metadataCarrier interface {
	metadata() ResponseMetadata
}

type xmlAttribute struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type xmlItem struct {
	Name       string         `xml:"Name"`
	Attributes []xmlAttribute `xml:"Attribute"`
}

type listDomainsResponse struct {
	envelope
	Result struct {
		DomainNames []string `xml:"DomainName"`
		NextToken   string   `xml:"NextToken"`
	} `xml:"ListDomainsResult"`
}

type domainMetadataResponse struct {
	envelope
	Result struct {
		ItemCount                int64 `xml:"ItemCount"`
		ItemNamesSizeBytes       int64 `xml:"ItemNamesSizeBytes"`
		AttributeNameCount       int64 `xml:"AttributeNameCount"`
		AttributeNamesSizeBytes  int64 `xml:"AttributeNamesSizeBytes"`
		AttributeValueCount      int64 `xml:"AttributeValueCount"`
		AttributeValuesSizeBytes int64 `xml:"AttributeValuesSizeBytes"`
		Timestamp                int64 `xml:"Timestamp"`
	} `xml:"DomainMetadataResult"`
}

type getAttributesResponse struct {
	envelope
	Result struct {
		Attributes []xmlAttribute `xml:"Attribute"`
	} `xml:"GetAttributesResult"`
}

type selectResponse struct {
	envelope
	Result struct {
		Items     []xmlItem `xml:"Item"`
		NextToken string    `xml:"NextToken"`
	} `xml:"SelectResult"`
}

type xmlNode struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlError struct {
	Code    string    `xml:"Code"`
	Message string    `xml:"Message"`
	Extra   []xmlNode `xml:",any"`
}

// errorResponse é o documento <Response><Errors>...</Errors></Response>.
type errorResponse struct {
	Errors    []xmlError `xml:"Errors>Error"`
	RequestID string     `xml:"RequestID"`
}

func (r *errorResponse) records(method string) (Errors, float64) {
	out := make(Errors, 0, len(r.Errors))
	var box float64
	for _, e := range r.Errors {
		rec := ErrorRecord{Method: method, Code: e.Code, Message: e.Message}
		if len(e.Extra) > 0 {
			rec.Info = make(map[string]string, len(e.Extra))
			for _, n := range e.Extra {
				rec.Info[n.XMLName.Local] = strings.TrimSpace(n.Value)
			}
			box += parseBoxUsage(rec.Info["BoxUsage"])
		}
		out = append(out, rec)
	}
	return out, box
}

func toAttributes(in []xmlAttribute) Attributes {
	out := make(Attributes, len(in))
	for i, a := range in {
		out[i] = Attribute{Name: a.Name, Value: a.Value}
	}
	return out
}

func toItems(in []xmlItem) []Item {
	out := make([]Item, len(in))
	for i, it := range in {
		out[i] = Item{Name: it.Name}
		if len(it.Attributes) > 0 {
			out[i].Attributes = toAttributes(it.Attributes)
		}
	}
	return out
}

func (r *domainMetadataResponse) toMetadata() *DomainMetadata {
	res := r.Result
	return &DomainMetadata{
		ItemCount:                res.ItemCount,
		ItemNamesSizeBytes:       res.ItemNamesSizeBytes,
		AttributeNameCount:       res.AttributeNameCount,
		AttributeNamesSizeBytes:  res.AttributeNamesSizeBytes,
		AttributeValueCount:      res.AttributeValueCount,
		AttributeValuesSizeBytes: res.AttributeValuesSizeBytes,
		Timestamp:                time.Unix(res.Timestamp, 0).UTC(),
	}
}

func parseBoxUsage(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
