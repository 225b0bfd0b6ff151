package sdb

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
	"time"
)

const (
	signatureVersion = "2"
	signatureMethod  = "HmacSHA256"
	// mesmo formato de gmdate('c'): offset explícito em vez de "Z".
	timestampLayout = "2006-01-02T15:04:05-07:00"
)

// request é uma chamada ainda não assinada.
type request struct {
	action string
	verb   string
	domain string
	params params
}

func newRequest(action, verb, domain string) *request {
	return &request{action: action, verb: verb, domain: domain, params: params{}}
}

// signer adiciona os parâmetros comuns e a assinatura versão 2.
type signer struct {
	accessKey string
	secretKey string
	// token de credenciais temporárias (STS); vai como SecurityToken.
	token   string
	host    string
	version string
	now     func() time.Time
}

// query devolve a query string final, já com Signature.
func (s *signer) query(r *request) string {
	p := make(params, len(r.params)+8)
	for k, v := range r.params {
		p[k] = v
	}
	if r.domain != "" {
		p["DomainName"] = r.domain
	}
	p["Action"] = r.action
	p["Version"] = s.version
	p["SignatureVersion"] = signatureVersion
	p["SignatureMethod"] = signatureMethod
	p["AWSAccessKeyId"] = s.accessKey
	if s.token != "" {
		p["SecurityToken"] = s.token
	}
	p["Timestamp"] = s.now().UTC().Format(timestampLayout)

	q := canonicalQuery(p)
	return q + "&Signature=" + rawURLEncode(s.signature(stringToSign(r.verb, s.host, q)))
}

func (s *signer) signature(str string) string {
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(str))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func stringToSign(verb, host, query string) string {
	return verb + "\n" + host + "\n/\n" + query
}

// canonicalQuery ordena os pares pela string "chave=valor" completa, não
// apenas pela chave.
func canonicalQuery(p params) string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+rawURLEncode(v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// rawURLEncode codifica conforme a RFC 3986: apenas A-Z, a-z, 0-9, '-',
// '_', '.' e '~' passam sem escape.
func rawURLEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
