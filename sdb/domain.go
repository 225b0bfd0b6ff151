package sdb

import (
	"context"
	"net/http"
	"strconv"
)

// CreateDomain cria um domínio. A operação é idempotente no serviço.
func (c *Client) CreateDomain(ctx context.Context, domain string) error {
	const method = "CreateDomain"
	c.begin()
	if verr := validateDomain(method, domain); verr != nil {
		return c.fail(verr)
	}
	if _, err := c.do(ctx, newRequest(method, http.MethodPost, domain), nil); err != nil {
		return c.fail(err)
	}
	return nil
}

// DeleteDomain remove um domínio e todos os seus itens.
func (c *Client) DeleteDomain(ctx context.Context, domain string) error {
	const method = "DeleteDomain"
	c.begin()
	if verr := validateDomain(method, domain); verr != nil {
		return c.fail(verr)
	}
	if _, err := c.do(ctx, newRequest(method, http.MethodDelete, domain), nil); err != nil {
		return c.fail(err)
	}
	return nil
}

// ListOption configura ListDomains.
type ListOption func(*listOptions)

type listOptions struct {
	max       int
	nextToken string
}

// WithMaxDomains limita a página a n domínios (MaxNumberOfDomains) e
// desliga a paginação automática.
func WithMaxDomains(n int) ListOption {
	return func(o *listOptions) { o.max = n }
}

// WithListToken continua uma listagem anterior.
func WithListToken(token string) ListOption {
	return func(o *listOptions) { o.nextToken = token }
}

// ListDomains retorna os nomes dos domínios da conta. Sem WithMaxDomains
// todas as páginas são buscadas.
func (c *Client) ListDomains(ctx context.Context, opts ...ListOption) ([]string, error) {
	const method = "ListDomains"
	c.begin()

	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}

	var domains []string
	token := o.nextToken
	for {
		req := newRequest(method, http.MethodGet, "")
		if o.max > 0 {
			req.params["MaxNumberOfDomains"] = strconv.Itoa(o.max)
		}
		if token != "" {
			req.params["NextToken"] = token
		}

		var out listDomainsResponse
		if _, err := c.do(ctx, req, &out); err != nil {
			return nil, c.fail(err)
		}
		domains = append(domains, out.Result.DomainNames...)
		token = out.Result.NextToken
		c.setNextToken(token)

		if token == "" || o.max > 0 {
			return domains, nil
		}
	}
}

// DomainMetadata retorna as estatísticas de um domínio.
func (c *Client) DomainMetadata(ctx context.Context, domain string) (*DomainMetadata, error) {
	const method = "DomainMetadata"
	c.begin()
	if verr := validateDomain(method, domain); verr != nil {
		return nil, c.fail(verr)
	}

	var out domainMetadataResponse
	if _, err := c.do(ctx, newRequest(method, http.MethodGet, domain), &out); err != nil {
		return nil, c.fail(err)
	}
	return out.toMetadata(), nil
}
