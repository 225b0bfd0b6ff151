package sdb

import (
	"context"
	"net/http"
)

// WriteOption configura PutAttributes e DeleteAttributes.
type WriteOption func(*writeOptions)

type writeOptions struct {
	expected   []Expected
	replaceAll bool
}

// WithExpected torna a escrita condicional.
func WithExpected(expected ...Expected) WriteOption {
	return func(o *writeOptions) { o.expected = append(o.expected, expected...) }
}

// WithReplaceAll força Replace em todos os atributos da chamada.
func WithReplaceAll() WriteOption {
	return func(o *writeOptions) { o.replaceAll = true }
}

func buildWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PutAttributes grava atributos em um item, criando-o se necessário.
func (c *Client) PutAttributes(ctx context.Context, domain, item string, attrs []AttributeWrite, opts ...WriteOption) error {
	const method = "PutAttributes"
	c.begin()
	o := buildWriteOptions(opts)

	if verr := validateDomain(method, domain); verr != nil {
		return c.fail(verr)
	}
	if verr := validateItemName(method, item); verr != nil {
		return c.fail(verr)
	}
	if verr := validateWrites(method, attrs); verr != nil {
		return c.fail(verr)
	}
	if verr := validateExpected(method, o.expected); verr != nil {
		return c.fail(verr)
	}

	req := newRequest(method, http.MethodPost, domain)
	req.params["ItemName"] = item
	encodeWrites(req.params, "", attrs, o.replaceAll)
	encodeExpected(req.params, o.expected)

	if _, err := c.do(ctx, req, nil); err != nil {
		return c.fail(err)
	}
	return nil
}

// GetAttributes lê um item. names vazio retorna todos os atributos; um item
// inexistente retorna Attributes vazio.
func (c *Client) GetAttributes(ctx context.Context, domain, item string, names []string, consistentRead bool) (Attributes, error) {
	const method = "GetAttributes"
	c.begin()

	if verr := validateDomain(method, domain); verr != nil {
		return nil, c.fail(verr)
	}
	if verr := validateItemName(method, item); verr != nil {
		return nil, c.fail(verr)
	}

	req := newRequest(method, http.MethodGet, domain)
	req.params["ItemName"] = item
	if len(names) > 0 {
		encodeAttributeNames(req.params, names)
	}
	if consistentRead {
		req.params["ConsistentRead"] = "true"
	}

	var out getAttributesResponse
	if _, err := c.do(ctx, req, &out); err != nil {
		return nil, c.fail(err)
	}
	return toAttributes(out.Result.Attributes), nil
}

// DeleteAttributes remove atributos de um item. Com attrs nil o item
// inteiro é removido.
func (c *Client) DeleteAttributes(ctx context.Context, domain, item string, attrs []AttributeDelete, opts ...WriteOption) error {
	const method = "DeleteAttributes"
	c.begin()
	o := buildWriteOptions(opts)

	if verr := validateDomain(method, domain); verr != nil {
		return c.fail(verr)
	}
	if verr := validateItemName(method, item); verr != nil {
		return c.fail(verr)
	}
	if verr := validateExpected(method, o.expected); verr != nil {
		return c.fail(verr)
	}

	req := newRequest(method, http.MethodDelete, domain)
	req.params["ItemName"] = item
	encodeDeletes(req.params, "", attrs)
	encodeExpected(req.params, o.expected)

	if _, err := c.do(ctx, req, nil); err != nil {
		return c.fail(err)
	}
	return nil
}
