package sdb

import (
	"context"
	"net/http"
)

// BatchPutAttributes grava até MaxBatchItems itens em uma única chamada.
// Apenas WithReplaceAll é aceito entre as opções.
func (c *Client) BatchPutAttributes(ctx context.Context, domain string, items []PutItem, opts ...WriteOption) error {
	const method = "BatchPutAttributes"
	c.begin()
	o := buildWriteOptions(opts)
	if len(o.expected) > 0 {
		return c.fail(validationError(method, CodeInvalidParameterValue, "Expected is not supported by batch calls."))
	}
	if err := c.batchPut(ctx, domain, items, o.replaceAll); err != nil {
		return c.fail(err)
	}
	return nil
}

// BatchDeleteAttributes remove atributos (ou itens inteiros) de até
// MaxBatchItems itens em uma única chamada.
func (c *Client) BatchDeleteAttributes(ctx context.Context, domain string, items []DeleteItem) error {
	c.begin()
	if err := c.batchDelete(ctx, domain, items); err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Client) batchPut(ctx context.Context, domain string, items []PutItem, replaceAll bool) *Error {
	const method = "BatchPutAttributes"
	if verr := validateDomain(method, domain); verr != nil {
		return verr
	}
	if verr := validateBatchSize(method, len(items)); verr != nil {
		return verr
	}
	for _, item := range items {
		if verr := validateItemName(method, item.Name); verr != nil {
			return verr
		}
		if verr := validateWrites(method, item.Attributes); verr != nil {
			return verr
		}
	}

	req := newRequest(method, http.MethodPost, domain)
	encodePutItems(req.params, items, replaceAll)
	_, err := c.do(ctx, req, nil)
	return err
}

func (c *Client) batchDelete(ctx context.Context, domain string, items []DeleteItem) *Error {
	const method = "BatchDeleteAttributes"
	if verr := validateDomain(method, domain); verr != nil {
		return verr
	}
	if verr := validateBatchSize(method, len(items)); verr != nil {
		return verr
	}
	for _, item := range items {
		if verr := validateItemName(method, item.Name); verr != nil {
			return verr
		}
	}

	req := newRequest(method, http.MethodPost, domain)
	encodeDeleteItems(req.params, items)
	_, err := c.do(ctx, req, nil)
	return err
}
