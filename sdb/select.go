package sdb

import (
	"context"
	"fmt"
	"net/http"
)

// SelectOption configura Select e SelectPages.
type SelectOption func(*selectOptions)

type selectOptions struct {
	nextToken  string
	consistent bool
	fetchAll   bool
	maxItems   int
}

// WithNextToken continua uma consulta anterior. O token é repassado sem
// alteração.
func WithNextToken(token string) SelectOption {
	return func(o *selectOptions) { o.nextToken = token }
}

// WithConsistentRead pede leitura consistente.
func WithConsistentRead() SelectOption {
	return func(o *selectOptions) { o.consistent = true }
}

// WithFetchAll segue o NextToken até a última página.
func WithFetchAll() SelectOption {
	return func(o *selectOptions) { o.fetchAll = true }
}

// WithMaxItems interrompe o WithFetchAll quando o total acumulado chega a n.
// A última página é mantida inteira, então o resultado pode ter até
// MaxSelectPage itens além de n.
func WithMaxItems(n int) SelectOption {
	return func(o *selectOptions) { o.maxItems = n }
}

func buildSelectOptions(opts []SelectOption) selectOptions {
	var o selectOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Select executa uma expressão de consulta. A expressão não é interpretada
// pelo cliente; limit e where vão no próprio texto.
func (c *Client) Select(ctx context.Context, expr string, opts ...SelectOption) (*SelectResult, error) {
	c.begin()
	res, err := c.selectAll(ctx, expr, buildSelectOptions(opts))
	if err != nil {
		return nil, c.fail(err)
	}
	return res, nil
}

// SelectPages chama fn a cada página recebida até o fim dos resultados ou
// até fn retornar false.
func (c *Client) SelectPages(ctx context.Context, expr string, fn func(*SelectPage) bool, opts ...SelectOption) error {
	const method = "Select"
	c.begin()
	o := buildSelectOptions(opts)

	token := o.nextToken
	for {
		if err := ctx.Err(); err != nil {
			return c.fail(transportError(method, err))
		}
		page, err := c.selectPage(ctx, expr, token, o.consistent)
		if err != nil {
			return c.fail(err)
		}
		token = page.NextToken
		if !fn(page) || token == "" {
			return nil
		}
	}
}

func (c *Client) selectAll(ctx context.Context, expr string, o selectOptions) (*SelectResult, *Error) {
	const method = "Select"
	res := &SelectResult{}
	token := o.nextToken

	for {
		if err := ctx.Err(); err != nil {
			return nil, transportError(method, err)
		}
		page, err := c.selectPage(ctx, expr, token, o.consistent)
		if err != nil {
			return nil, err
		}

		res.Items = append(res.Items, page.Items...)
		res.BoxUsage += page.BoxUsage
		res.NextToken = page.NextToken
		res.Pages++
		token = page.NextToken

		if !o.fetchAll || token == "" {
			return res, nil
		}
		if o.maxItems > 0 && len(res.Items) >= o.maxItems {
			return res, nil
		}
	}
}

func (c *Client) selectPage(ctx context.Context, expr, token string, consistent bool) (*SelectPage, *Error) {
	const method = "Select"
	if expr == "" {
		return nil, validationError(method, CodeInvalidParameterValue, "The specified query expression is empty.")
	}

	req := newRequest(method, http.MethodGet, "")
	req.params["SelectExpression"] = expr
	if token != "" {
		req.params["NextToken"] = token
	}
	if consistent {
		req.params["ConsistentRead"] = "true"
	}

	var out selectResponse
	meta, err := c.do(ctx, req, &out)
	if err != nil {
		return nil, err
	}
	c.setNextToken(out.Result.NextToken)

	return &SelectPage{
		Items:     toItems(out.Result.Items),
		NextToken: out.Result.NextToken,
		BoxUsage:  meta.BoxUsage,
	}, nil
}

// DeleteWhere remove todos os itens do domínio que satisfazem where,
// buscando os nomes com Select e removendo-os em lotes de MaxBatchItems.
// Retorna quantos itens foram removidos; em caso de falha os lotes
// anteriores permanecem removidos.
func (c *Client) DeleteWhere(ctx context.Context, domain, where string, consistentRead bool) (int, error) {
	const method = "DeleteWhere"
	c.begin()

	if verr := validateDomain(method, domain); verr != nil {
		return 0, c.fail(verr)
	}
	expr := fmt.Sprintf("select itemName() from `%s` where %s limit %d", domain, where, MaxSelectPage)
	res, err := c.selectAll(ctx, expr, selectOptions{consistent: consistentRead, fetchAll: true})
	if err != nil {
		return 0, c.fail(err)
	}

	names := res.ItemNames()
	deleted := 0
	for i := 0; i < len(names); i += MaxBatchItems {
		end := i + MaxBatchItems
		if end > len(names) {
			end = len(names)
		}
		items := make([]DeleteItem, 0, end-i)
		for _, name := range names[i:end] {
			items = append(items, DeleteItem{Name: name})
		}
		if err := c.batchDelete(ctx, domain, items); err != nil {
			return deleted, c.fail(err)
		}
		deleted += len(items)
	}
	return deleted, nil
}
