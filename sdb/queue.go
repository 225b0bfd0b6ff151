package sdb

import (
	"context"
	"errors"
)

// queue guarda operações pendentes por domínio, em ordem de chegada.
type queue[T any] struct {
	order []string
	items map[string][]T
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{items: make(map[string][]T)}
}

func (q *queue[T]) push(domain string, v T) int {
	if _, ok := q.items[domain]; !ok {
		q.order = append(q.order, domain)
	}
	q.items[domain] = append(q.items[domain], v)
	return len(q.items[domain])
}

func (q *queue[T]) get(domain string) []T {
	return q.items[domain]
}

// set substitui as operações do domínio; vazio remove o domínio da fila.
func (q *queue[T]) set(domain string, rest []T) {
	if len(rest) > 0 {
		q.items[domain] = rest
		return
	}
	delete(q.items, domain)
	for i, d := range q.order {
		if d == domain {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

func (q *queue[T]) domains() []string {
	out := make([]string, len(q.order))
	copy(out, q.order)
	return out
}

func (q *queue[T]) clear() {
	q.order = nil
	q.items = make(map[string][]T)
}

// QueuePutAttributes enfileira uma escrita. Ao atingir MaxBatchItems
// operações no domínio a fila é enviada automaticamente e o resultado do
// envio é retornado.
func (c *Client) QueuePutAttributes(ctx context.Context, domain, item string, attrs []AttributeWrite, opts ...WriteOption) error {
	const method = "QueuePutAttributes"
	c.begin()
	o := buildWriteOptions(opts)

	if len(o.expected) > 0 {
		return c.fail(validationError(method, CodeInvalidParameterValue, "Expected is not supported by batch calls."))
	}
	if verr := validateDomain(method, domain); verr != nil {
		return c.fail(verr)
	}
	if verr := validateItemName(method, item); verr != nil {
		return c.fail(verr)
	}
	if verr := validateWrites(method, attrs); verr != nil {
		return c.fail(verr)
	}

	writes := make([]AttributeWrite, len(attrs))
	copy(writes, attrs)
	if o.replaceAll {
		for i := range writes {
			writes[i].Mode = Replace
		}
	}

	if c.puts.push(domain, PutItem{Name: item, Attributes: writes}) < MaxBatchItems {
		return nil
	}
	if ferr := c.flushPuts(ctx, domain); ferr != nil {
		return c.failFlush(ferr)
	}
	return nil
}

// QueueDeleteAttributes enfileira uma remoção; attrs nil remove o item
// inteiro. Segue a mesma regra de envio automático de QueuePutAttributes.
func (c *Client) QueueDeleteAttributes(ctx context.Context, domain, item string, attrs []AttributeDelete) error {
	const method = "QueueDeleteAttributes"
	c.begin()

	if verr := validateDomain(method, domain); verr != nil {
		return c.fail(verr)
	}
	if verr := validateItemName(method, item); verr != nil {
		return c.fail(verr)
	}

	if c.deletes.push(domain, DeleteItem{Name: item, Attributes: attrs}) < MaxBatchItems {
		return nil
	}
	if ferr := c.flushDeletes(ctx, domain); ferr != nil {
		return c.failFlush(ferr)
	}
	return nil
}

// FlushPutAttributesQueue envia as escritas pendentes de um domínio em
// lotes de até MaxBatchItems.
func (c *Client) FlushPutAttributesQueue(ctx context.Context, domain string) error {
	c.begin()
	if ferr := c.flushPuts(ctx, domain); ferr != nil {
		return c.failFlush(ferr)
	}
	return nil
}

// FlushDeleteAttributesQueue envia as remoções pendentes de um domínio.
func (c *Client) FlushDeleteAttributesQueue(ctx context.Context, domain string) error {
	c.begin()
	if ferr := c.flushDeletes(ctx, domain); ferr != nil {
		return c.failFlush(ferr)
	}
	return nil
}

// FlushQueues envia todas as filas: primeiro as escritas, depois as
// remoções, cada uma na ordem em que os domínios entraram na fila. Uma
// falha em um domínio não impede o envio dos demais.
func (c *Client) FlushQueues(ctx context.Context) error {
	c.begin()
	var failed []*FlushError
	for _, domain := range c.puts.domains() {
		if ferr := c.flushPuts(ctx, domain); ferr != nil {
			failed = append(failed, ferr)
		}
	}
	for _, domain := range c.deletes.domains() {
		if ferr := c.flushDeletes(ctx, domain); ferr != nil {
			failed = append(failed, ferr)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return c.failFlush(failed...)
}

// ClearQueues descarta todas as operações pendentes sem enviá-las.
func (c *Client) ClearQueues() {
	c.puts.clear()
	c.deletes.clear()
}

// QueueLen retorna quantas escritas e remoções estão pendentes no domínio.
func (c *Client) QueueLen(domain string) (puts, deletes int) {
	return len(c.puts.get(domain)), len(c.deletes.get(domain))
}

func (c *Client) flushPuts(ctx context.Context, domain string) *FlushError {
	return flushQueue(ctx, c, c.puts, "BatchPutAttributes", domain,
		func(it PutItem) string { return it.Name },
		func(ctx context.Context, chunk []PutItem) *Error { return c.batchPut(ctx, domain, chunk, false) })
}

func (c *Client) flushDeletes(ctx context.Context, domain string) *FlushError {
	return flushQueue(ctx, c, c.deletes, "BatchDeleteAttributes", domain,
		func(it DeleteItem) string { return it.Name },
		func(ctx context.Context, chunk []DeleteItem) *Error { return c.batchDelete(ctx, domain, chunk) })
}

// flushQueue envia os lotes em ordem e para no primeiro rejeitado. Lotes já
// aceitos não são desfeitos; o rejeitado e os seguintes continuam na fila.
func flushQueue[T any](
	ctx context.Context,
	c *Client,
	q *queue[T],
	method, domain string,
	name func(T) string,
	send func(context.Context, []T) *Error,
) *FlushError {
	ops := q.get(domain)
	var results []ChunkResult

	for i := 0; i < len(ops); i += MaxBatchItems {
		end := i + MaxBatchItems
		if end > len(ops) {
			end = len(ops)
		}
		chunk := ops[i:end]

		res := ChunkResult{Domain: domain, Index: len(results), Items: make([]string, len(chunk))}
		for j, op := range chunk {
			res.Items[j] = name(op)
		}

		if err := send(ctx, chunk); err != nil {
			res.Err = err
			results = append(results, res)
			q.set(domain, ops[i:])
			c.recordFlush(results)
			return &FlushError{Method: method, Domain: domain, Chunks: results, Pending: len(ops) - i}
		}
		results = append(results, res)
	}

	q.set(domain, nil)
	c.recordFlush(results)
	return nil
}

func (c *Client) recordFlush(results []ChunkResult) {
	c.mu.Lock()
	c.lastFlush = append(c.lastFlush, results...)
	c.mu.Unlock()
}

// joinFlushErrors mantém um único *FlushError quando possível, para que
// errors.As continue funcionando no caso comum.
func joinFlushErrors(failed []*FlushError) error {
	if len(failed) == 1 {
		return failed[0]
	}
	errs := make([]error, len(failed))
	for i, f := range failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}
