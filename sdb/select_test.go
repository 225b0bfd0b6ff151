package sdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSelect serve páginas de tamanhos fixos; o NextToken é o índice da
// próxima página.
func pagedSelect(sizes ...int) handlerFunc {
	return func(q url.Values) (int, string) {
		page := 0
		if tok := q.Get("NextToken"); tok != "" {
			_, _ = fmt.Sscanf(tok, "page-%d", &page)
		}
		start := 0
		for _, s := range sizes[:page] {
			start += s
		}
		next := ""
		if page+1 < len(sizes) {
			next = fmt.Sprintf("page-%d", page+1)
		}
		return http.StatusOK, selectBody(start, sizes[page], next)
	}
}

func TestSelect_SinglePage(t *testing.T) {
	c, mock := newTestClient(t, ErrorModeRaise, pagedSelect(1250, 1250, 125))

	res, err := c.Select(context.Background(), "select * from `users`", WithConsistentRead())
	require.NoError(t, err)
	assert.Len(t, res.Items, 1250)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "page-1", res.NextToken)
	assert.Equal(t, "page-1", c.NextToken())
	assert.Equal(t, "true", mock.Requests[0].URL.Query().Get("ConsistentRead"))

	item := res.Items[3]
	assert.Equal(t, "item00003", item.Name)
	assert.Equal(t, "3", item.Attributes.First("n"))

	next, err := c.Select(context.Background(), "select * from `users`", WithNextToken(res.NextToken))
	require.NoError(t, err)
	assert.Equal(t, "item01250", next.Items[0].Name)
	assert.Equal(t, "page-1", mock.Requests[1].URL.Query().Get("NextToken"))
}

func TestSelect_FetchAll(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		total int
	}{
		{name: "três páginas", sizes: []int{1250, 1250, 125}, total: 2625},
		{name: "página cheia mais resto", sizes: []int{2500, 125}, total: 2625},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newTestClient(t, ErrorModeRaise, pagedSelect(tt.sizes...))

			res, err := c.Select(context.Background(), "select * from `users` limit 2500", WithFetchAll())
			require.NoError(t, err)
			assert.Len(t, res.Items, tt.total)
			assert.Equal(t, len(tt.sizes), res.Pages)
			assert.Equal(t, len(tt.sizes), mock.Calls())
			assert.Empty(t, res.NextToken)
			assert.InDelta(t, float64(len(tt.sizes))*0.0000219907, res.BoxUsage, 1e-12)
			assert.Equal(t, fmt.Sprintf("item%05d", tt.total-1), res.Items[tt.total-1].Name)
		})
	}
}

func TestSelect_MaxItemsKeepsLastPage(t *testing.T) {
	c, mock := newTestClient(t, ErrorModeRaise, pagedSelect(1250, 1250, 125))

	res, err := c.Select(context.Background(), "select * from `users`", WithFetchAll(), WithMaxItems(1300))
	require.NoError(t, err)
	assert.Len(t, res.Items, 2500)
	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, "page-2", res.NextToken)
}

func TestSelect_ContextCancelledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	c, _ := newTestClient(t, ErrorModeRaise, func(q url.Values) (int, string) {
		calls++
		cancel()
		return pagedSelect(10, 10, 10)(q)
	})

	_, err := c.Select(ctx, "select * from `users`", WithFetchAll())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.False(t, IsRetryable(err))
}

func TestSelectPages(t *testing.T) {
	c, _ := newTestClient(t, ErrorModeRaise, pagedSelect(3, 3, 2))

	var sizes []int
	err := c.SelectPages(context.Background(), "select * from `users`", func(p *SelectPage) bool {
		sizes = append(sizes, len(p.Items))
		assert.Greater(t, p.BoxUsage, 0.0)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 2}, sizes)

	sizes = nil
	err = c.SelectPages(context.Background(), "select * from `users`", func(p *SelectPage) bool {
		sizes = append(sizes, len(p.Items))
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, sizes)
}

func TestSelect_ServiceError(t *testing.T) {
	c, _ := newTestClient(t, ErrorModeIgnore, func(url.Values) (int, string) {
		return http.StatusBadRequest, errorBody("InvalidQueryExpression", "The specified query expression syntax is not valid.")
	})
	res, err := c.Select(context.Background(), "select from")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, []string{"InvalidQueryExpression"}, c.LastErrors().Codes())
}

func TestDeleteWhere(t *testing.T) {
	var deleted []string
	c, mock := newTestClient(t, ErrorModeRaise, func(q url.Values) (int, string) {
		switch q.Get("Action") {
		case "Select":
			return pagedSelect(30, 12)(q)
		case "BatchDeleteAttributes":
			for i := 0; ; i++ {
				name := q.Get(fmt.Sprintf("Item.%d.ItemName", i))
				if name == "" {
					break
				}
				deleted = append(deleted, name)
			}
			return http.StatusOK, okResponse("BatchDeleteAttributes", "")
		}
		return http.StatusBadRequest, errorBody("InvalidAction", "unexpected")
	})

	n, err := c.DeleteWhere(context.Background(), "users", "status = 'done'", true)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Len(t, deleted, 42)

	// 2 selects + ceil(42/25) lotes
	assert.Equal(t, 4, mock.Calls())
	q := mock.Requests[0].URL.Query()
	assert.Equal(t, "select itemName() from `users` where status = 'done' limit 2500", q.Get("SelectExpression"))
	assert.Equal(t, "true", q.Get("ConsistentRead"))
	assert.Equal(t, "BatchDeleteAttributes", mock.Requests[2].URL.Query().Get("Action"))
	assert.Empty(t, mock.Requests[2].URL.Query().Get("Item.0.Attribute.0.Name"))

	// a fila não é usada
	_, deletes := c.QueueLen("users")
	assert.Zero(t, deletes)
}

func TestDeleteWhere_PartialFailure(t *testing.T) {
	batches := 0
	c, _ := newTestClient(t, ErrorModeRaise, func(q url.Values) (int, string) {
		if q.Get("Action") == "Select" {
			return pagedSelect(60)(q)
		}
		batches++
		if batches == 2 {
			return http.StatusServiceUnavailable, errorBody(CodeServiceUnavailable, "busy")
		}
		return http.StatusOK, okResponse("BatchDeleteAttributes", "")
	})

	n, err := c.DeleteWhere(context.Background(), "users", "a = '1'", false)
	assert.Equal(t, 25, n)
	assert.True(t, HasCode(err, CodeServiceUnavailable))
	assert.True(t, strings.HasPrefix(err.Error(), "sdb: BatchDeleteAttributes"))
}
