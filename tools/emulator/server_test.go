package emulator

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call executa uma ação direto no handler, sem cliente.
func call(t *testing.T, s *Server, action string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	q := url.Values{}
	q.Set("Action", action)
	q.Set("AWSAccessKeyId", "local")
	for k, v := range params {
		q.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var doc xmlErrorResponse
	require.NoError(t, xml.Unmarshal(rr.Body.Bytes(), &doc), rr.Body.String())
	require.NotEmpty(t, doc.Errors)
	return doc.Errors[0].Code
}

func seeded() *Server {
	return New(Options{
		Now: func() time.Time { return time.Unix(1317975502, 0) },
		Seed: Seed{
			"users": {
				"u1": {"a1": {"7"}, "tags": {"x", "y"}},
			},
		},
	})
}

func TestNew_RegistersActions(t *testing.T) {
	s := seeded()
	actions := []string{
		"CreateDomain", "DeleteDomain", "ListDomains", "DomainMetadata",
		"PutAttributes", "GetAttributes", "DeleteAttributes",
		"BatchPutAttributes", "BatchDeleteAttributes", "Select",
	}

	assert.Len(t, s.handlers, len(actions))
	for _, a := range actions {
		assert.Contains(t, s.handlers, a)
	}

	// o mapa é o mesmo entre requisições
	before := reflect.ValueOf(s.handlers).Pointer()
	call(t, s, "ListDomains", nil)
	call(t, s, "ListDomains", nil)
	assert.Equal(t, before, reflect.ValueOf(s.handlers).Pointer())
}

func TestDispatch_Errors(t *testing.T) {
	s := seeded()

	t.Run("missing action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		s.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "MissingAction", errorCode(t, rr))
	})

	t.Run("invalid action", func(t *testing.T) {
		rr := call(t, s, "Scan", nil)
		assert.Equal(t, "InvalidAction", errorCode(t, rr))
	})

	t.Run("missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?Action=ListDomains", nil)
		rr := httptest.NewRecorder()
		s.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/other", nil)
		rr := httptest.NewRecorder()
		s.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("no such domain", func(t *testing.T) {
		rr := call(t, s, "DomainMetadata", map[string]string{"DomainName": "nope"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "NoSuchDomain", errorCode(t, rr))
	})

	t.Run("invalid domain name", func(t *testing.T) {
		rr := call(t, s, "CreateDomain", map[string]string{"DomainName": "a$"})
		assert.Equal(t, "InvalidParameterValue", errorCode(t, rr))
	})

	t.Run("error body carries box usage and request id", func(t *testing.T) {
		rr := call(t, s, "DomainMetadata", map[string]string{"DomainName": "nope"})
		body := rr.Body.String()
		assert.Contains(t, body, "<BoxUsage>0.0000219907</BoxUsage>")
		assert.Contains(t, body, "<RequestID>")
	})
}

func TestDomainMetadata(t *testing.T) {
	s := seeded()
	rr := call(t, s, "DomainMetadata", map[string]string{"DomainName": "users"})
	require.Equal(t, http.StatusOK, rr.Code)

	var doc struct {
		Result domainMetadataResult `xml:"DomainMetadataResult"`
	}
	require.NoError(t, xml.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, 1, doc.Result.ItemCount)
	assert.Equal(t, 2, doc.Result.ItemNamesSizeBytes)
	assert.Equal(t, 2, doc.Result.AttributeNameCount)
	assert.Equal(t, 6, doc.Result.AttributeNamesSizeBytes)
	assert.Equal(t, 3, doc.Result.AttributeValueCount)
	assert.Equal(t, 3, doc.Result.AttributeValuesSizeBytes)
	assert.Equal(t, int64(1317975502), doc.Result.Timestamp)
}

func TestExpectedChecks(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		status int
		code   string
	}{
		{
			name:   "value mismatch",
			params: map[string]string{"Expected.1.Name": "a1", "Expected.1.Value": "6"},
			status: http.StatusConflict,
			code:   "ConditionalCheckFailed",
		},
		{
			name:   "attribute missing",
			params: map[string]string{"Expected.1.Name": "zz", "Expected.1.Value": "1"},
			status: http.StatusNotFound,
			code:   "AttributeDoesNotExist",
		},
		{
			name:   "exists true without value",
			params: map[string]string{"Expected.1.Name": "a1", "Expected.1.Exists": "true"},
			status: http.StatusBadRequest,
			code:   "IncompleteExpectedValues",
		},
		{
			name:   "exists false but present",
			params: map[string]string{"Expected.1.Name": "a1", "Expected.1.Exists": "false"},
			status: http.StatusConflict,
			code:   "ConditionalCheckFailed",
		},
		{
			name:   "multi valued",
			params: map[string]string{"Expected.1.Name": "tags", "Expected.1.Value": "x"},
			status: http.StatusConflict,
			code:   "MultiValuedAttribute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded()
			params := map[string]string{
				"DomainName":        "users",
				"ItemName":          "u1",
				"Attribute.1.Name":  "a1",
				"Attribute.1.Value": "8",
			}
			for k, v := range tt.params {
				params[k] = v
			}
			rr := call(t, s, "PutAttributes", params)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
			// item intacto
			assert.Equal(t, []string{"7"}, s.Snapshot("users")["u1"]["a1"])
		})
	}

	t.Run("message matches service wording", func(t *testing.T) {
		rr := call(t, seeded(), "DeleteAttributes", map[string]string{
			"DomainName": "users", "ItemName": "u1",
			"Expected.1.Name": "a1", "Expected.1.Value": "6",
		})
		assert.Contains(t, rr.Body.String(), "Conditional check failed. Attribute (a1) value is (7) but was expected (6)")
	})
}

func TestBatchLimits(t *testing.T) {
	s := seeded()
	params := map[string]string{"DomainName": "users"}
	for i := 1; i <= 26; i++ {
		params[fmt.Sprintf("Item.%d.ItemName", i)] = fmt.Sprintf("item%d", i)
		params[fmt.Sprintf("Item.%d.Attribute.1.Name", i)] = "a"
		params[fmt.Sprintf("Item.%d.Attribute.1.Value", i)] = "1"
	}
	rr := call(t, s, "BatchPutAttributes", params)
	assert.Equal(t, "NumberSubmittedItemsExceeded", errorCode(t, rr))
	assert.Len(t, s.Snapshot("users"), 1)

	dup := map[string]string{
		"DomainName":               "users",
		"Item.1.ItemName":          "x",
		"Item.1.Attribute.1.Name":  "a",
		"Item.1.Attribute.1.Value": "1",
		"Item.2.ItemName":          "x",
		"Item.2.Attribute.1.Name":  "a",
		"Item.2.Attribute.1.Value": "2",
	}
	rr = call(t, s, "BatchPutAttributes", dup)
	assert.Equal(t, "DuplicateItemName", errorCode(t, rr))
}

func TestSelect_Paging(t *testing.T) {
	seed := Seed{"big": {}}
	for i := 0; i < 7; i++ {
		seed["big"][fmt.Sprintf("item%02d", i)] = map[string][]string{"n": {fmt.Sprint(i)}}
	}
	s := New(Options{PageSize: 3, Seed: seed})

	var names []string
	token := ""
	pages := 0
	for {
		params := map[string]string{"SelectExpression": "select itemName() from big"}
		if token != "" {
			params["NextToken"] = token
		}
		rr := call(t, s, "Select", params)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var doc struct {
			Result selectResult `xml:"SelectResult"`
		}
		require.NoError(t, xml.Unmarshal(rr.Body.Bytes(), &doc))
		for _, it := range doc.Result.Items {
			names = append(names, it.Name)
			assert.Empty(t, it.Attributes)
		}
		pages++
		token = doc.Result.NextToken
		if token == "" {
			break
		}
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"item00", "item01", "item02", "item03", "item04", "item05", "item06"}, names)

	t.Run("token from another query", func(t *testing.T) {
		rr := call(t, s, "Select", map[string]string{
			"SelectExpression": "select * from big",
			"NextToken":        encodeToken(3, "select itemName() from big"),
		})
		assert.Equal(t, "InvalidNextToken", errorCode(t, rr))
	})

	t.Run("invalid expression", func(t *testing.T) {
		rr := call(t, s, "Select", map[string]string{"SelectExpression": "select from"})
		assert.Equal(t, "InvalidQueryExpression", errorCode(t, rr))
	})
}

func TestPaginate(t *testing.T) {
	names := []string{"a", "b", "c"}
	page, next := paginate(names, 0, 2)
	assert.Equal(t, []string{"a", "b"}, page)
	assert.Equal(t, 2, next)

	page, next = paginate(names, 2, 2)
	assert.Equal(t, []string{"c"}, page)
	assert.Zero(t, next)

	page, next = paginate(names, 0, 3)
	assert.Len(t, page, 3)
	assert.Zero(t, next)

	page, _ = paginate(names, 5, 2)
	assert.Empty(t, page)
}

func TestStore(t *testing.T) {
	d := newDomain(time.Now())
	d.put("i", []attrWrite{{Name: "a", Value: "1"}, {Name: "a", Value: "1"}, {Name: "a", Value: "2"}})
	assert.Equal(t, []string{"1", "2"}, d.items["i"]["a"])

	d.put("i", []attrWrite{{Name: "a", Value: "3", Replace: true}, {Name: "a", Value: "4", Replace: true}})
	assert.Equal(t, []string{"3", "4"}, d.items["i"]["a"])

	d.del("i", []attrDelete{{Name: "a", Value: "3", HasValue: true}})
	assert.Equal(t, []string{"4"}, d.items["i"]["a"])

	d.del("i", []attrDelete{{Name: "a"}})
	assert.NotContains(t, d.items, "i")
}
