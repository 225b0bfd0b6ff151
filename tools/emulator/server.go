package emulator

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	maxBatchItems     = 25
	maxListDomains    = 100
	defaultPageSize   = maxSelectLimit
	countItemName     = "Domain"
	countAttrName     = "Count"
	actionParam       = "Action"
	accessKeyParam    = "AWSAccessKeyId"
	domainParam       = "DomainName"
	itemNameParam     = "ItemName"
	selectExprParam   = "SelectExpression"
	nextTokenParam    = "NextToken"
	maxDomainsParam   = "MaxNumberOfDomains"
	domainNamePattern = `^[a-zA-Z0-9_.\-]{3,255}$`
)

var validDomain = regexp.MustCompile(domainNamePattern)

// Options configura o Server.
type Options struct {
	// PageSize limita os itens por página do Select, além do limit da
	// expressão. Padrão: 2500.
	PageSize int
	Logger   *zerolog.Logger
	Now      func() time.Time
	Seed     Seed
}

// Server é um SimpleDB em memória. É seguro para uso concorrente.
type Server struct {
	mu       sync.RWMutex
	domains  map[string]*domain
	requests int

	pageSize int
	now      func() time.Time
	log      zerolog.Logger
	router   *mux.Router
	handlers map[string]handlerFunc
}

// New cria o servidor, já com os domínios de opts.Seed.
func New(opts Options) *Server {
	s := &Server{
		domains:  make(map[string]*domain),
		pageSize: opts.PageSize,
		now:      opts.Now,
		log:      zerolog.Nop(),
	}
	if s.pageSize <= 0 || s.pageSize > maxSelectLimit {
		s.pageSize = defaultPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "emulator").Logger()
	}

	for name, items := range opts.Seed {
		d := newDomain(s.now())
		for itemName, attrs := range items {
			var writes []attrWrite
			for attr, values := range attrs {
				for _, v := range values {
					writes = append(writes, attrWrite{Name: attr, Value: v})
				}
			}
			d.put(itemName, writes)
		}
		s.domains[name] = d
	}

	s.handlers = map[string]handlerFunc{
		"CreateDomain":          s.createDomain,
		"DeleteDomain":          s.deleteDomain,
		"ListDomains":           s.listDomains,
		"DomainMetadata":        s.domainMetadata,
		"PutAttributes":         s.putAttributes,
		"GetAttributes":         s.getAttributes,
		"DeleteAttributes":      s.deleteAttributes,
		"BatchPutAttributes":    s.batchPutAttributes,
		"BatchDeleteAttributes": s.batchDeleteAttributes,
		"Select":                s.selectItems,
	}

	s.router = mux.NewRouter()
	s.router.HandleFunc("/", s.dispatch).Methods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.log, uuid.NewString(), newAPIError(http.StatusNotFound, "InvalidURI", "The requested URI does not exist"))
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests informa quantas chamadas chegaram ao dispatcher.
func (s *Server) Requests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests
}

// Snapshot devolve uma cópia do conteúdo de um domínio; nil se o domínio
// não existe.
func (s *Server) Snapshot(domainName string) map[string]map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domainName]
	if !ok {
		return nil
	}
	out := make(map[string]map[string][]string, len(d.items))
	for name, it := range d.items {
		attrs := make(map[string][]string, len(it))
		for k, v := range it {
			attrs[k] = append([]string(nil), v...)
		}
		out[name] = attrs
	}
	return out
}

type handlerFunc func(form url.Values) (interface{}, *apiError)

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()

	s.mu.Lock()
	s.requests++
	s.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		writeError(w, s.log, requestID, newAPIError(http.StatusBadRequest, "InvalidParameterValue", "%s", err.Error()))
		return
	}
	action := r.Form.Get(actionParam)

	var (
		result interface{}
		apiErr *apiError
	)
	switch h, ok := s.handlers[action]; {
	case action == "":
		apiErr = newAPIError(http.StatusBadRequest, "MissingAction", "No action was supplied with this request")
	case !ok:
		apiErr = newAPIError(http.StatusBadRequest, "InvalidAction", "The action %s is not valid for this web service", action)
	case r.Form.Get(accessKeyParam) == "":
		apiErr = newAPIError(http.StatusForbidden, "AuthMissingFailure", "AWS was not able to authenticate the request: access credentials are missing")
	default:
		result, apiErr = h(r.Form)
	}

	evt := s.log.Debug()
	if apiErr != nil {
		evt = evt.Str("code", apiErr.Code)
		writeError(w, s.log, requestID, apiErr)
	} else {
		writeResult(w, s.log, action, requestID, result)
	}
	evt.Str("request_id", requestID).
		Str("action", action).
		Str("domain", r.Form.Get(domainParam)).
		Dur("elapsed", time.Since(start)).
		Msg("emulator request")
}

// requireDomain valida o nome e, com mustExist, a existência do domínio.
// Deve ser chamado com s.mu travado.
func (s *Server) requireDomain(form url.Values, mustExist bool) (string, *domain, *apiError) {
	name := form.Get(domainParam)
	if name == "" {
		return "", nil, newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter DomainName")
	}
	if !validDomain.MatchString(name) {
		return "", nil, newAPIError(http.StatusBadRequest, "InvalidParameterValue", "Value (%s) for parameter DomainName is invalid", name)
	}
	d, ok := s.domains[name]
	if mustExist && !ok {
		return "", nil, newAPIError(http.StatusBadRequest, "NoSuchDomain", "The specified domain does not exist.")
	}
	return name, d, nil
}

func requireItemName(form url.Values) (string, *apiError) {
	name := form.Get(itemNameParam)
	if name == "" {
		return "", newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter ItemName")
	}
	return name, nil
}

func (s *Server) createDomain(form url.Values) (interface{}, *apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, d, err := s.requireDomain(form, false)
	if err != nil {
		return nil, err
	}
	if d == nil {
		s.domains[name] = newDomain(s.now())
	}
	return nil, nil
}

func (s *Server) deleteDomain(form url.Values) (interface{}, *apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, _, err := s.requireDomain(form, false)
	if err != nil {
		return nil, err
	}
	delete(s.domains, name)
	return nil, nil
}

func (s *Server) listDomains(form url.Values) (interface{}, *apiError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := maxListDomains
	if raw := form.Get(maxDomainsParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListDomains {
			return nil, newAPIError(http.StatusBadRequest, "InvalidParameterValue", "Value (%s) for parameter MaxNumberOfDomains is invalid. MaxNumberOfDomains must be between 1 and 100.", raw)
		}
		limit = n
	}

	names := make([]string, 0, len(s.domains))
	for name := range s.domains {
		names = append(names, name)
	}
	sort.Strings(names)

	offset, apiErr := decodeToken(form.Get(nextTokenParam), "ListDomains")
	if apiErr != nil {
		return nil, apiErr
	}
	page, next := paginate(names, offset, limit)

	res := &listDomainsResult{DomainNames: page}
	if next > 0 {
		res.NextToken = encodeToken(next, "ListDomains")
	}
	return res, nil
}

func (s *Server) domainMetadata(form url.Values) (interface{}, *apiError) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, d, err := s.requireDomain(form, true)
	if err != nil {
		return nil, err
	}
	m := d.metadata()
	return &domainMetadataResult{
		ItemCount:                m.ItemCount,
		ItemNamesSizeBytes:       m.ItemNamesSizeBytes,
		AttributeNameCount:       m.AttributeNameCount,
		AttributeNamesSizeBytes:  m.AttributeNamesSizeBytes,
		AttributeValueCount:      m.AttributeValueCount,
		AttributeValuesSizeBytes: m.AttributeValuesSizeBytes,
		Timestamp:                s.now().Unix(),
	}, nil
}

func (s *Server) putAttributes(form url.Values) (interface{}, *apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d, err := s.requireDomain(form, true)
	if err != nil {
		return nil, err
	}
	name, err := requireItemName(form)
	if err != nil {
		return nil, err
	}
	writes := parseWrites(form)
	if len(writes) == 0 {
		return nil, newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter Attribute.Name")
	}
	if err := validateWrites(writes); err != nil {
		return nil, err
	}
	if err := checkExpected(parseExpected(form), d.items[name]); err != nil {
		return nil, err
	}
	d.put(name, writes)
	return nil, nil
}

func (s *Server) getAttributes(form url.Values) (interface{}, *apiError) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, d, err := s.requireDomain(form, true)
	if err != nil {
		return nil, err
	}
	name, err := requireItemName(form)
	if err != nil {
		return nil, err
	}

	res := &getAttributesResult{}
	it, ok := d.items[name]
	if !ok {
		return res, nil
	}
	res.Attributes = xmlAttributes(it, attributeNames(form))
	return res, nil
}

func (s *Server) deleteAttributes(form url.Values) (interface{}, *apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d, err := s.requireDomain(form, true)
	if err != nil {
		return nil, err
	}
	name, err := requireItemName(form)
	if err != nil {
		return nil, err
	}
	if err := checkExpected(parseExpected(form), d.items[name]); err != nil {
		return nil, err
	}
	d.del(name, parseDeletes(form))
	return nil, nil
}

func (s *Server) batchItems(form url.Values) ([]batchItem, *apiError) {
	items := parseBatch(form)
	if len(items) == 0 {
		return nil, newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter Item.1.ItemName")
	}
	if len(items) > maxBatchItems {
		return nil, newAPIError(http.StatusConflict, "NumberSubmittedItemsExceeded", "Too many items in a single call. Up to %d items per call allowed.", maxBatchItems)
	}
	seen := map[string]bool{}
	for _, it := range items {
		if it.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter ItemName")
		}
		if seen[it.Name] {
			return nil, newAPIError(http.StatusBadRequest, "DuplicateItemName", "Item %s was specified more than once", it.Name)
		}
		seen[it.Name] = true
	}
	return items, nil
}

func (s *Server) batchPutAttributes(form url.Values) (interface{}, *apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d, err := s.requireDomain(form, true)
	if err != nil {
		return nil, err
	}
	items, err := s.batchItems(form)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if len(it.Writes) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "MissingParameter", "Item %s has no attributes", it.Name)
		}
		if err := validateWrites(it.Writes); err != nil {
			return nil, err
		}
	}
	// o lote é atômico: só grava depois de validar todos os itens
	for _, it := range items {
		d.put(it.Name, it.Writes)
	}
	return nil, nil
}

func (s *Server) batchDeleteAttributes(form url.Values) (interface{}, *apiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d, err := s.requireDomain(form, true)
	if err != nil {
		return nil, err
	}
	items, err := s.batchItems(form)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		d.del(it.Name, it.Deletes)
	}
	return nil, nil
}

func (s *Server) selectItems(form url.Values) (interface{}, *apiError) {
	expr := form.Get(selectExprParam)
	if expr == "" {
		return nil, newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter SelectExpression")
	}
	q, perr := parseQuery(expr)
	if perr != nil {
		return nil, newAPIError(http.StatusBadRequest, "InvalidQueryExpression", "The specified query expression syntax is not valid.")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[q.domain]
	if !ok {
		return nil, newAPIError(http.StatusBadRequest, "NoSuchDomain", "The specified domain does not exist.")
	}

	var matches []string
	for _, name := range d.sortedNames() {
		if q.match(name, d.items[name]) {
			matches = append(matches, name)
		}
	}

	if q.output == "count(*)" {
		return &selectResult{Items: []xmlItem{{
			Name:       countItemName,
			Attributes: []xmlAttribute{{Name: countAttrName, Value: strconv.Itoa(len(matches))}},
		}}}, nil
	}

	if q.ordered != "" || q.desc {
		sortMatches(matches, d, q.ordered, q.desc)
	}

	offset, apiErr := decodeToken(form.Get(nextTokenParam), expr)
	if apiErr != nil {
		return nil, apiErr
	}
	size := q.limit
	if size > s.pageSize {
		size = s.pageSize
	}
	page, next := paginate(matches, offset, size)

	res := &selectResult{Items: make([]xmlItem, 0, len(page))}
	for _, name := range page {
		out := xmlItem{Name: name}
		switch q.output {
		case "*":
			out.Attributes = xmlAttributes(d.items[name], nil)
		case "attrs":
			out.Attributes = xmlAttributes(d.items[name], q.attrs)
		}
		res.Items = append(res.Items, out)
	}
	if next > 0 {
		res.NextToken = encodeToken(next, expr)
	}
	return res, nil
}

func sortMatches(names []string, d *domain, attr string, desc bool) {
	key := func(name string) (string, bool) {
		if attr == "" {
			return name, true
		}
		vs := d.items[name][attr]
		if len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, okA := key(names[i])
		b, okB := key(names[j])
		if okA != okB {
			return okA // sem o atributo vai para o fim
		}
		if desc {
			return a > b
		}
		return a < b
	})
}

// xmlAttributes lista os atributos em ordem de nome; only filtra os nomes.
func xmlAttributes(it item, only []string) []xmlAttribute {
	var out []xmlAttribute
	names := it.names()
	if len(only) > 0 {
		names = only
	}
	for _, name := range names {
		for _, v := range it[name] {
			out = append(out, xmlAttribute{Name: name, Value: v})
		}
	}
	return out
}

func validateWrites(writes []attrWrite) *apiError {
	for _, w := range writes {
		if w.Name == "" {
			return newAPIError(http.StatusBadRequest, "InvalidParameterValue", "Value () for parameter Name is invalid. The empty string is an illegal attribute name")
		}
	}
	return nil
}

// checkExpected avalia as condições Expected.N contra o estado atual do
// item (nil quando o item não existe).
func checkExpected(expected []expectation, it item) *apiError {
	for _, e := range expected {
		if e.Name == "" {
			return newAPIError(http.StatusBadRequest, "MissingParameter", "The request must contain the parameter Expected.Name")
		}

		if e.HasExists && !e.Exists {
			if e.HasValue {
				return newAPIError(http.StatusBadRequest, "IncompleteExpectedValues", "If Expected.Exists = False, then Expected.Value must not be specified")
			}
			if len(it[e.Name]) > 0 {
				return newAPIError(http.StatusConflict, "ConditionalCheckFailed", "Conditional check failed. Attribute (%s) value exists", e.Name)
			}
			continue
		}

		if !e.HasValue {
			return newAPIError(http.StatusBadRequest, "IncompleteExpectedValues", "If Expected.Exists = True or unspecified, then Expected.Value has to be specified")
		}
		values := it[e.Name]
		switch {
		case len(values) == 0:
			return newAPIError(http.StatusNotFound, "AttributeDoesNotExist", "Attribute (%s) does not exist", e.Name)
		case len(values) > 1:
			return newAPIError(http.StatusConflict, "MultiValuedAttribute", "Attribute (%s) is multi-valued. Conditional check can only be performed on a single-valued attribute", e.Name)
		case values[0] != e.Value:
			return newAPIError(http.StatusConflict, "ConditionalCheckFailed", "Conditional check failed. Attribute (%s) value is (%s) but was expected (%s)", e.Name, values[0], e.Value)
		}
	}
	return nil
}

// pageToken é o conteúdo do NextToken: a posição e a consulta que o gerou.
type pageToken struct {
	Offset int    `json:"o"`
	Scope  string `json:"s"`
}

func encodeToken(offset int, scope string) string {
	raw, _ := json.Marshal(pageToken{Offset: offset, Scope: scope})
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeToken(token, scope string) (int, *apiError) {
	if token == "" {
		return 0, nil
	}
	invalid := newAPIError(http.StatusBadRequest, "InvalidNextToken", "The specified next token is not valid.")
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, invalid
	}
	var t pageToken
	if err := json.Unmarshal(raw, &t); err != nil || t.Scope != scope || t.Offset < 0 {
		return 0, invalid
	}
	return t.Offset, nil
}

// paginate devolve a página e o offset da próxima; 0 quando acabou.
func paginate(names []string, offset, size int) ([]string, int) {
	if offset >= len(names) {
		return []string{}, 0
	}
	end := offset + size
	if end >= len(names) {
		return names[offset:], 0
	}
	return names[offset:end], end
}

