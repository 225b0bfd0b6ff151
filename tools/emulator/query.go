package emulator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Limites do Select do serviço real.
const (
	defaultSelectLimit = 100
	maxSelectLimit     = 2500
)

var errInvalidQuery = errors.New("invalid query expression")

// query é uma expressão select já interpretada.
type query struct {
	output  string   // "*", "itemName()", "count(*)" ou "attrs"
	attrs   []string // quando output == "attrs"
	domain  string
	conds   []condition
	limit   int
	ordered string // atributo do order by, vazio para itemName()
	desc    bool
}

// condition compara itemName() (attr vazio) ou um atributo.
type condition struct {
	attr   string
	op     string
	values []string
}

var selectExpr = regexp.MustCompile(`(?is)^\s*select\s+(.+?)\s+from\s+` +
	"(`[^`]+`|[A-Za-z0-9_.\\-]+)" +
	`(?:\s+where\s+(.+?))?` +
	`(?:\s+order\s+by\s+(\S+)(?:\s+(asc|desc))?)?` +
	`(?:\s+limit\s+(\d+))?\s*$`)

func parseQuery(expr string) (*query, error) {
	m := selectExpr.FindStringSubmatch(expr)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", errInvalidQuery, expr)
	}

	q := &query{domain: unquoteIdent(m[2]), limit: defaultSelectLimit}

	output := strings.TrimSpace(m[1])
	switch strings.ToLower(output) {
	case "*":
		q.output = "*"
	case "itemname()":
		q.output = "itemName()"
	case "count(*)":
		q.output = "count(*)"
	default:
		q.output = "attrs"
		for _, a := range strings.Split(output, ",") {
			q.attrs = append(q.attrs, unquoteIdent(strings.TrimSpace(a)))
		}
	}

	if m[3] != "" {
		conds, err := parseWhere(m[3])
		if err != nil {
			return nil, err
		}
		q.conds = conds
	}

	if m[4] != "" {
		if !strings.EqualFold(m[4], "itemName()") {
			q.ordered = unquoteIdent(m[4])
		}
		q.desc = strings.EqualFold(m[5], "desc")
	}

	if m[6] != "" {
		n, err := strconv.Atoi(m[6])
		if err != nil || n < 1 || n > maxSelectLimit {
			return nil, fmt.Errorf("%w: limit must be between 1 and %d", errInvalidQuery, maxSelectLimit)
		}
		q.limit = n
	}
	return q, nil
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	}
	return s
}

// splitAnd divide a cláusula where em " and " fora de aspas.
func splitAnd(where string) []string {
	var (
		parts []string
		quote byte
		start int
	)
	lower := strings.ToLower(where)
	for i := 0; i < len(where); i++ {
		c := where[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case strings.HasPrefix(lower[i:], " and "):
			parts = append(parts, where[start:i])
			start = i + len(" and ")
			i += len(" and ") - 1
		}
	}
	return append(parts, where[start:])
}

var condExpr = regexp.MustCompile(`(?is)^\s*(itemName\(\)|` + "`[^`]+`" + `|[A-Za-z0-9_.\-]+)\s*` +
	`(=|!=|<=|>=|<|>|\s+like\s+|\s+not\s+like\s+|\s+in\s*|\s+is\s+null|\s+is\s+not\s+null)\s*(.*?)\s*$`)

func parseWhere(where string) ([]condition, error) {
	var out []condition
	for _, part := range splitAnd(where) {
		m := condExpr.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", errInvalidQuery, strings.TrimSpace(part))
		}

		c := condition{op: strings.ToLower(strings.Join(strings.Fields(m[2]), " "))}
		if !strings.EqualFold(m[1], "itemName()") {
			c.attr = unquoteIdent(m[1])
		}

		var err error
		switch c.op {
		case "is null", "is not null":
			if m[3] != "" {
				return nil, fmt.Errorf("%w: %s", errInvalidQuery, strings.TrimSpace(part))
			}
		case "in":
			c.values, err = parseList(m[3])
		default:
			var v string
			v, err = parseLiteral(m[3])
			c.values = []string{v}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// parseLiteral aceita 'x' ou "x", com a aspa duplicada como escape.
func parseLiteral(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') || s[len(s)-1] != s[0] {
		return "", fmt.Errorf("%w: expected quoted value, got %q", errInvalidQuery, s)
	}
	q := string(s[0])
	return strings.ReplaceAll(s[1:len(s)-1], q+q, q), nil
}

func parseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("%w: expected (...) after in", errInvalidQuery)
	}
	var (
		out   []string
		quote byte
		start = 1
	)
	body := s[:len(s)-1]
	for i := 1; i <= len(body); i++ {
		if i == len(body) || (quote == 0 && body[i] == ',') {
			v, err := parseLiteral(body[start:i])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			start = i + 1
			continue
		}
		switch c := body[i]; {
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		}
	}
	return out, nil
}

// match avalia todas as condições (and) contra um item.
func (q *query) match(name string, it item) bool {
	for _, c := range q.conds {
		if !c.match(name, it) {
			return false
		}
	}
	return true
}

func (c condition) match(name string, it item) bool {
	var candidates []string
	if c.attr == "" {
		candidates = []string{name}
	} else {
		candidates = it[c.attr]
	}

	switch c.op {
	case "is null":
		return len(candidates) == 0
	case "is not null":
		return len(candidates) > 0
	}

	for _, v := range candidates {
		if c.compare(v) {
			return true
		}
	}
	return false
}

func (c condition) compare(v string) bool {
	switch c.op {
	case "=":
		return v == c.values[0]
	case "!=":
		return v != c.values[0]
	case "<":
		return v < c.values[0]
	case "<=":
		return v <= c.values[0]
	case ">":
		return v > c.values[0]
	case ">=":
		return v >= c.values[0]
	case "like":
		return like(v, c.values[0])
	case "not like":
		return !like(v, c.values[0])
	case "in":
		for _, want := range c.values {
			if v == want {
				return true
			}
		}
	}
	return false
}

// like suporta '%' no início e/ou no fim do padrão.
func like(v, pattern string) bool {
	prefix := strings.HasPrefix(pattern, "%")
	suffix := strings.HasSuffix(pattern, "%") && len(pattern) > 1
	core := strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")
	switch {
	case prefix && suffix:
		return strings.Contains(v, core)
	case prefix:
		return strings.HasSuffix(v, core)
	case suffix:
		return strings.HasPrefix(v, core)
	default:
		return v == pattern
	}
}
