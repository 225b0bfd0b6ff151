package emulator

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// group é um bloco Prefix.N.* da query; rest guarda as chaves sem o
// prefixo e o índice.
type group struct {
	index int
	rest  url.Values
}

func (g group) get(key string) (string, bool) {
	vs, ok := g.rest[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// groups agrupa as chaves "prefix.N.resto" por N, em ordem numérica.
// Chaves com índice inválido são ignoradas.
func groups(form url.Values, prefix string) []group {
	byIndex := map[int]url.Values{}
	for key, values := range form {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		idx, rest, ok := strings.Cut(key[len(prefix):], ".")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(idx)
		if err != nil {
			continue
		}
		if byIndex[n] == nil {
			byIndex[n] = url.Values{}
		}
		byIndex[n][rest] = values
	}

	out := make([]group, 0, len(byIndex))
	for n, rest := range byIndex {
		out = append(out, group{index: n, rest: rest})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func parseWrites(form url.Values) []attrWrite {
	var out []attrWrite
	for _, g := range groups(form, "Attribute.") {
		name, _ := g.get("Name")
		value, _ := g.get("Value")
		replace, _ := g.get("Replace")
		out = append(out, attrWrite{Name: name, Value: value, Replace: strings.EqualFold(replace, "true")})
	}
	return out
}

func parseDeletes(form url.Values) []attrDelete {
	var out []attrDelete
	for _, g := range groups(form, "Attribute.") {
		name, _ := g.get("Name")
		value, hasValue := g.get("Value")
		out = append(out, attrDelete{Name: name, Value: value, HasValue: hasValue})
	}
	return out
}

// expectation é um Expected.N.* decodificado.
type expectation struct {
	Name      string
	Value     string
	HasValue  bool
	Exists    bool
	HasExists bool
}

func parseExpected(form url.Values) []expectation {
	var out []expectation
	for _, g := range groups(form, "Expected.") {
		e := expectation{}
		e.Name, _ = g.get("Name")
		e.Value, e.HasValue = g.get("Value")
		if exists, ok := g.get("Exists"); ok {
			e.HasExists = true
			e.Exists = strings.EqualFold(exists, "true")
		}
		out = append(out, e)
	}
	return out
}

// batchItem é um Item.N.* de BatchPutAttributes/BatchDeleteAttributes.
type batchItem struct {
	Name    string
	Writes  []attrWrite
	Deletes []attrDelete
}

func parseBatch(form url.Values) []batchItem {
	var out []batchItem
	for _, g := range groups(form, "Item.") {
		name, _ := g.get("ItemName")
		out = append(out, batchItem{
			Name:    name,
			Writes:  parseWrites(g.rest),
			Deletes: parseDeletes(g.rest),
		})
	}
	return out
}

// attributeNames lê AttributeName ou AttributeName.N.
func attributeNames(form url.Values) []string {
	if v := form.Get("AttributeName"); v != "" {
		return []string{v}
	}
	type indexed struct {
		n    int
		name string
	}
	var list []indexed
	for key, values := range form {
		idx, ok := strings.CutPrefix(key, "AttributeName.")
		if !ok || len(values) == 0 {
			continue
		}
		if n, err := strconv.Atoi(idx); err == nil {
			list = append(list, indexed{n, values[0]})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].n < list[j].n })
	out := make([]string, len(list))
	for i, l := range list {
		out[i] = l.name
	}
	return out
}
