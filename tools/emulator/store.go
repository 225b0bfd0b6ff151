package emulator

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// item guarda os valores de cada atributo sem repetição, na ordem em que
// foram gravados.
type item map[string][]string

func (it item) has(name, value string) bool {
	for _, v := range it[name] {
		if v == value {
			return true
		}
	}
	return false
}

func (it item) add(name, value string) {
	if !it.has(name, value) {
		it[name] = append(it[name], value)
	}
}

func (it item) remove(name, value string) {
	values := it[name]
	for i, v := range values {
		if v == value {
			values = append(values[:i:i], values[i+1:]...)
			break
		}
	}
	if len(values) == 0 {
		delete(it, name)
		return
	}
	it[name] = values
}

func (it item) names() []string {
	out := make([]string, 0, len(it))
	for name := range it {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type domain struct {
	items   map[string]item
	created time.Time
}

func newDomain(now time.Time) *domain {
	return &domain{items: make(map[string]item), created: now}
}

// sortedNames devolve os nomes dos itens em ordem lexicográfica.
func (d *domain) sortedNames() []string {
	out := make([]string, 0, len(d.items))
	for name := range d.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// attrWrite é um Attribute.N.* já decodificado.
type attrWrite struct {
	Name    string
	Value   string
	Replace bool
}

// put aplica as escritas: nomes com Replace perdem os valores antigos uma
// única vez, antes de receber os novos.
func (d *domain) put(name string, writes []attrWrite) {
	it, ok := d.items[name]
	if !ok {
		it = make(item)
		d.items[name] = it
	}
	cleared := map[string]bool{}
	for _, w := range writes {
		if w.Replace && !cleared[w.Name] {
			delete(it, w.Name)
			cleared[w.Name] = true
		}
		it.add(w.Name, w.Value)
	}
}

// attrDelete é um Attribute.N.* de remoção; HasValue falso remove todos os
// valores do nome.
type attrDelete struct {
	Name     string
	Value    string
	HasValue bool
}

// del remove atributos; sem atributos remove o item inteiro. Itens que
// ficam sem atributos deixam de existir.
func (d *domain) del(name string, deletes []attrDelete) {
	it, ok := d.items[name]
	if !ok {
		return
	}
	if len(deletes) == 0 {
		delete(d.items, name)
		return
	}
	for _, rm := range deletes {
		if rm.HasValue {
			it.remove(rm.Name, rm.Value)
		} else {
			delete(it, rm.Name)
		}
	}
	if len(it) == 0 {
		delete(d.items, name)
	}
}

// metadata calcula as contagens do DomainMetadata.
type metadata struct {
	ItemCount                int
	ItemNamesSizeBytes       int
	AttributeNameCount       int
	AttributeNamesSizeBytes  int
	AttributeValueCount      int
	AttributeValuesSizeBytes int
}

func (d *domain) metadata() metadata {
	var m metadata
	names := map[string]struct{}{}
	for itemName, it := range d.items {
		m.ItemCount++
		m.ItemNamesSizeBytes += len(itemName)
		for attr, values := range it {
			names[attr] = struct{}{}
			m.AttributeValueCount += len(values)
			for _, v := range values {
				m.AttributeValuesSizeBytes += len(v)
			}
		}
	}
	for attr := range names {
		m.AttributeNameCount++
		m.AttributeNamesSizeBytes += len(attr)
	}
	return m
}

// Seed é o formato do arquivo de carga inicial: domínio -> item -> atributo
// -> valores.
type Seed map[string]map[string]map[string][]string

// LoadSeedFile lê um Seed em JSON.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("emulator: erro ao ler arquivo: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("emulator: erro ao parsear json: %w", err)
	}
	return seed, nil
}
