package sdb

import (
	"regexp"
	"time"
)

const (
	// DefaultHost é o endpoint público do SimpleDB (us-east-1).
	DefaultHost = "sdb.amazonaws.com"
	// DefaultVersion é a versão da API usada quando Config.Version está vazio.
	DefaultVersion = "2009-04-15"
	// MaxBatchItems é o limite de itens aceito pelo serviço em uma chamada batch.
	MaxBatchItems = 25
	// MaxSelectPage é o maior número de itens que o serviço devolve por página.
	MaxSelectPage = 2500
)

var domainNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,255}$`)

// ValidDomainName informa se o nome respeita as regras do SimpleDB
// (3 a 255 caracteres entre a-z, A-Z, 0-9, '_', '-' e '.').
func ValidDomainName(name string) bool {
	return domainNamePattern.MatchString(name)
}

// WriteMode define como um valor escrito convive com os valores já gravados.
type WriteMode int

const (
	// Append adiciona o valor aos existentes (padrão do serviço).
	Append WriteMode = iota
	// Replace substitui todos os valores do atributo.
	Replace
)

func (m WriteMode) String() string {
	if m == Replace {
		return "replace"
	}
	return "append"
}

// Attribute é um par nome/valor retornado pelo serviço.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attributes é um multimapa ordenado: o mesmo nome pode aparecer várias vezes.
type Attributes []Attribute

// Get retorna todos os valores de um nome, na ordem recebida.
func (a Attributes) Get(name string) []string {
	var out []string
	for _, attr := range a {
		if attr.Name == name {
			out = append(out, attr.Value)
		}
	}
	return out
}

// First retorna o primeiro valor de um nome ou "" quando ausente.
func (a Attributes) First(name string) string {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value
		}
	}
	return ""
}

// Names retorna os nomes distintos na ordem da primeira ocorrência.
func (a Attributes) Names() []string {
	seen := make(map[string]struct{}, len(a))
	names := make([]string, 0, len(a))
	for _, attr := range a {
		if _, ok := seen[attr.Name]; ok {
			continue
		}
		seen[attr.Name] = struct{}{}
		names = append(names, attr.Name)
	}
	return names
}

// Map agrupa os valores por nome.
func (a Attributes) Map() map[string][]string {
	out := make(map[string][]string, len(a))
	for _, attr := range a {
		out[attr.Name] = append(out[attr.Name], attr.Value)
	}
	return out
}

// Collapse devolve string para nomes com um único valor e []string para
// nomes repetidos.
func (a Attributes) Collapse() map[string]any {
	out := make(map[string]any, len(a))
	for name, values := range a.Map() {
		if len(values) == 1 {
			out[name] = values[0]
			continue
		}
		out[name] = values
	}
	return out
}

// Item é um item retornado pelo Select.
type Item struct {
	Name       string     `json:"name"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// AttributeWrite descreve a escrita de um ou mais valores sob o mesmo nome.
type AttributeWrite struct {
	Name   string
	Values []string
	Mode   WriteMode
}

// Put cria uma escrita em modo Append.
func Put(name string, values ...string) AttributeWrite {
	return AttributeWrite{Name: name, Values: values, Mode: Append}
}

// PutReplace cria uma escrita em modo Replace.
func PutReplace(name string, values ...string) AttributeWrite {
	return AttributeWrite{Name: name, Values: values, Mode: Replace}
}

// AttributeDelete remove valores específicos de um atributo ou, sem Values,
// o atributo inteiro.
type AttributeDelete struct {
	Name   string
	Values []string
}

// Remove cria um AttributeDelete.
func Remove(name string, values ...string) AttributeDelete {
	return AttributeDelete{Name: name, Values: values}
}

// Expected é uma condição avaliada pelo serviço antes de uma escrita.
// Com Exists nil o serviço compara Value; com Exists false o atributo
// não pode existir.
type Expected struct {
	Name   string
	Value  string
	Exists *bool
}

// ExpectValue exige que o atributo tenha exatamente o valor informado.
func ExpectValue(name, value string) Expected {
	return Expected{Name: name, Value: value}
}

// ExpectExists exige que o atributo exista com o valor informado. O serviço
// rejeita Exists=true sem valor com IncompleteExpectedValues.
func ExpectExists(name, value string) Expected {
	exists := true
	return Expected{Name: name, Value: value, Exists: &exists}
}

// ExpectMissing exige que o atributo não exista.
func ExpectMissing(name string) Expected {
	exists := false
	return Expected{Name: name, Exists: &exists}
}

// PutItem é um item de BatchPutAttributes.
type PutItem struct {
	Name       string
	Attributes []AttributeWrite
}

// DeleteItem é um item de BatchDeleteAttributes. Sem Attributes o item
// inteiro é removido.
type DeleteItem struct {
	Name       string
	Attributes []AttributeDelete
}

// DomainMetadata contém as estatísticas retornadas por DomainMetadata.
type DomainMetadata struct {
	ItemCount                int64     `json:"itemCount"`
	ItemNamesSizeBytes       int64     `json:"itemNamesSizeBytes"`
	AttributeNameCount       int64     `json:"attributeNameCount"`
	AttributeNamesSizeBytes  int64     `json:"attributeNamesSizeBytes"`
	AttributeValueCount      int64     `json:"attributeValueCount"`
	AttributeValuesSizeBytes int64     `json:"attributeValuesSizeBytes"`
	Timestamp                time.Time `json:"timestamp"`
}

// ResponseMetadata acompanha toda resposta de sucesso.
type ResponseMetadata struct {
	RequestID string
	BoxUsage  float64
}

// SelectPage é uma única página de Select.
type SelectPage struct {
	Items     []Item
	NextToken string
	BoxUsage  float64
}

// SelectResult agrega uma ou mais páginas.
type SelectResult struct {
	Items     []Item
	NextToken string
	BoxUsage  float64
	Pages     int
}

// ItemNames retorna apenas os nomes dos itens, na ordem recebida.
func (r *SelectResult) ItemNames() []string {
	names := make([]string, len(r.Items))
	for i, item := range r.Items {
		names[i] = item.Name
	}
	return names
}
