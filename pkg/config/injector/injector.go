// Package injector expande referências ${env.X}, ${ssm./caminho} e
// ${secret.id} nos campos string de uma configuração já carregada.
package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./sdb/dsn}, ${secret.export-redis}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Lookup resolve valores remotos; *credentials.Resolver satisfaz a interface.
type Lookup interface {
	Parameter(ctx context.Context, region, name string) (string, error)
	SecretString(ctx context.Context, region, id string) (string, error)
}

type Injector struct {
	lookup Lookup
	region string
}

// New cria o injector. lookup pode ser nil quando só ${env.*} é usado.
func New(lookup Lookup, region string) *Injector {
	return &Injector{lookup: lookup, region: region}
}

// Inject percorre structs, ponteiros, slices e mapas de string alterando
// os valores no lugar.
func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("injector: target deve ser um ponteiro não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		out, err := i.interpolate(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(out)

	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			if err := i.injectRecursive(ctx, v.Field(k)); err != nil {
				return err
			}
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}

	case reflect.Map:
		if !v.IsNil() && v.Type().Key().Kind() == reflect.String {
			return i.injectMap(ctx, v)
		}
	}
	return nil
}

// injectMap só altera valores string; elementos de mapa não são
// endereçáveis, por isso a troca é feita via SetMapIndex.
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := map[string]string{}
	for iter.Next() {
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() || elem.Kind() != reflect.String {
			continue
		}
		out, err := i.interpolate(ctx, elem.String())
		if err != nil {
			return err
		}
		updates[iter.Key().String()] = out
	}

	for k, val := range updates {
		nv := reflect.ValueOf(val)
		if v.Type().Elem().Kind() != reflect.Interface {
			nv = nv.Convert(v.Type().Elem())
		}
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), nv)
	}
	return nil
}

func (i *Injector) interpolate(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		m := pattern.FindStringSubmatch(match)
		val, ferr := i.fetch(ctx, m[1], m[2])
		if ferr != nil {
			err = ferr
			return match
		}
		return val
	})
	return result, err
}

func (i *Injector) fetch(ctx context.Context, source, key string) (string, error) {
	switch source {
	case "env":
		// variável ausente vira string vazia
		return os.Getenv(key), nil
	case "ssm":
		if i.lookup == nil {
			return "", fmt.Errorf("injector: ${ssm.%s} sem cliente configurado", key)
		}
		return i.lookup.Parameter(ctx, i.region, key)
	default:
		if i.lookup == nil {
			return "", fmt.Errorf("injector: ${secret.%s} sem cliente configurado", key)
		}
		return i.lookup.SecretString(ctx, i.region, key)
	}
}
