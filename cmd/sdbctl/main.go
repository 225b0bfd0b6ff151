package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raywall/fast-sdb-toolkit/pkg/bootstrap"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/config/injector"
	"github.com/raywall/fast-sdb-toolkit/pkg/credentials"
	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/raywall/fast-sdb-toolkit/pkg/rules"
	"github.com/raywall/fast-sdb-toolkit/sdb"
)

const usage = `Uso: sdbctl [-config arquivo.yaml] <comando> [flags]

Comandos:
  domains         lista os domínios
  create-domain   cria um domínio (-domain)
  delete-domain   remove um domínio (-domain)
  metadata        estatísticas do domínio (-domain)
  get             lê um item (-domain -item [-attrs a,b] [-consistent])
  put             grava atributos (-domain -item -attr nome=valor... [-replace])
  select          executa um select (-query [-all] [-max N] [-filter CEL])
  delete-where    remove itens por condição (-domain -where)
  export          copia o resultado de um select para o sink configurado (-query)
  validate        confere a configuração e as expressões CEL sem acessar o SimpleDB [-json]`

// Variáveis injetáveis para mocking
var (
	newToolkit = func(ctx context.Context, s *config.Settings) (*bootstrap.Toolkit, error) {
		return bootstrap.New(ctx, s, bootstrap.Options{})
	}
	newSink   = export.NewSink
	newLookup = func() injector.Lookup { return &credentials.Resolver{} }
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

type command func(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error

var commands = map[string]command{
	"domains":       runDomains,
	"create-domain": runCreateDomain,
	"delete-domain": runDeleteDomain,
	"metadata":      runMetadata,
	"get":           runGet,
	"put":           runPut,
	"select":        runSelect,
	"delete-where":  runDeleteWhere,
	"export":        runExport,
}

// run interpreta os argumentos, carrega a configuração e executa o comando.
func run(ctx context.Context, args []string, out io.Writer) error {
	root := flag.NewFlagSet("sdbctl", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	cfgPath := root.String("config", os.Getenv("SDB_CONFIG"), "Caminho do arquivo YAML de configuração")
	if err := root.Parse(args); err != nil {
		return err
	}

	if root.NArg() == 0 {
		return errors.New(usage)
	}
	name := root.Arg(0)
	cmd, ok := commands[name]
	if !ok && name != "validate" {
		return fmt.Errorf("comando desconhecido: %s\n\n%s", name, usage)
	}

	settings, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	// validate não resolve placeholders: nenhuma chamada ao SSM ou Secrets Manager
	if name == "validate" {
		return runValidate(settings, root.Args()[1:], out)
	}
	// ${ssm.*} e ${secret.*} usam a mesma região das credenciais
	if err := injector.New(newLookup(), settings.Credentials.Region).Inject(ctx, settings); err != nil {
		return err
	}

	tk, err := newToolkit(ctx, settings)
	if err != nil {
		return err
	}
	defer tk.Close()

	return cmd(ctx, tk, root.Args()[1:], out)
}

// runValidate roda depois do config.Load, então erros estruturais já
// interromperam a execução antes de chegar aqui.
func runValidate(settings *config.Settings, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	asJSON := fs.Bool("json", false, "Relatório em JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := rules.Analyze(settings.Export)
	if err != nil {
		return err
	}

	if *asJSON {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "⚠️  %s\n", w)
		}
		for _, e := range report.Errors {
			fmt.Fprintf(out, " - %s\n", e)
		}
		if report.Valid {
			fmt.Fprintln(out, "✅ configuração válida")
		}
	}

	if !report.Valid {
		return fmt.Errorf("configuração contém %d erro(s)", len(report.Errors))
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// domainFlags cria um FlagSet com -domain obrigatório.
func domainFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs, fs.String("domain", "", "Nome do domínio")
}

func parseDomain(name string, args []string) (string, error) {
	fs, domain := domainFlags(name)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *domain == "" {
		return "", errors.New("flag -domain é obrigatória")
	}
	return *domain, nil
}

func runDomains(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	var domains []string
	err := tk.Retry(ctx, func(ctx context.Context) error {
		var err error
		domains, err = tk.Client.ListDomains(ctx)
		return err
	})
	if err != nil {
		return err
	}
	for _, d := range domains {
		fmt.Fprintln(out, d)
	}
	return nil
}

func runCreateDomain(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	domain, err := parseDomain("create-domain", args)
	if err != nil {
		return err
	}
	if err := tk.Retry(ctx, func(ctx context.Context) error { return tk.Client.CreateDomain(ctx, domain) }); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Domínio %s criado\n", domain)
	return nil
}

func runDeleteDomain(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	domain, err := parseDomain("delete-domain", args)
	if err != nil {
		return err
	}
	if err := tk.Retry(ctx, func(ctx context.Context) error { return tk.Client.DeleteDomain(ctx, domain) }); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Domínio %s removido\n", domain)
	return nil
}

func runMetadata(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	domain, err := parseDomain("metadata", args)
	if err != nil {
		return err
	}
	var meta *sdb.DomainMetadata
	err = tk.Retry(ctx, func(ctx context.Context) error {
		var err error
		meta, err = tk.Client.DomainMetadata(ctx, domain)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(out, meta)
}

func runGet(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	fs, domain := domainFlags("get")
	item := fs.String("item", "", "Nome do item")
	names := fs.String("attrs", "", "Atributos separados por vírgula (vazio = todos)")
	consistent := fs.Bool("consistent", false, "Leitura consistente")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *domain == "" || *item == "" {
		return errors.New("flags -domain e -item são obrigatórias")
	}

	var only []string
	if *names != "" {
		only = strings.Split(*names, ",")
	}
	var attrs sdb.Attributes
	err := tk.Retry(ctx, func(ctx context.Context) error {
		var err error
		attrs, err = tk.Client.GetAttributes(ctx, *domain, *item, only, *consistent)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(out, attrs.Map())
}

// attrFlag acumula -attr nome=valor; o mesmo nome pode se repetir.
type attrFlag struct {
	order  []string
	values map[string][]string
}

func (a *attrFlag) String() string { return strings.Join(a.order, ",") }

func (a *attrFlag) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("atributo inválido %q, use nome=valor", v)
	}
	if a.values == nil {
		a.values = map[string][]string{}
	}
	if _, seen := a.values[name]; !seen {
		a.order = append(a.order, name)
	}
	a.values[name] = append(a.values[name], value)
	return nil
}

func runPut(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	fs, domain := domainFlags("put")
	item := fs.String("item", "", "Nome do item")
	replace := fs.Bool("replace", false, "Substitui os valores existentes")
	var attrs attrFlag
	fs.Var(&attrs, "attr", "Atributo nome=valor (repetível)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *domain == "" || *item == "" || len(attrs.order) == 0 {
		return errors.New("flags -domain, -item e -attr são obrigatórias")
	}

	writes := make([]sdb.AttributeWrite, 0, len(attrs.order))
	for _, name := range attrs.order {
		writes = append(writes, sdb.Put(name, attrs.values[name]...))
	}
	var opts []sdb.WriteOption
	if *replace {
		opts = append(opts, sdb.WithReplaceAll())
	}

	err := tk.Retry(ctx, func(ctx context.Context) error {
		return tk.Client.PutAttributes(ctx, *domain, *item, writes, opts...)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Item %s gravado em %s\n", *item, *domain)
	return nil
}

func runSelect(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	query := fs.String("query", "", "Expressão select")
	all := fs.Bool("all", false, "Busca todas as páginas")
	max := fs.Int("max", 0, "Para de paginar ao atingir N itens (com -all)")
	filter := fs.String("filter", "", "Expressão CEL aplicada a cada item")
	consistent := fs.Bool("consistent", false, "Leitura consistente")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *query == "" {
		return errors.New("flag -query é obrigatória")
	}

	var opts []sdb.SelectOption
	if *all {
		opts = append(opts, sdb.WithFetchAll())
	}
	if *max > 0 {
		opts = append(opts, sdb.WithMaxItems(*max))
	}
	if *consistent {
		opts = append(opts, sdb.WithConsistentRead())
	}

	var res *sdb.SelectResult
	err := tk.Retry(ctx, func(ctx context.Context) error {
		var err error
		res, err = tk.Client.Select(ctx, *query, opts...)
		return err
	})
	if err != nil {
		return err
	}

	items := res.Items
	if *filter != "" {
		rm, err := rules.NewRuleManager()
		if err != nil {
			return err
		}
		items = items[:0:0]
		for _, it := range res.Items {
			ok, err := rm.EvaluateBool(*filter, rules.ItemVars(it.Name, it.Attributes.Map()))
			if err != nil {
				return err
			}
			if ok {
				items = append(items, it)
			}
		}
	}

	tk.Logger.Info().
		Int("pages", res.Pages).
		Int("items", len(items)).
		Float64("box_usage", res.BoxUsage).
		Msg("select finalizado")

	return writeJSON(out, struct {
		Items     []sdb.Item `json:"items"`
		NextToken string     `json:"nextToken,omitempty"`
		BoxUsage  float64    `json:"boxUsage"`
	}{items, res.NextToken, res.BoxUsage})
}

func runDeleteWhere(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	fs, domain := domainFlags("delete-where")
	where := fs.String("where", "", "Condição do where (sem a palavra where)")
	consistent := fs.Bool("consistent", true, "Leitura consistente no select")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *domain == "" || *where == "" {
		return errors.New("flags -domain e -where são obrigatórias")
	}

	n, err := tk.Client.DeleteWhere(ctx, *domain, *where, *consistent)
	if err != nil {
		return fmt.Errorf("%d itens removidos antes da falha: %w", n, err)
	}
	fmt.Fprintf(out, "✅ %d itens removidos de %s\n", n, *domain)
	return nil
}

func runExport(ctx context.Context, tk *bootstrap.Toolkit, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	query := fs.String("query", "", "Expressão select de origem")
	consistent := fs.Bool("consistent", false, "Leitura consistente")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *query == "" {
		return errors.New("flag -query é obrigatória")
	}

	exporter, err := tk.Exporter(ctx, newSink)
	if err != nil {
		return err
	}

	var opts []sdb.SelectOption
	if *consistent {
		opts = append(opts, sdb.WithConsistentRead())
	}
	stats, err := exporter.Run(ctx, *query, opts...)
	if err != nil {
		return err
	}
	return writeJSON(out, stats)
}
