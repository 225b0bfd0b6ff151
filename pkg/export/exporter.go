package export

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/metrics"
	"github.com/raywall/fast-sdb-toolkit/pkg/rules"
	"github.com/raywall/fast-sdb-toolkit/sdb"
	"github.com/rs/zerolog"
)

// Source é o lado SimpleDB do export; *sdb.Client satisfaz a interface.
type Source interface {
	SelectPages(ctx context.Context, expr string, fn func(*sdb.SelectPage) bool, opts ...sdb.SelectOption) error
}

// Stats resume uma execução.
type Stats struct {
	Pages    int
	Read     int
	Filtered int
	Written  int
	BoxUsage float64
}

// Exporter liga um Select a um Sink.
type Exporter struct {
	source    Source
	sink      Sink
	rules     *rules.RuleManager
	processor *metrics.Processor
	cfg       config.ExportConf
	log       zerolog.Logger
	now       func() time.Time
}

// NewExporter compila o filtro e as transformações antes de qualquer
// chamada, para que expressões inválidas falhem cedo.
func NewExporter(source Source, sink Sink, cfg config.ExportConf, processor *metrics.Processor, rm *rules.RuleManager, log zerolog.Logger) (*Exporter, error) {
	if rm == nil {
		var err error
		if rm, err = rules.NewRuleManager(); err != nil {
			return nil, err
		}
	}
	if cfg.Filter != "" {
		if err := rm.Compile(cfg.Filter); err != nil {
			return nil, fmt.Errorf("export: filtro inválido: %w", err)
		}
	}
	for _, t := range cfg.Transformations {
		for _, expr := range []string{t.Condition, t.Value, t.ElseValue} {
			if expr == "" {
				continue
			}
			if err := rm.Compile(expr); err != nil {
				return nil, fmt.Errorf("export: transformação %s inválida: %w", t.Name, err)
			}
		}
	}

	return &Exporter{
		source:    source,
		sink:      sink,
		rules:     rm,
		processor: processor,
		cfg:       cfg,
		log:       log.With().Str("component", "export").Str("sink", cfg.Sink).Logger(),
		now:       time.Now,
	}, nil
}

var fromClause = regexp.MustCompile("(?i)\\bfrom\\s+`?([a-zA-Z0-9_.\\-]+)`?")

// domainOf extrai o domínio do "from" da expressão.
func domainOf(expr string) string {
	if m := fromClause.FindStringSubmatch(expr); m != nil {
		return m[1]
	}
	return ""
}

// Run executa o Select, página a página, e entrega cada página ao sink. O
// sink é fechado ao final, mesmo em caso de erro.
func (e *Exporter) Run(ctx context.Context, expr string, opts ...sdb.SelectOption) (stats Stats, err error) {
	defer func() {
		if cerr := e.sink.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	domain := domainOf(expr)
	var pageErr error

	err = e.source.SelectPages(ctx, expr, func(page *sdb.SelectPage) bool {
		stats.Pages++
		stats.BoxUsage += page.BoxUsage
		stats.Read += len(page.Items)

		records, perr := e.prepare(domain, page.Items)
		if perr != nil {
			pageErr = perr
			return false
		}
		stats.Filtered += len(page.Items) - len(records)
		if len(records) == 0 {
			return true
		}

		if perr := e.sink.Write(ctx, records); perr != nil {
			pageErr = perr
			return false
		}
		stats.Written += len(records)
		e.log.Debug().
			Int("page", stats.Pages).
			Int("written", len(records)).
			Msg("página exportada")
		return true
	}, opts...)
	if err == nil {
		err = pageErr
	}

	evt := e.log.Info()
	if err != nil {
		evt = e.log.Error().Err(err)
	}
	evt.Str("domain", domain).
		Int("pages", stats.Pages).
		Int("read", stats.Read).
		Int("filtered", stats.Filtered).
		Int("written", stats.Written).
		Float64("box_usage", stats.BoxUsage).
		Msg("export finalizado")
	return stats, err
}

func (e *Exporter) prepare(domain string, items []sdb.Item) ([]Record, error) {
	records := make([]Record, 0, len(items))
	now := e.now().UTC()

	for _, item := range items {
		attrs := item.Attributes.Map()

		ok, err := e.rules.EvaluateBool(e.cfg.Filter, rules.ItemVars(item.Name, attrs))
		if err != nil {
			return nil, fmt.Errorf("export: filtro no item %s: %w", item.Name, err)
		}
		if !ok {
			continue
		}

		if len(e.cfg.Transformations) > 0 {
			if attrs, err = e.rules.ApplyTransformations(e.cfg.Transformations, item.Name, attrs); err != nil {
				return nil, fmt.Errorf("export: item %s: %w", item.Name, err)
			}
		}

		if e.processor != nil && len(e.cfg.Metrics) > 0 {
			if err := e.processor.ProcessRules(e.cfg.Metrics, rules.ItemVars(item.Name, attrs)); err != nil {
				// métrica não interrompe o export
				e.log.Warn().Err(err).Str("item", item.Name).Msg("falha ao registrar métrica")
			}
		}

		records = append(records, Record{
			Domain:     domain,
			Name:       item.Name,
			Attributes: attrs,
			ExportedAt: now,
		})
	}
	return records, nil
}
