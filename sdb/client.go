package sdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-sdb-toolkit/pkg/metrics"
	"github.com/rs/zerolog"
)

const userAgent = "fast-sdb-toolkit/sdb"

// HTTPClient abstrai o transporte; *http.Client satisfaz a interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrorMode define o que o cliente faz quando uma operação falha. Em todos
// os modos os registros ficam disponíveis em LastErrors.
type ErrorMode int

const (
	// ErrorModeRaise retorna o *Error para o chamador.
	ErrorModeRaise ErrorMode = iota
	// ErrorModeReport emite um warning por registro e retorna ErrFailed.
	ErrorModeReport
	// ErrorModeIgnore apenas retorna ErrFailed.
	ErrorModeIgnore
)

// ParseErrorMode converte "raise", "report" ou "ignore".
func ParseErrorMode(s string) (ErrorMode, error) {
	switch s {
	case "", "raise":
		return ErrorModeRaise, nil
	case "report":
		return ErrorModeReport, nil
	case "ignore":
		return ErrorModeIgnore, nil
	}
	return ErrorModeRaise, fmt.Errorf("sdb: unknown error mode %q", s)
}

func (m ErrorMode) String() string {
	switch m {
	case ErrorModeReport:
		return "report"
	case ErrorModeIgnore:
		return "ignore"
	default:
		return "raise"
	}
}

// UnmarshalText permite carregar o modo a partir de YAML ou variáveis de ambiente.
func (m *ErrorMode) UnmarshalText(text []byte) error {
	mode, err := ParseErrorMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Config reúne tudo que o cliente precisa. Apenas AccessKey e SecretKey são
// obrigatórios.
type Config struct {
	AccessKey string
	SecretKey string
	// SessionToken só é usado com credenciais temporárias.
	SessionToken string
	// Host padrão: DefaultHost.
	Host string
	// DisableSSL troca https por http.
	DisableSSL bool
	// SkipVerifyPeer desliga a validação da cadeia do certificado.
	SkipVerifyPeer bool
	// SkipVerifyHost desliga a conferência do hostname do certificado.
	SkipVerifyHost bool
	ErrorMode      ErrorMode
	// Version padrão: DefaultVersion.
	Version string
	// Timeout do *http.Client criado quando HTTPClient é nil.
	Timeout    time.Duration
	RetryDelay RetryDelayFunc
	Logger     *zerolog.Logger
	Metrics    metrics.Provider
	HTTPClient HTTPClient
	Decoder    Decoder
}

// Client é um cliente SimpleDB. Cada instância tem suas próprias filas,
// contadores e erros; as filas não são seguras para uso concorrente.
type Client struct {
	cfg      Config
	signer   *signer
	scheme   string
	http     HTTPClient
	decoder  Decoder
	log      zerolog.Logger
	recorder *metrics.Recorder

	mu         sync.Mutex
	boxUsage   float64
	lastErrors Errors
	nextToken  string
	lastFlush  []ChunkResult

	puts    *queue[PutItem]
	deletes *queue[DeleteItem]
}

// New valida a configuração e cria um Client.
func New(cfg Config) (*Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("sdb: access key and secret key are required")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	c := &Client{
		cfg: cfg,
		signer: &signer{
			accessKey: cfg.AccessKey,
			secretKey: cfg.SecretKey,
			token:     cfg.SessionToken,
			host:      cfg.Host,
			version:   cfg.Version,
			now:       time.Now,
		},
		scheme:   "https",
		http:     cfg.HTTPClient,
		decoder:  cfg.Decoder,
		log:      zerolog.Nop(),
		recorder: metrics.NewRecorder(cfg.Metrics),
		puts:     newQueue[PutItem](),
		deletes:  newQueue[DeleteItem](),
	}
	if cfg.DisableSSL {
		c.scheme = "http"
	}
	if c.http == nil {
		c.http = newHTTPClient(cfg)
	}
	if c.decoder == nil {
		c.decoder = XMLDecoder{}
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "sdb").Str("host", cfg.Host).Logger()
	}
	return c, nil
}

// TotalBoxUsage retorna a soma do BoxUsage de todas as respostas recebidas.
func (c *Client) TotalBoxUsage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boxUsage
}

// LastErrors retorna os registros da última operação que falhou. A lista
// é limpa no início de cada operação.
func (c *Client) LastErrors() Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(Errors, len(c.lastErrors))
	copy(out, c.lastErrors)
	return out
}

// Failed informa se a última operação falhou.
func (c *Client) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lastErrors) > 0
}

// NextToken retorna o último NextToken recebido de Select ou ListDomains.
func (c *Client) NextToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextToken
}

// LastFlush retorna o resultado por lote dos flushes da última operação.
func (c *Client) LastFlush() []ChunkResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChunkResult, len(c.lastFlush))
	copy(out, c.lastFlush)
	return out
}

func (c *Client) begin() {
	c.mu.Lock()
	c.lastErrors = nil
	c.lastFlush = nil
	c.mu.Unlock()
}

func (c *Client) setNextToken(token string) {
	c.mu.Lock()
	c.nextToken = token
	c.mu.Unlock()
}

// fail registra o erro e aplica o ErrorMode configurado.
func (c *Client) fail(err *Error) error {
	c.mu.Lock()
	c.lastErrors = append(c.lastErrors, err.Records...)
	c.mu.Unlock()

	switch c.cfg.ErrorMode {
	case ErrorModeRaise:
		return err
	case ErrorModeReport:
		for _, rec := range err.Records {
			c.log.Warn().
				Str("method", rec.Method).
				Str("code", rec.Code).
				Str("kind", err.Kind.String()).
				Msg(rec.String())
		}
	}
	return ErrFailed
}

// failFlush aplica o ErrorMode a um ou mais flushes parciais.
func (c *Client) failFlush(failed ...*FlushError) error {
	c.mu.Lock()
	for _, ferr := range failed {
		for _, chunk := range ferr.Chunks {
			var sdbErr *Error
			if errors.As(chunk.Err, &sdbErr) {
				c.lastErrors = append(c.lastErrors, sdbErr.Records...)
			}
		}
	}
	c.mu.Unlock()

	switch c.cfg.ErrorMode {
	case ErrorModeRaise:
		return joinFlushErrors(failed)
	case ErrorModeReport:
		for _, ferr := range failed {
			c.log.Warn().
				Str("method", ferr.Method).
				Str("domain", ferr.Domain).
				Int("pending", ferr.Pending).
				Msg(ferr.Error())
		}
	}
	return ErrFailed
}

// do assina, envia e decodifica uma chamada. out pode ser nil quando só o
// ResponseMetadata interessa.
func (c *Client) do(ctx context.Context, r *request, out metadataCarrier) (ResponseMetadata, *Error) {
	if out == nil {
		out = &envelope{}
	}
	callID := uuid.NewString()
	start := time.Now()
	call := metrics.Call{Action: r.action}
	defer func() {
		call.Duration = time.Since(start)
		c.recorder.Record(call)
	}()

	url := c.scheme + "://" + c.signer.host + "/?" + c.signer.query(r)
	req, err := http.NewRequestWithContext(ctx, r.verb, url, nil)
	if err != nil {
		call.ErrorCode = "Transport"
		return ResponseMetadata{}, transportError(r.action, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		call.ErrorCode = "Transport"
		c.log.Debug().Str("call_id", callID).Str("action", r.action).Err(err).Msg("sdb request failed")
		return ResponseMetadata{}, transportError(r.action, err)
	}
	defer resp.Body.Close()
	call.Status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		call.ErrorCode = "Transport"
		return ResponseMetadata{}, transportError(r.action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		sdbErr := c.statusError(r.action, resp.StatusCode, body)
		call.ErrorCode = sdbErr.Records[0].Code
		c.log.Debug().
			Str("call_id", callID).
			Str("action", r.action).
			Str("domain", r.domain).
			Int("status", resp.StatusCode).
			Strs("codes", sdbErr.Records.Codes()).
			Msg("sdb request rejected")
		return ResponseMetadata{}, sdbErr
	}

	if len(body) > 0 {
		if err := c.decoder.Decode(body, out); err != nil {
			call.ErrorCode = "InvalidResponse"
			return ResponseMetadata{}, &Error{
				Kind:       KindTransport,
				Method:     r.action,
				StatusCode: resp.StatusCode,
				Records:    Errors{{Method: r.action, Code: "InvalidResponse", Message: err.Error()}},
				Err:        err,
			}
		}
	}

	meta := out.metadata()
	call.BoxUsage = meta.BoxUsage
	c.addBoxUsage(meta.BoxUsage)
	c.log.Debug().
		Str("call_id", callID).
		Str("action", r.action).
		Str("domain", r.domain).
		Int("status", resp.StatusCode).
		Str("request_id", meta.RequestID).
		Float64("box_usage", meta.BoxUsage).
		Dur("elapsed", time.Since(start)).
		Msg("sdb request done")
	return meta, nil
}

// statusError monta um ServiceError quando o corpo traz <Errors> e um
// UnexpectedStatusError caso contrário.
func (c *Client) statusError(method string, status int, body []byte) *Error {
	var doc errorResponse
	if len(body) > 0 && c.decoder.Decode(body, &doc) == nil && len(doc.Errors) > 0 {
		records, box := doc.records(method)
		c.addBoxUsage(box)
		return &Error{Kind: KindService, Method: method, StatusCode: status, Records: records}
	}
	return &Error{
		Kind:       KindUnexpectedStatus,
		Method:     method,
		StatusCode: status,
		Records: Errors{{
			Method:  method,
			Code:    fmt.Sprintf("%d", status),
			Message: "Unexpected HTTP status",
		}},
	}
}

func (c *Client) addBoxUsage(v float64) {
	if v == 0 {
		return
	}
	c.mu.Lock()
	c.boxUsage += v
	c.mu.Unlock()
}
