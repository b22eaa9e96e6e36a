package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/oridll/internal/platform"
)

// Parser evaluates config files. It is safe for concurrent use; every
// parse gets a fresh VM.
type Parser struct {
	detector platform.Detector
	logger   Logger
}

// NewParser creates a parser. A nil detector leaves the platform table
// out of the VM.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: noopLogger{}}
}

// WithLogger sets the logger and returns the parser.
func (p *Parser) WithLogger(logger Logger) *Parser {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
	return p
}

// ParseFile reads and parses the config at path. A missing file is
// returned as an error wrapping fs.ErrNotExist.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", info.Size(), MaxConfigSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	p.logger.Debug("parsing config", "path", path)
	return p.ParseString(ctx, string(data))
}

// ParseString parses config source held in memory.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if len(luaCode) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxConfigSize),
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate config: %w", ctxErr)
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	cfg, err := p.extractConfig(L)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "oridll" table.
func (p *Parser) extractConfig(L *lua.LState) (*Config, error) {
	global := L.GetGlobal(luaGlobalOridll)
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'oridll' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	cfg := &Config{}
	var firstErr error
	table.ForEach(func(key, value lua.LValue) {
		if firstErr != nil {
			return
		}
		name, ok := key.(lua.LString)
		if !ok {
			p.logger.Warn("ignoring non-string key in config", "key", key.String())
			return
		}
		firstErr = p.setField(cfg, string(name), value)
	})
	if firstErr != nil {
		return nil, firstErr
	}

	return cfg, nil
}

func (p *Parser) setField(cfg *Config, name string, value lua.LValue) error {
	switch name {
	case luaFieldGameDir:
		return assignString(&cfg.GameDir, name, value)
	case luaFieldData:
		return assignString(&cfg.DataFolder, name, value)
	case luaFieldAssembly:
		return assignString(&cfg.Assembly, name, value)
	case luaFieldGameExe:
		return assignString(&cfg.GameExe, name, value)
	case luaFieldKeyring:
		return assignString(&cfg.Keyring, name, value)
	case luaFieldWorkers:
		n, ok := value.(lua.LNumber)
		if !ok {
			return typeError(name, "number", value)
		}
		f := float64(n)
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return &ValidationError{Field: name, Message: fmt.Sprintf("must be a whole number (got %v)", value)}
		}
		cfg.ScanWorkers = int(f)
		return nil
	default:
		p.logger.Warn("ignoring unknown config field", "field", name)
		return nil
	}
}

func assignString(dst *string, name string, value lua.LValue) error {
	s, ok := value.(lua.LString)
	if !ok {
		return typeError(name, "string", value)
	}
	*dst = string(s)
	return nil
}

func typeError(name, want string, got lua.LValue) error {
	return &ValidationError{
		Field:   name,
		Message: fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}

// FormatError formats a config error for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}
