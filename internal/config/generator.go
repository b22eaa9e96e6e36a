package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Generator generates Lua configuration code from a Config.
type Generator struct {
	indent string // Indentation string (default: two spaces)
	now    func() time.Time
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
		now:    time.Now,
	}
}

// Generate generates Lua code from a Config. Empty fields are left out so
// the defaults apply, except GameDir, which falls back to the platform's
// default Steam location. The result parses back to an equal Config when
// evaluated with a platform table.
func (g *Generator) Generate(cfg *Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer

	buf.WriteString("-- oridll configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().Format(time.RFC3339))
	buf.WriteString("\n")
	buf.WriteString("-- The read-only 'platform' table describes this machine; see 'oridll --help'.\n\n")

	buf.WriteString(luaGlobalOridll)
	buf.WriteString(" = {\n")

	if cfg.GameDir == "" {
		g.writeRaw(&buf, luaFieldGameDir, "platform.default_game_dir")
	} else {
		g.writeString(&buf, luaFieldGameDir, cfg.GameDir)
	}
	g.writeString(&buf, luaFieldData, cfg.DataFolder)
	g.writeString(&buf, luaFieldAssembly, cfg.Assembly)
	g.writeString(&buf, luaFieldGameExe, cfg.GameExe)
	if cfg.ScanWorkers != 0 {
		g.writeRaw(&buf, luaFieldWorkers, fmt.Sprintf("%d", cfg.ScanWorkers))
	}
	g.writeString(&buf, luaFieldKeyring, cfg.Keyring)

	buf.WriteString("}\n")

	return buf.String(), nil
}

func (g *Generator) writeString(buf *bytes.Buffer, field, value string) {
	if value == "" {
		return
	}
	g.writeRaw(buf, field, g.quoteLuaString(value))
}

func (g *Generator) writeRaw(buf *bytes.Buffer, field, expr string) {
	buf.WriteString(g.indent)
	buf.WriteString(field)
	buf.WriteString(" = ")
	buf.WriteString(expr)
	buf.WriteString(",\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
