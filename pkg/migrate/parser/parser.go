// Package parser turns raw legacy ITSM export buffers into ParsedRecords.
// One parser exists per supported source system, all behind the same contract;
// a registry keyed by source system selects the implementation. New source
// systems are added by implementing the Parser interface and registering it.
package parser

import (
	"bytes"
	"fmt"
	"sync"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// Container formats a parser can detect or be forced into.
const (
	FormatJSON      = "json"
	FormatXML       = "xml"
	FormatDelimited = "delimited"
)

// Options tunes a single parse call.
type Options struct {
	// Format forces the container interpretation when auto-detection is
	// ambiguous (e.g. a file that parses as more than one format).
	Format string
	// Delimiter overrides delimiter sniffing for delimited files.
	Delimiter rune
}

// Parser is the contract every source-system variant implements.
// Parsers are stateless, pure transformers and may be invoked concurrently
// for independent jobs.
type Parser interface {
	// Parse extracts all records from the raw export buffer. A structurally
	// invalid container (unparsable JSON/XML) returns an error that aborts the
	// whole call; partial failures below the container level are reported via
	// SkippedRows and Errors on the result, never as an error.
	Parse(data []byte, entityType model.EntityType, opts *Options) (*model.ParseResult, error)

	// Validate performs a cheap structural check (well-formed container, at
	// least one record) without full field extraction. It never returns an
	// error; structural problems are reported on the result.
	Validate(data []byte) *model.FileValidation
}

// DetectFormat inspects the leading bytes of a buffer for a structural marker
// (array/object opening, XML declaration or root tag) before falling back to
// treating the content as delimited text. An explicit Options.Format always
// overrides detection.
func DetectFormat(data []byte) string {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), " \t\r\n")
	if len(trimmed) == 0 {
		return FormatDelimited
	}
	switch trimmed[0] {
	case '[', '{':
		return FormatJSON
	case '<':
		return FormatXML
	default:
		return FormatDelimited
	}
}

// resolveFormat applies the Options.Format override over detection.
func resolveFormat(data []byte, opts *Options) string {
	if opts != nil && opts.Format != "" {
		return opts.Format
	}
	return DetectFormat(data)
}

// Registry selects the Parser implementation for a source system.
type Registry struct {
	mu      sync.RWMutex
	parsers map[model.SourceSystem]Parser
}

// NewRegistry creates a Registry pre-populated with the built-in parsers for
// all supported source systems.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[model.SourceSystem]Parser)}
	r.Register(model.SourceServiceNow, NewServiceNowParser())
	r.Register(model.SourceBMCRemedy, NewRemedyParser())
	r.Register(model.SourceJira, NewJiraParser())
	r.Register(model.SourceGenericCSV, NewCSVParser())
	return r
}

// Register registers a Parser for the given source system, replacing any
// previous registration.
func (r *Registry) Register(sourceSystem model.SourceSystem, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.parsers[sourceSystem]; exists {
		logger.Warnf("Parser for source system '%s' already registered. Overwriting.", sourceSystem)
	}
	r.parsers[sourceSystem] = p
}

// ForSourceSystem retrieves the Parser registered for the source system.
func (r *Registry) ForSourceSystem(sourceSystem model.SourceSystem) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[sourceSystem]
	if !ok {
		return nil, fmt.Errorf("no parser registered for source system: %s", sourceSystem)
	}
	return p, nil
}

// stringValue renders a raw record value as a string for identifier and
// metadata extraction. Maps and slices render empty.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; render integers without a fraction.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// firstString returns the first non-empty string value among the given keys.
func firstString(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k]; ok {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	return ""
}
