package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// AddFlags registers the named configuration flags on fs. Flag defaults only
// document the built-in values; Load applies a flag only when it was set.
func AddFlags(fs *pflag.FlagSet, names ...string) {
	d := Default()
	for _, name := range names {
		switch name {
		case "provider":
			fs.String(name, d.Provider, "model provider (ollama or openai)")
		case "ollama":
			fs.String(name, d.Ollama.Host, "Ollama host (default $OLLAMA_HOST, then http://127.0.0.1:11434)")
		case "embedding-model":
			fs.String(name, d.Models.Embedding, "embedding model; must match the one the index was built with")
		case "model":
			fs.String(name, d.Models.LLM, "language model for advice")
		case "docs":
			fs.String(name, d.Documents.Dir, "setup guide directory (.txt and .pdf)")
		case "chunk-size":
			fs.Int(name, d.Documents.ChunkSize, "character size for document chunks (0 keeps whole files)")
		case "chunk-overlap":
			fs.Int(name, d.Documents.ChunkOverlap, "character overlap between chunks")
		case "max-concurrent":
			fs.Int(name, d.Documents.MaxConcurrent, "maximum concurrent embedding requests")
		case "backend":
			fs.String(name, d.Index.Backend, "index backend (sqlite or postgres)")
		case "index-dir":
			fs.String(name, d.Index.Dir, "index directory for the sqlite backend")
		case "postgres-url":
			fs.String(name, "", "PostgreSQL connection string for the postgres backend")
		case "k":
			fs.Int(name, d.Retrieval.K, "number of setup documents placed in the prompt")
		case "validate-retries":
			fs.Int(name, d.Generation.ValidateRetries, "re-prompt up to N times when advice breaks the output rules (0 disables)")
		case "addr":
			fs.String(name, d.Server.Addr, "listen address for the web form")
		case "log-level":
			fs.String(name, d.Logging.Level, "log level (debug, info, warn, error)")
		case "log-format":
			fs.String(name, d.Logging.Format, "log format (console or json)")
		case "log-file":
			fs.String(name, "", "also write JSON logs to this rotating file")
		default:
			panic(fmt.Sprintf("config: unknown flag %q", name))
		}
	}
}

// QueryFlags are the flags every query command accepts
var QueryFlags = []string{
	"provider", "ollama", "embedding-model", "model",
	"backend", "index-dir", "postgres-url", "k", "validate-retries",
	"log-level", "log-format", "log-file",
}

// IndexFlags are the flags the index builder accepts
var IndexFlags = []string{
	"provider", "ollama", "embedding-model",
	"docs", "chunk-size", "chunk-overlap", "max-concurrent",
	"backend", "index-dir", "postgres-url",
	"log-level", "log-format", "log-file",
}
