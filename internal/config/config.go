package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"provenance_toolbox/internal/extract"
	"provenance_toolbox/internal/parser"
)

const (
	DBPathKey          = "db.path"
	LogLevelKey        = "log.level"
	ScanMaxFileSizeKey = "scan.max_file_size"
	ScanWorkersKey     = "scan.workers"
	RegistryURLKey     = "registry.url"
	SigIssuersKey      = "signatures.issuers"
	SigToolsKey        = "signatures.tools"
	SigActionsKey      = "signatures.actions"
	SigSourceTypesKey  = "signatures.source_types"
)

// LoadConfig reads the yaml config at path on top of built-in defaults.
// Path may be empty to run on defaults alone.
func LoadConfig(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		DBPathKey:          "verdicts.sqlite",
		LogLevelKey:        "info",
		ScanMaxFileSizeKey: int64(parser.DefaultMaxFileSize),
		ScanWorkersKey:     0, // 0 means NumCPU
	}

	k.Load(confmap.Provider(defaults, "."), nil)

	if path == "" {
		return k, nil
	}
	err := k.Load(file.Provider(path), yaml.Parser())
	return k, err
}

// SignatureTable merges configured extra markers into the built-in set.
// The result is loaded once at startup and treated as immutable.
func SignatureTable(k *koanf.Koanf) extract.SignatureTable {
	return extract.DefaultTable().Merge(
		k.Strings(SigIssuersKey),
		k.Strings(SigToolsKey),
		k.Strings(SigActionsKey),
		k.Strings(SigSourceTypesKey),
	)
}
