package parse

import (
	"fmt"

	"github.com/ppiankov/worldview/internal/extract"
	"github.com/ppiankov/worldview/internal/model"
)

// Options control parsing
type Options struct {
	Names  NamePolicy
	Claims extract.Options
}

// DefaultOptions returns the options implied by model.DefaultConfig
func DefaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig())
}

// OptionsFromConfig derives parse options from tool configuration
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		Names: NamePolicyFromConfig(cfg.Names),
		Claims: extract.Options{
			AnnotateBriefForms:   cfg.Validation.AnnotateBriefForms,
			WarnConflictingTrend: cfg.Validation.WarnConflictingTrend,
		},
	}
}

// Fingerprint identifies the options in cache keys. Two option sets with
// the same fingerprint produce identical parse results.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("names=%s;brief=%t;trend=%t",
		o.Names, o.Claims.AnnotateBriefForms, o.Claims.WarnConflictingTrend)
}
