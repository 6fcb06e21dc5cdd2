package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/htmlinject/internal/errors"
	"github.com/conneroisu/htmlinject/internal/logging"
	"github.com/conneroisu/htmlinject/internal/tags"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
	code        string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var b strings.Builder

	for _, err := range vr.Errors {
		fmt.Fprintf(&b, "error: %s: %s\n", err.Field, err.Message)
		for _, s := range err.Suggestions {
			fmt.Fprintf(&b, "  hint: %s\n", s)
		}
	}
	for _, w := range vr.Warnings {
		fmt.Fprintf(&b, "warning: %s: %s\n", w.Field, w.Message)
		for _, s := range w.Suggestions {
			fmt.Fprintf(&b, "  hint: %s\n", s)
		}
	}

	return b.String()
}

func (vr *ValidationResult) fail(code, field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     msg,
		Suggestions: suggestions,
		code:        code,
	})
}

func (vr *ValidationResult) warn(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field:       field,
		Value:       value,
		Message:     msg,
		Suggestions: suggestions,
	})
}

// Validate checks the configuration and returns the first problem as a
// configuration error.
func (c *Config) Validate() error {
	result := c.ValidateWithDetails()
	if !result.HasErrors() {
		return nil
	}
	first := result.Errors[0]
	return errors.NewConfigError(first.code, first.Error()).
		WithContext("field", first.Field).
		WithContext("problems", len(result.Errors))
}

// ValidateWithDetails collects every problem with the configuration.
func (c *Config) ValidateWithDetails() *ValidationResult {
	result := &ValidationResult{}

	validateBuild(&c.Build, result)
	for i := range c.HTML {
		validateHTML(i, &c.HTML[i], result)
	}
	validateServe(&c.Serve, result)
	validateWatch(&c.Watch, result)
	validateLog(&c.Log, result)

	return result
}

func validateBuild(b *BuildConfig, result *ValidationResult) {
	if strings.TrimSpace(b.OutDir) == "" {
		result.fail(errors.CodeMissingOutDir, "build.outdir", b.OutDir,
			"output directory is required",
			"Set build.outdir in .htmlinject.yml",
			"Or pass --outdir / HTMLINJECT_BUILD_OUTDIR")
	}
	if len(b.EntryPoints) == 0 {
		result.fail(errors.CodeInvalidConfig, "build.entry_points", b.EntryPoints,
			"at least one entry point is required",
			"Example: entry_points: [src/main.ts]")
	}
	switch b.Format {
	case "esm", "iife", "cjs":
	default:
		result.fail(errors.CodeInvalidConfig, "build.format", b.Format,
			fmt.Sprintf("unknown format %q", b.Format),
			"Use one of esm, iife, cjs")
	}
	if strings.HasPrefix(b.PublicPath, "http://") {
		result.warn("build.public_path", b.PublicPath, "assets will be served over plain http")
	}
}

func validateHTML(i int, h *HTMLConfig, result *ValidationResult) {
	field := func(name string) string { return fmt.Sprintf("html[%d].%s", i, name) }

	if strings.TrimSpace(h.Template) == "" {
		result.fail(errors.CodeInvalidConfig, field("template"), h.Template,
			"template is required")
	}
	if strings.ContainsAny(h.Filename, `/\`) {
		result.fail(errors.CodeInvalidConfig, field("filename"), h.Filename,
			"filename must be a bare file name inside the output directory")
	}
	if _, err := tags.ParsePlacement(h.ScriptPlacement); err != nil {
		result.fail(errors.CodeInvalidPlacement, field("script_placement"), h.ScriptPlacement,
			fmt.Sprintf("unknown placement %q", h.ScriptPlacement),
			"Use one of head-above, head-below, body-above, body-below")
	}
	if _, err := tags.ParsePosition(h.LinkPlacement); err != nil {
		result.fail(errors.CodeInvalidPlacement, field("link_placement"), h.LinkPlacement,
			fmt.Sprintf("unknown placement %q", h.LinkPlacement),
			"Use above or below")
	}
	if _, err := tags.ParseAlgorithm(h.Integrity); err != nil {
		result.fail(errors.CodeInvalidIntegrity, field("integrity"), h.Integrity,
			fmt.Sprintf("unsupported algorithm %q", h.Integrity),
			"Use one of sha256, sha384, sha512")
	}
	if h.Integrity != "" && h.CrossOrigin == "" {
		result.warn(field("crossorigin"), h.CrossOrigin,
			"integrity checks on cross-origin assets need a crossorigin attribute")
	}
}

func validateServe(s *ServeConfig, result *ValidationResult) {
	if s.Port < 0 || s.Port > 65535 {
		result.fail(errors.CodeInvalidConfig, "serve.port", s.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", s.Port),
			"Common development ports: 3000, 8080, 8000",
			"Port 0 allows system to assign an available port")
	} else if s.Port > 0 && s.Port < 1024 {
		result.warn("serve.port", s.Port, "port below 1024 requires elevated privileges")
	}
	if strings.ContainsAny(s.Host, ";&|$`()<>\"'\\ ") {
		result.fail(errors.CodeInvalidConfig, "serve.host", s.Host,
			"host contains invalid characters")
	}
}

func validateWatch(w *WatchConfig, result *ValidationResult) {
	if w.Debounce < 0 {
		result.fail(errors.CodeInvalidConfig, "watch.debounce", w.Debounce,
			"debounce must not be negative")
	}
	for _, p := range w.Paths {
		if strings.TrimSpace(p) == "" {
			result.fail(errors.CodeInvalidConfig, "watch.paths", w.Paths, "empty watch path")
			break
		}
	}
}

func validateLog(l *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		result.fail(errors.CodeInvalidConfig, "log.level", l.Level, err.Error(),
			"Use one of debug, info, warn, error")
	}
	switch l.Format {
	case "text", "json":
	default:
		result.fail(errors.CodeInvalidConfig, "log.format", l.Format,
			fmt.Sprintf("unknown log format %q", l.Format),
			"Use text or json")
	}
}
