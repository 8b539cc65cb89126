package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tcmigrate/core/internal/domain/migration"
	tcerrors "github.com/tcmigrate/core/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a run config file from disk, validates its structure,
// and returns the resulting document. It does not yet resolve provider ids
// against a registry — that happens when the caller builds an
// *migration.MigrateTestCasesInput and looks up providers.
func ParseConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tcerrors.NewRunConfigError(path, 0, err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, tcerrors.NewRunConfigError(path, extractLine(err), err)
	}

	if err := validateRunConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateRunConfig runs struct-tag validation and the cross-field checks
// go-playground/validator can't express declaratively (source != target).
func validateRunConfig(cfg *RunConfig) error {
	if err := GetValidator().Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return tcerrors.NewValidationError(fe.Namespace(), fe.Error(), err)
		}
		return tcerrors.NewValidationError("", err.Error(), err)
	}
	if cfg.SourceSystemID == cfg.TargetSystemID {
		return tcerrors.NewValidationError("targetSystemId", "must differ from sourceSystemId", nil)
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}

// Loader implements ports.RunConfigLoader over ParseConfig.
type Loader struct{}

// NewLoader returns a ready-to-use Loader. It is stateless.
func NewLoader() *Loader { return &Loader{} }

// Load materialises a fully validated run request from path.
func (l *Loader) Load(ctx context.Context, path string) (*migration.MigrateTestCasesInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, migration.StopErrorFromContext(err)
	}
	cfg, err := ParseConfig(path)
	if err != nil {
		return nil, mapConfigError(err)
	}
	input := cfg.ToInput()
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return input, nil
}

// Validate performs the same checks as Load without constructing the full
// request, for fast CLI-side feedback (e.g. a `validate` subcommand).
func (l *Loader) Validate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return migration.StopErrorFromContext(err)
	}
	_, err := ParseConfig(path)
	if err != nil {
		return mapConfigError(err)
	}
	return nil
}

// mapConfigError translates pkg/errors file-boundary failures into the
// migration core's DomainError taxonomy, per ports.RunConfigLoader's
// documented error-mapping contract.
func mapConfigError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return migration.NewConfigurationError(err.Error())
	}
	var rcErr *tcerrors.RunConfigError
	if errors.As(err, &rcErr) {
		return migration.NewConfigurationError(rcErr.Error())
	}
	return migration.NewValidationError("", err.Error())
}
