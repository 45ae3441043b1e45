package settings

import (
	"context"
	"errors"
	"sort"

	"github.com/netbill/isp-billing/pkg/db/models"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
)

type settingsRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, rows []models.Setting) error
}

// Service exposes the settings store.
type Service interface {
	Raw(ctx context.Context) (map[string]string, error)
	Load(ctx context.Context) (Values, error)
	Save(ctx context.Context, values Values) error
}

type service struct {
	repo settingsRepository
}

// NewService builds a settings service.
func NewService(repo settingsRepository) (Service, error) {
	if repo == nil {
		return nil, errors.New("settings repository required")
	}
	return &service{repo: repo}, nil
}

// Raw returns persisted rows merged with defaults for any recognized key that is absent.
// Unrecognized persisted keys are passed through untouched.
func (s *service) Raw(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	out := make(map[string]string, len(rows)+len(Defaults))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	for key, value := range Defaults {
		if _, ok := out[key]; !ok {
			out[key] = value
		}
	}
	return out, nil
}

// Load returns the typed settings.
func (s *service) Load(ctx context.Context) (Values, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return Values{}, err
	}
	values, err := ParseValues(raw)
	if err != nil {
		return Values{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse settings")
	}
	return values, nil
}

// Save upserts every recognized key. Callers validate ranges beforehand.
func (s *service) Save(ctx context.Context, values Values) error {
	encoded := values.Map()
	keys := make([]string, 0, len(encoded))
	for key := range encoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]models.Setting, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, models.Setting{Key: key, Value: encoded[key]})
	}
	if err := s.repo.Upsert(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
	}
	return nil
}
