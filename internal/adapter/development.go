package adapter

import (
	"fmt"

	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
)

// Development action types. TypeDeployProduction lives in boundary so
// the hard block and the adapter agree on the string.
const (
	TypeCommitPush    = "commit_push"
	TypeDeployStaging = "deploy_staging"
)

// ChangeRequest is the deployment engine's domain request.
type ChangeRequest struct {
	Kind         string // commit_push | deploy_staging | deploy_production
	Repo         string
	Files        []string
	LinesChanged int
}

// DevAdapter maps code-change requests to actions. Deploys are
// irreversible; commits can be reverted.
type DevAdapter struct {
	apply  executor.Handler
	revert executor.Handler
}

func NewDevAdapter(apply, revert executor.Handler) *DevAdapter {
	return &DevAdapter{apply: apply, revert: revert}
}

func (d *DevAdapter) Category() model.Category { return model.CategoryDevelopment }

func (d *DevAdapter) Translate(request any) (*model.Action, error) {
	req, ok := request.(ChangeRequest)
	if !ok {
		return nil, fmt.Errorf("adapter: development adapter got %T", request)
	}
	switch req.Kind {
	case TypeCommitPush, TypeDeployStaging, boundary.TypeDeployProduction:
	default:
		return nil, fmt.Errorf("adapter: unknown change kind %q", req.Kind)
	}

	a := model.NewAction(model.CategoryDevelopment, req.Kind, "development")
	a.Reversible = req.Kind == TypeCommitPush
	a.Payload = map[string]any{
		"repo":          req.Repo,
		"files":         req.Files,
		"lines_changed": req.LinesChanged,
	}
	return a, nil
}

func (d *DevAdapter) RegisterExecutors(reg *executor.Registry) {
	for _, typ := range []string{TypeCommitPush, TypeDeployStaging, boundary.TypeDeployProduction} {
		reg.Register(typ, d.apply)
	}
	if d.revert != nil {
		reg.RegisterRollback(TypeCommitPush, d.revert)
	}
}
