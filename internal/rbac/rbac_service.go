package rbac

import (
	"sort"
	"sync"

	"go-leave/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	ListRoles() ([]domain.RoleResponse, error)
}

type service struct {
	enforcer *casbin.Enforcer
	roles    []string
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewService loads policy into enforcer once; the enforcer is read-only
// afterwards.
func NewService(enforcer *casbin.Enforcer, policy Policy, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	s := &service{enforcer: enforcer, logger: l}
	if err := s.load(policy); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *service) load(policy Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforcer.ClearPolicy()
	seen := map[string]bool{}
	addRole := func(role string) {
		if !seen[role] {
			seen[role] = true
			s.roles = append(s.roles, role)
		}
	}

	for _, p := range policy.Permissions {
		if _, err := s.enforcer.AddPolicy(p.Role, p.Resource, p.Action); err != nil {
			return err
		}
		addRole(p.Role)
	}
	for role, parents := range policy.Inherits {
		for _, parent := range parents {
			if _, err := s.enforcer.AddGroupingPolicy(role, parent); err != nil {
				return err
			}
			addRole(parent)
		}
		addRole(role)
	}
	sort.Strings(s.roles)

	s.logger.Info("rbac policy loaded",
		zap.Int("permissions", len(policy.Permissions)),
		zap.Strings("roles", s.roles),
	)
	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) ListRoles() ([]domain.RoleResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RoleResponse, 0, len(s.roles))
	for _, role := range s.roles {
		inherits, err := s.enforcer.GetRolesForUser(role)
		if err != nil {
			return nil, err
		}
		rows, err := s.enforcer.GetImplicitPermissionsForUser(role)
		if err != nil {
			return nil, err
		}

		perms := make([]domain.PermissionResponse, 0, len(rows))
		for _, row := range rows {
			if len(row) < 3 {
				continue
			}
			perms = append(perms, domain.PermissionResponse{Resource: row[1], Action: row[2]})
		}
		sort.Slice(perms, func(i, j int) bool {
			if perms[i].Resource != perms[j].Resource {
				return perms[i].Resource < perms[j].Resource
			}
			return perms[i].Action < perms[j].Action
		})

		out = append(out, domain.RoleResponse{
			Name:        role,
			Inherits:    inherits,
			Permissions: perms,
		})
	}
	return out, nil
}
