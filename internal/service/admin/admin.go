// internal/service/admin/admin.go
package admin

import (
	"context"
	"net/url"

	"keuzecompass/internal/domain/admin"
	"keuzecompass/internal/domain/vkm"
	"keuzecompass/internal/pkg/api"
	xerrors "keuzecompass/internal/pkg/errors"
	vkmservice "keuzecompass/internal/service/vkm"

	"go.uber.org/zap"
)

const usersEndpoint = "/auth/users"

// AdminService wraps the admin-only endpoints. The API enforces the role;
// callers are expected to run the admin guard first.
type AdminService struct {
	client  *api.Client
	modules *vkmservice.VKMService
	logger  *zap.Logger
}

func NewAdminService(client *api.Client, modules *vkmservice.VKMService, logger *zap.Logger) *AdminService {
	return &AdminService{client: client, modules: modules, logger: logger}
}

func userEndpoint(id string) string {
	return usersEndpoint + "/" + url.PathEscape(id)
}

// ========== Users ==========

func (s *AdminService) ListUsers(ctx context.Context) ([]admin.AdminUser, error) {
	var users []admin.AdminUser
	if err := s.client.Get(ctx, usersEndpoint, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user with their favorite modules. When the API still
// sends only favorite IDs, each ID is resolved through GET /vkm/:id; modules
// that cannot be fetched are skipped and never fail the user fetch.
func (s *AdminService) GetUser(ctx context.Context, id string) (*admin.UserWithFavorites, error) {
	var user admin.UserWithFavorites
	if err := s.client.Get(ctx, userEndpoint(id), &user); err != nil {
		return nil, err
	}

	if len(user.FavoriteVKMs) == 0 && len(user.FavoriteVKMIDs) > 0 {
		user.FavoriteVKMs = s.resolveFavorites(ctx, user.FavoriteVKMIDs)
	}
	user.FavoriteVKMIDs = nil
	return &user, nil
}

func (s *AdminService) resolveFavorites(ctx context.Context, ids []string) []admin.FavoriteVKM {
	favorites := make([]admin.FavoriteVKM, 0, len(ids))
	for _, id := range ids {
		m, err := s.modules.Get(ctx, id)
		if err != nil {
			if api.IsCanceled(err) {
				break
			}
			s.logger.Warn("failed to resolve favorite module", zap.String("vkm_id", id), zap.Error(err))
			continue
		}
		favorites = append(favorites, admin.FavoriteVKM{ID: m.ID, Name: m.Name, ShortDescription: m.ShortDescription})
	}
	return favorites
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, data admin.UpdateUserData) (*admin.AdminUser, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if data.Empty() {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "nothing to update")
	}

	var user admin.AdminUser
	if err := s.client.Put(ctx, userEndpoint(id), data, &user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", zap.String("user_id", id))
	return &user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, userEndpoint(id), nil); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// ========== Modules ==========

// ListVKMs lists modules for the back office. Unlike the student listing it
// includes inactive modules unless the filters say otherwise.
func (s *AdminService) ListVKMs(ctx context.Context, filters vkm.Filters) ([]vkm.Module, error) {
	return s.modules.List(ctx, filters)
}

func (s *AdminService) CreateVKM(ctx context.Context, data vkm.CreateVKMData) (*vkm.Module, error) {
	return s.modules.Create(ctx, data)
}

func (s *AdminService) UpdateVKM(ctx context.Context, id string, data vkm.UpdateVKMData) (*vkm.Module, error) {
	if data.Empty() {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "nothing to update")
	}
	return s.modules.Update(ctx, id, data)
}

func (s *AdminService) DeleteVKM(ctx context.Context, id string) error {
	return s.modules.Delete(ctx, id)
}
