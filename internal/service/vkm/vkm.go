// internal/service/vkm/vkm.go
package vkm

import (
	"context"
	"net/url"

	"keuzecompass/internal/domain/vkm"
	"keuzecompass/internal/pkg/api"

	"go.uber.org/zap"
)

const (
	modulesEndpoint         = "/vkm"
	favoritesEndpoint       = "/vkm/favorites"
	recommendationsEndpoint = "/vkm/recommendations/me"

	// DefaultRecommendationLimit is the number of recommendations asked for
	// when the caller does not choose.
	DefaultRecommendationLimit = 8
)

type VKMService struct {
	client *api.Client
	logger *zap.Logger
}

func NewVKMService(client *api.Client, logger *zap.Logger) *VKMService {
	return &VKMService{client: client, logger: logger}
}

func moduleEndpoint(id string) string {
	return modulesEndpoint + "/" + url.PathEscape(id)
}

// List fetches the modules matching the server side filters and then applies
// the search term locally.
func (s *VKMService) List(ctx context.Context, filters vkm.Filters) ([]vkm.Module, error) {
	var modules []vkm.Module
	if err := s.client.Get(ctx, modulesEndpoint, &modules, api.WithQuery(filters.Query())); err != nil {
		return nil, err
	}
	return Search(modules, filters.Search), nil
}

func (s *VKMService) Get(ctx context.Context, id string) (*vkm.Module, error) {
	var module vkm.Module
	if err := s.client.Get(ctx, moduleEndpoint(id), &module); err != nil {
		return nil, err
	}
	return &module, nil
}

func (s *VKMService) Create(ctx context.Context, data vkm.CreateVKMData) (*vkm.Module, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	var module vkm.Module
	if err := s.client.Post(ctx, modulesEndpoint, data, &module); err != nil {
		return nil, err
	}
	s.logger.Info("module created", zap.String("id", module.ID), zap.String("name", module.Name))
	return &module, nil
}

func (s *VKMService) Update(ctx context.Context, id string, data vkm.UpdateVKMData) (*vkm.Module, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	var module vkm.Module
	if err := s.client.Put(ctx, moduleEndpoint(id), data, &module); err != nil {
		return nil, err
	}
	s.logger.Info("module updated", zap.String("id", id))
	return &module, nil
}

func (s *VKMService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, moduleEndpoint(id), nil); err != nil {
		return err
	}
	s.logger.Info("module deleted", zap.String("id", id))
	return nil
}

// ToggleFavorite flips the favorite flag of a module for the current user.
func (s *VKMService) ToggleFavorite(ctx context.Context, id string) error {
	return s.client.Post(ctx, moduleEndpoint(id)+"/favorite", nil, nil)
}

func (s *VKMService) Favorites(ctx context.Context) ([]vkm.Module, error) {
	var modules []vkm.Module
	if err := s.client.Get(ctx, favoritesEndpoint, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// Recommendations returns up to limit modules recommended for the current
// user. A non-positive limit uses DefaultRecommendationLimit.
func (s *VKMService) Recommendations(ctx context.Context, limit int) ([]vkm.Module, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	var modules []vkm.Module
	if err := s.client.Get(ctx, recommendationsEndpoint, &modules, api.WithQuery(api.NewQuery("limit", limit))); err != nil {
		return nil, err
	}
	return modules, nil
}

// Search keeps the modules whose name or descriptions contain term.
func Search(modules []vkm.Module, term string) []vkm.Module {
	out := make([]vkm.Module, 0, len(modules))
	for _, m := range modules {
		if m.Matches(term) {
			out = append(out, m)
		}
	}
	return out
}

// ApplyFavoriteToggle returns a copy of modules with the favorite flag of id
// flipped, mirroring a successful ToggleFavorite without refetching.
func ApplyFavoriteToggle(modules []vkm.Module, id string) []vkm.Module {
	out := make([]vkm.Module, len(modules))
	copy(out, modules)
	for i := range out {
		if out[i].ID == id {
			out[i].IsFavorited = !out[i].IsFavorited
		}
	}
	return out
}

// Related drops the module currently shown and inactive modules from a
// recommendation list and keeps at most n.
func Related(recs []vkm.Module, currentID string, n int) []vkm.Module {
	out := make([]vkm.Module, 0, n)
	for _, m := range recs {
		if len(out) == n {
			break
		}
		if m.ID == currentID || !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	return out
}
