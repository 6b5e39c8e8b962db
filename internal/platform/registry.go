package platform

import (
	"fmt"

	"github.com/maheshrc27/postflow/internal/models"
)

// UnsupportedPlatformError is returned when no publisher is registered for a platform.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.Platform)
}

// Registry resolves a platform to its publisher. It is immutable after construction.
type Registry struct {
	publishers map[models.Platform]Publisher
}

func NewRegistry(publishers ...Publisher) (*Registry, error) {
	r := &Registry{publishers: make(map[models.Platform]Publisher, len(publishers))}
	for _, p := range publishers {
		name := p.Platform()
		if !name.IsValid() {
			return nil, fmt.Errorf("register publisher: %w", &models.UnknownPlatformError{Value: string(name)})
		}
		if _, dup := r.publishers[name]; dup {
			return nil, fmt.Errorf("register publisher: duplicate publisher for %s", name)
		}
		r.publishers[name] = p
	}
	return r, nil
}

func (r *Registry) Get(p models.Platform) (Publisher, error) {
	pub, ok := r.publishers[p]
	if !ok {
		return nil, &UnsupportedPlatformError{Platform: string(p)}
	}
	return pub, nil
}

// Engagement returns the platform's insights capability, if it has one.
func (r *Registry) Engagement(p models.Platform) (EngagementFetcher, bool) {
	pub, ok := r.publishers[p]
	if !ok {
		return nil, false
	}
	f, ok := pub.(EngagementFetcher)
	return f, ok
}

func (r *Registry) Platforms() []models.Platform {
	out := make([]models.Platform, 0, len(r.publishers))
	for _, p := range models.Platforms {
		if _, ok := r.publishers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
