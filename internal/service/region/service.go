package region

import (
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/epi-platform/admin-api/internal/config"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/errors"
)

// Service is the ordered, read-only registry of supported regions.
type Service struct {
	regions []model.Region
	index   *cache.Cache
}

func NewService(regions []model.Region) (*Service, error) {
	s := &Service{
		regions: make([]model.Region, 0, len(regions)),
		index:   cache.New(cache.NoExpiration, 0),
	}

	for _, r := range regions {
		r.Code = Normalize(r.Code)
		if r.Code == "" {
			return nil, fmt.Errorf("region code is required")
		}
		if err := s.index.Add(r.Code, r, cache.NoExpiration); err != nil {
			return nil, fmt.Errorf("duplicate region code %q", r.Code)
		}
		s.regions = append(s.regions, r)
	}

	return s, nil
}

// FromConfig builds the registry from the regions section of the config file.
func FromConfig(cfg []config.RegionConfig) (*Service, error) {
	regions := make([]model.Region, 0, len(cfg))
	for _, r := range cfg {
		regions = append(regions, model.Region{
			Code:     r.Code,
			Name:     r.Name,
			Flag:     r.Flag,
			Currency: r.Currency,
		})
	}
	return NewService(regions)
}

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// List returns the regions in configured order.
func (s *Service) List() []model.Region {
	out := make([]model.Region, len(s.regions))
	copy(out, s.regions)
	return out
}

func (s *Service) Get(code string) (model.Region, bool) {
	v, ok := s.index.Get(Normalize(code))
	if !ok {
		return model.Region{}, false
	}
	return v.(model.Region), true
}

func (s *Service) Has(code string) bool {
	_, ok := s.index.Get(Normalize(code))
	return ok
}

func (s *Service) Codes() []string {
	codes := make([]string, 0, len(s.regions))
	for _, r := range s.regions {
		codes = append(codes, r.Code)
	}
	return codes
}

// Validate rejects the first code that is not a supported region.
func (s *Service) Validate(codes ...string) error {
	for _, code := range codes {
		if !s.Has(code) {
			return errors.BadRequest(fmt.Sprintf("unsupported region %q", code), nil)
		}
	}
	return nil
}
