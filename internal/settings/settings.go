// Package settings serves the company display and banking details with local
// fallbacks, so the storefront keeps rendering when the backend is down.
package settings

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chiwarira/alpha-lpgas-new/internal/gasapi"
)

// ErrSourceRequired indicates the service was built without its API client.
var ErrSourceRequired = errors.New("settings: backend source is required")

// ErrUnavailable indicates no settings could be served: the backend failed
// and no fallback file is configured.
var ErrUnavailable = errors.New("settings: unavailable")

const defaultTTL = 5 * time.Minute

// Source is the backend dependency that owns the settings record.
type Source interface {
	CompanySettings(ctx context.Context) (gasapi.CompanySettings, error)
}

// fileSettings is the YAML shape of the fallback file.
type fileSettings struct {
	CompanyName          string `yaml:"company_name"`
	RegistrationNumber   string `yaml:"registration_number"`
	VATNumber            string `yaml:"vat_number"`
	Phone                string `yaml:"phone"`
	Email                string `yaml:"email"`
	Address              string `yaml:"address"`
	BankName             string `yaml:"bank_name"`
	AccountName          string `yaml:"account_name"`
	AccountNumber        string `yaml:"account_number"`
	AccountType          string `yaml:"account_type"`
	BranchCode           string `yaml:"branch_code"`
	PaymentReferenceNote string `yaml:"payment_reference_note"`
}

// Service fetches company settings with a TTL cache. Order of preference:
// fresh cache, then the backend, then a stale cache entry, then the local
// YAML fallback file.
type Service struct {
	source       Source
	fallbackPath string
	ttl          time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	cached  gasapi.CompanySettings
	hasData bool
	expires time.Time
}

// Config parameterises the service.
type Config struct {
	Source Source
	// FallbackPath names an optional YAML file served when the backend is
	// unreachable and nothing is cached.
	FallbackPath string
	// TTL is the cache duration; zero or negative selects the default.
	TTL    time.Duration
	Logger *zap.Logger
}

// NewService constructs the settings service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, ErrSourceRequired
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:       cfg.Source,
		fallbackPath: cfg.FallbackPath,
		ttl:          ttl,
		logger:       logger,
	}, nil
}

// Get returns the company settings, refreshing from the backend when the
// cache has expired. A backend failure serves the stale cached value when one
// exists, then the fallback file.
func (s *Service) Get(ctx context.Context) (gasapi.CompanySettings, error) {
	s.mu.Lock()
	if s.hasData && time.Now().Before(s.expires) {
		cached := s.cached
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	fetched, err := s.source.CompanySettings(ctx)
	if err == nil {
		s.mu.Lock()
		s.cached = fetched
		s.hasData = true
		s.expires = time.Now().Add(s.ttl)
		s.mu.Unlock()
		return fetched, nil
	}
	s.logger.Warn("company settings fetch failed", zap.Error(err))

	s.mu.Lock()
	if s.hasData {
		stale := s.cached
		s.mu.Unlock()
		return stale, nil
	}
	s.mu.Unlock()

	return s.fromFile()
}

// Refresh drops the cache so the next Get hits the backend.
func (s *Service) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires = time.Time{}
}

func (s *Service) fromFile() (gasapi.CompanySettings, error) {
	if s.fallbackPath == "" {
		return gasapi.CompanySettings{}, ErrUnavailable
	}
	raw, err := os.ReadFile(s.fallbackPath)
	if err != nil {
		s.logger.Warn("settings fallback file unreadable",
			zap.String("path", s.fallbackPath), zap.Error(err))
		return gasapi.CompanySettings{}, ErrUnavailable
	}
	var file fileSettings
	if err := yaml.Unmarshal(raw, &file); err != nil {
		s.logger.Warn("settings fallback file malformed",
			zap.String("path", s.fallbackPath), zap.Error(err))
		return gasapi.CompanySettings{}, ErrUnavailable
	}
	return gasapi.CompanySettings{
		CompanyName:          file.CompanyName,
		RegistrationNumber:   file.RegistrationNumber,
		VATNumber:            file.VATNumber,
		Phone:                file.Phone,
		Email:                file.Email,
		Address:              file.Address,
		BankName:             file.BankName,
		AccountName:          file.AccountName,
		AccountNumber:        file.AccountNumber,
		AccountType:          file.AccountType,
		BranchCode:           file.BranchCode,
		PaymentReferenceNote: file.PaymentReferenceNote,
	}, nil
}
