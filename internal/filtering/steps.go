package filtering

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/jobs"
)

type incompleteFilter struct{}

// NewIncomplete creates a filter that removes listings without a title, company or usable link.
func NewIncomplete() Filter {
	return &incompleteFilter{}
}

func (f *incompleteFilter) Name() string { return "incomplete" }

func (f *incompleteFilter) Disable(string) {}

func (f *incompleteFilter) IsEnabled() bool { return true }

func (f *incompleteFilter) Validate(*Config) error { return nil }

func (f *incompleteFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	kept, dropped := partition(listings, func(l jobs.Listing) bool {
		return strings.TrimSpace(l.Title) != "" && strings.TrimSpace(l.Company) != "" && isHTTPURL(l.URL)
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding incomplete listings",
			zap.Strings("excluded_listings", dropped),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

type companiesFilter struct {
	disabled  bool
	reason    string
	companies []string
}

// NewExcludedCompanies creates a filter that removes listings by companies configured in the config.
func NewExcludedCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return !f.disabled }

func (f *companiesFilter) Validate(cfg *Config) error {
	f.companies = nil
	if cfg == nil {
		return nil
	}
	for _, company := range cfg.ExcludeCompanies {
		company = strings.TrimSpace(company)
		if company == "" {
			return fmt.Errorf("excluded company name must not be empty")
		}
		f.companies = append(f.companies, company)
	}
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	if len(f.companies) == 0 {
		return listings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, dropped := partition(listings, func(l jobs.Listing) bool {
		for _, company := range f.companies {
			if strings.EqualFold(strings.TrimSpace(l.Company), company) {
				return false
			}
		}
		return true
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding listings by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_listings", dropped),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type duplicatesFilter struct{}

// NewDuplicates creates a filter that keeps only the first listing per link.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Disable(string) {}

func (f *duplicatesFilter) IsEnabled() bool { return true }

func (f *duplicatesFilter) Validate(*Config) error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	seen := make(map[string]struct{}, initial)

	kept, dropped := partition(listings, func(l jobs.Listing) bool {
		key := normalizeURL(l.URL)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding duplicate listings", zap.Strings("excluded_listings", dropped))
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

// partition splits listings by keep and returns the kept ones with the URLs of the dropped.
func partition(listings []jobs.Listing, keep func(jobs.Listing) bool) ([]jobs.Listing, []string) {
	kept := make([]jobs.Listing, 0, len(listings))
	var dropped []string
	for _, l := range listings {
		if keep(l) {
			kept = append(kept, l)
			continue
		}
		dropped = append(dropped, l.URL)
	}
	return kept, dropped
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
