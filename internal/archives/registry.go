// Package archives exposes the configured archives and answers which of them
// track a given account. Configuration order is significant: the first
// archive tracking an account is its primary archive.
package archives

import (
	"path/filepath"
	"time"

	"archivist/internal/config"
)

// Archive is a configured destination with its own freshness policy.
type Archive struct {
	Name string
	Root string
	def  config.Archive
}

// AccountGap returns the account re-scan interval for service.
func (a Archive) AccountGap(service string) time.Duration {
	return a.def.AccountGap(service)
}

// ContentGap returns the content re-scan interval for service.
func (a Archive) ContentGap(service string) time.Duration {
	return a.def.ContentGap(service)
}

// Path joins a relative download path onto the archive root.
func (a Archive) Path(relativePath string) string {
	return filepath.Join(a.Root, relativePath)
}

// Pair is one (archive, account) tracking relation.
type Pair struct {
	Archive   Archive
	Entity    string
	Service   string
	AccountID string
}

type accountKey struct {
	service string
	id      string
}

// Registry is an immutable view of the archive configuration.
type Registry struct {
	archives []Archive
	pairs    []Pair
	tracking map[accountKey][]int
	services []string
}

// New builds a registry from configuration.
func New(cfg *config.Config) *Registry {
	r := &Registry{tracking: make(map[accountKey][]int)}
	if cfg == nil {
		return r
	}
	seenService := make(map[string]struct{})
	for idx, def := range cfg.Archives {
		archive := Archive{Name: def.Name, Root: def.DestinationRoot, def: def}
		r.archives = append(r.archives, archive)
		for _, entity := range def.Entities {
			for _, ref := range entity.Accounts {
				key := accountKey{service: ref.Service, id: ref.ID}
				indexes := r.tracking[key]
				if len(indexes) > 0 && indexes[len(indexes)-1] == idx {
					continue
				}
				r.tracking[key] = append(indexes, idx)
				r.pairs = append(r.pairs, Pair{Archive: archive, Entity: entity.Name, Service: ref.Service, AccountID: ref.ID})
				if _, ok := seenService[ref.Service]; !ok {
					seenService[ref.Service] = struct{}{}
					r.services = append(r.services, ref.Service)
				}
			}
		}
	}
	return r
}

// Archives returns every archive in configuration order.
func (r *Registry) Archives() []Archive {
	out := make([]Archive, len(r.archives))
	copy(out, r.archives)
	return out
}

// Get returns the named archive.
func (r *Registry) Get(name string) (Archive, bool) {
	for _, archive := range r.archives {
		if archive.Name == name {
			return archive, true
		}
	}
	return Archive{}, false
}

// ListTracking returns the archives tracking the account, in configuration
// order. The first element is the primary archive.
func (r *Registry) ListTracking(service, accountID string) []Archive {
	indexes := r.tracking[accountKey{service: service, id: accountID}]
	if len(indexes) == 0 {
		return nil
	}
	out := make([]Archive, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, r.archives[idx])
	}
	return out
}

// Primary returns the first archive tracking the account.
func (r *Registry) Primary(service, accountID string) (Archive, bool) {
	tracking := r.ListTracking(service, accountID)
	if len(tracking) == 0 {
		return Archive{}, false
	}
	return tracking[0], true
}

// Pairs returns every (archive, account) relation for service in
// configuration order. An empty service returns all relations.
func (r *Registry) Pairs(service string) []Pair {
	out := make([]Pair, 0, len(r.pairs))
	for _, pair := range r.pairs {
		if service == "" || pair.Service == service {
			out = append(out, pair)
		}
	}
	return out
}

// Services returns the services with at least one tracked account, in order
// of first appearance.
func (r *Registry) Services() []string {
	out := make([]string, len(r.services))
	copy(out, r.services)
	return out
}
