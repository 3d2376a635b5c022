package domain

import (
	"strings"
	"time"
)

// SourceKind distinguishes natively collected feeds from virtual sources.
type SourceKind string

// Available source kinds.
const (
	// SourceKindNative is a feed collected by the scheduled collector.
	SourceKindNative SourceKind = "native"

	// SourceKindVirtual is a synthetic provenance record for external items.
	SourceKindVirtual SourceKind = "virtual"
)

// IsValid returns true if the kind is recognised.
func (k SourceKind) IsValid() bool {
	return k == SourceKindNative || k == SourceKindVirtual
}

// Source is a provenance record that stored items point at.
// Virtual sources exist exactly once per (OwnerID, ProviderName).
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// OwnerID is the owning user.
	OwnerID string

	// Kind is native or virtual.
	Kind SourceKind

	// Name is the display name.
	Name string

	// URL is the feed URL, or virtual://<provider> for virtual sources.
	URL string

	// ProviderName is the external provider (virtual sources only).
	ProviderName string

	// RefreshInterval is the native collection interval. Zero for virtual sources.
	RefreshInterval time.Duration

	// ItemCount is the number of stored items attributed to the source.
	ItemCount int

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// IsVirtual reports whether the source is a virtual source.
func (s *Source) IsVirtual() bool {
	return s.Kind == SourceKindVirtual
}

// Collectable reports whether the scheduled native collector may select the source.
// Virtual sources are never collectable.
func (s *Source) Collectable() bool {
	return s.Kind == SourceKindNative && s.RefreshInterval > 0
}

// NewVirtualSource builds the record for an (owner, provider) pair with a
// deterministic display name.
func NewVirtualSource(ownerID, providerName string) Source {
	provider := strings.ToLower(strings.TrimSpace(providerName))
	return Source{
		OwnerID:      ownerID,
		Kind:         SourceKindVirtual,
		Name:         VirtualSourceName(provider),
		URL:          "virtual://" + provider,
		ProviderName: provider,
	}
}

// VirtualSourceName returns the display name for a provider's virtual source.
func VirtualSourceName(providerName string) string {
	if providerName == "" {
		return "External Search"
	}
	return strings.ToUpper(providerName[:1]) + providerName[1:] + " External Search"
}
