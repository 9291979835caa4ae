// Package orgsync reconciles the active organization selection after login.
package orgsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/transitnet/transitnet-cli/internal/api"
)

// Organization is a membership entry from the organization list.
type Organization struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
}

// ActiveOrgStore persists the active organization selection.
type ActiveOrgStore interface {
	ActiveOrganization() (string, error)
	SetActiveOrganization(id string) error
}

// Syncer fetches the user's organizations with a freshly received
// credential and reconciles the stored selection against them.
type Syncer struct {
	client *api.Client
	store  ActiveOrgStore
	logger *slog.Logger
}

// NewSyncer creates a syncer over the API client and selection store.
func NewSyncer(client *api.Client, store ActiveOrgStore, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{client: client, store: store, logger: logger}
}

// Sync lists the organizations visible to the credential and updates the
// stored selection: a selection no longer in the list is replaced by the
// first listed organization, and an empty list clears it. The credential is
// used directly because it is not yet the stored session at login time.
func (s *Syncer) Sync(ctx context.Context, token string) error {
	data, err := s.client.WithBearer(token).
		Resource(api.ResourceOrganizationList, nil).
		Get(ctx, nil)
	if err != nil {
		return err
	}

	var orgs []Organization
	if err := json.Unmarshal(data, &orgs); err != nil {
		return fmt.Errorf("parsing organization list: %w", err)
	}

	current, err := s.store.ActiveOrganization()
	if err != nil {
		return err
	}

	if current != "" {
		for _, org := range orgs {
			if org.OrganizationID == current {
				return nil
			}
		}
		s.logger.Debug("active organization no longer visible", "organization_id", current)
	}

	next := ""
	if len(orgs) > 0 {
		next = orgs[0].OrganizationID
	}
	if next == current {
		return nil
	}
	return s.store.SetActiveOrganization(next)
}
