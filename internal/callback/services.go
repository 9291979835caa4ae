package callback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/transitnet/transitnet-cli/internal/api"
)

// ProfileClient fetches the caller's own profile over the API.
type ProfileClient struct {
	client *api.Client
}

// NewProfileClient creates a profile service over the API client.
func NewProfileClient(client *api.Client) *ProfileClient {
	return &ProfileClient{client: client}
}

var _ ProfileService = (*ProfileClient)(nil)

func (p *ProfileClient) OwnProfile(ctx context.Context) (*Profile, error) {
	data, err := p.client.Resource(api.ResourceUserSelf, nil).Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	profile := &Profile{}
	if err := json.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return profile, nil
}

// VerificationClient requests verification emails without authenticating;
// the account asking for one cannot log in yet.
type VerificationClient struct {
	client *api.Client
}

// NewVerificationClient creates a verification sender over the API client.
func NewVerificationClient(client *api.Client) *VerificationClient {
	return &VerificationClient{client: client}
}

var _ VerificationSender = (*VerificationClient)(nil)

func (v *VerificationClient) Resend(ctx context.Context, userID string) error {
	_, err := v.client.
		Resource(api.ResourceVerificationEmail, nil, api.Anonymous()).
		Post(ctx, map[string]string{"userId": userID})
	return err
}
