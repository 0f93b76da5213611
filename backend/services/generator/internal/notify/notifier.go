// Package notify asks a running battery service to reload its data file.
package notify

import (
	"context"
	"errors"

	"batterypower/backend/libs/clients"
)

const loadPath = "/battery/load"

// Notifier triggers POST /battery/load.
type Notifier struct {
	client *clients.JSONClient
}

// New returns a notifier for the service at baseURL. A nil doer uses the default client.
func New(baseURL string, doer clients.HTTPDoer) *Notifier {
	return &Notifier{client: clients.NewJSONClient(baseURL, doer)}
}

type loadResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// TriggerLoad returns the service's message. The service reports failures as an error
// object with status 200, so those are turned into errors here.
func (n *Notifier) TriggerLoad(ctx context.Context) (string, error) {
	var resp loadResponse
	if err := n.client.PostJSON(ctx, loadPath, nil, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Message, nil
}
