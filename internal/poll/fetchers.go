package poll

import (
	"context"

	"github.com/matheus3301/wuzdash/internal/gateway"
)

// StatusClient fetches the session selected by the user token.
type StatusClient interface {
	Status(ctx context.Context) (*gateway.Instance, error)
}

// AdminClient also lists every instance.
type AdminClient interface {
	StatusClient
	ListUsers(ctx context.Context) ([]gateway.Instance, error)
}

// Selection reports the instance an admin has opened, or "".
type Selection interface {
	CurrentInstance() (string, error)
}

// UserFetcher polls the viewer's own session.
func UserFetcher(c StatusClient) Fetcher {
	return FetchFunc(func(ctx context.Context) (Result, error) {
		inst, err := c.Status(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Instances: []gateway.Instance{*inst}, Single: true, UserJID: inst.JID}, nil
	})
}

// AdminFetcher lists all instances, or only the opened one when an instance
// is selected.
func AdminFetcher(c AdminClient, sel Selection) Fetcher {
	return FetchFunc(func(ctx context.Context) (Result, error) {
		current, err := sel.CurrentInstance()
		if err != nil {
			return Result{}, err
		}
		if current != "" {
			inst, err := c.Status(ctx)
			if err != nil {
				return Result{}, err
			}
			return Result{Instances: []gateway.Instance{*inst}, Single: true}, nil
		}
		list, err := c.ListUsers(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Instances: list}, nil
	})
}
