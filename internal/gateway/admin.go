package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// ListUsers fetches every instance. Admin scope.
func (c *Client) ListUsers(ctx context.Context) ([]Instance, error) {
	var out []Instance
	err := c.do(ctx, request{op: "list instances", method: http.MethodGet, path: "/admin/users", scope: scopeAdmin}, &out)
	return out, err
}

// CreateInstance validates req and creates the instance. Admin scope.
func (c *Client) CreateInstance(ctx context.Context, req CreateInstanceRequest) (*Instance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out Instance
	err := c.do(ctx, request{
		op: "create instance", method: http.MethodPost, path: "/admin/users",
		scope: scopeAdmin, body: req.payload(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteInstance removes an instance and everything the gateway stores for
// it. Admin scope.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	if err := requireField("id", id); err != nil {
		return err
	}
	return c.do(ctx, request{
		op: "delete instance", method: http.MethodDelete,
		path: "/admin/users/" + url.PathEscape(id) + "/full", scope: scopeAdmin,
	}, nil)
}
