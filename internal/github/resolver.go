package github

import "context"

// Resolver adapts Client to the server's identity-resolution boundary:
// bearer token in, GitHub username out.
type Resolver struct {
	Client *Client
}

// Resolve returns the username the token authenticates as.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	return r.Client.User(ctx, token)
}
