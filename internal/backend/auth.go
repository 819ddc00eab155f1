package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var env envelope[authData]
	if err := c.do(ctx, c.http, http.MethodPost, "/auth/login", body, &env); err != nil {
		return Session{}, fmt.Errorf("logging in %s: %w", email, err)
	}
	return env.Data.session(), nil
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var env envelope[authData]
	if err := c.do(ctx, c.http, http.MethodPost, "/auth/register", body, &env); err != nil {
		return Session{}, fmt.Errorf("registering %s: %w", email, err)
	}
	return env.Data.session(), nil
}
