package api

import (
	"context"
	"net/http"
)

// Login starts a session. The server sets the session and CSRF cookies.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	return c.postUser(ctx, "/login/", creds)
}

// Register creates an account and starts a session for it.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	return c.postUser(ctx, "/register/", reg)
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/logout/"}, nil)
}

// Token obtains a JWT pair for creds.
func (c *Client) Token(ctx context.Context, creds Credentials) (*Token, error) {
	body, err := encodeBody(creds)
	if err != nil {
		return nil, err
	}

	var token Token

	req := request{method: http.MethodPost, path: "/token/", body: body, contentType: "application/json"}
	if err := c.do(ctx, req, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (c *Client) postUser(ctx context.Context, path string, payload any) (*User, error) {
	body, err := encodeBody(payload)
	if err != nil {
		return nil, err
	}

	var user User

	req := request{method: http.MethodPost, path: path, body: body, contentType: "application/json"}
	if err := c.do(ctx, req, &user); err != nil {
		return nil, err
	}

	return &user, nil
}
