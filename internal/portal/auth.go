package portal

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// PrimeSession issues the initial GET that sets baseline cookies
func (c *Client) PrimeSession(ctx context.Context) error {
	_, _, err := c.fetchText(ctx, http.MethodGet, c.opts.BaseURL, nil)
	return err
}

// SubmitLogin posts the credentials. Any 2xx answer counts as success;
// the body is not inspected.
func (c *Client) SubmitLogin(ctx context.Context, creds Credentials) error {
	form := url.Values{}
	form.Set("email", creds.Email)
	form.Set("password", creds.Password)
	form.Set("indefinite", "1")

	resp, err := c.do(ctx, http.MethodPost, c.opts.BaseURL+c.opts.LoginPath, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if !IsSuccess(resp.StatusCode) {
		return &AuthError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Login primes the session and submits the credentials. A rejected login
// is not retried.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if err := c.PrimeSession(ctx); err != nil {
		return err
	}
	if err := c.SubmitLogin(ctx, creds); err != nil {
		return err
	}
	c.log.Info("logged in", "email", creds.Email)
	return nil
}
