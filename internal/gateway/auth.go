package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
)

func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

type AuthClient struct {
	client *Client
}

type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
}

func (u *User) Identity() *domain.Identity {
	if u == nil {
		return nil
	}
	return &domain.Identity{
		ID:               u.ID,
		Email:            u.Email,
		EmailConfirmedAt: u.EmailConfirmedAt,
	}
}

// Session is what the backend returns for a successful authentication.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

func (s *Session) Tokens() domain.Tokens {
	expires := time.Unix(s.ExpiresAt, 0)
	if s.ExpiresAt == 0 {
		expires = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return domain.Tokens{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expires,
	}
}

type OTPType string

const OTPSignup OTPType = "signup"

func withRedirect(path, redirectTo string) string {
	if redirectTo == "" {
		return path
	}
	return path + "?redirect_to=" + url.QueryEscape(redirectTo)
}

// SignUp creates an identity. When email confirmation is on, the backend
// answers with the bare user and no session.
func (a *AuthClient) SignUp(ctx context.Context, email, password, redirectTo string, metadata any) (*User, *Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}
	req, err := a.client.newRequest(ctx, http.MethodPost, withRedirect("/auth/v1/signup", redirectTo), body)
	if err != nil {
		return nil, nil, err
	}
	resp, err := a.client.do(req)
	if err != nil {
		return nil, nil, err
	}

	var sess Session
	if err := json.Unmarshal(resp.Body, &sess); err == nil && sess.AccessToken != "" {
		return sess.User, &sess, nil
	}

	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, nil, err
	}
	if user.ID == "" {
		return nil, nil, fmt.Errorf("%w: signup returned no user", ErrMalformedResponse)
	}
	return &user, nil, nil
}

func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	return a.session(ctx, "/auth/v1/token?grant_type=password", body)
}

func (a *AuthClient) VerifyOTP(ctx context.Context, typ OTPType, tokenHash string) (*Session, error) {
	body := map[string]string{"type": string(typ), "token_hash": tokenHash}
	return a.session(ctx, "/auth/v1/verify", body)
}

func (a *AuthClient) session(ctx context.Context, path string, body any) (*Session, error) {
	req, err := a.client.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.do(req)
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := resp.Decode(&sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" || sess.User == nil {
		return nil, fmt.Errorf("%w: no session in auth response", ErrMalformedResponse)
	}
	return &sess, nil
}

func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	req, err := a.client.newRequest(WithAccessToken(ctx, accessToken), http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	_, err = a.client.do(req)
	return err
}

func (a *AuthClient) Resend(ctx context.Context, typ OTPType, email, redirectTo string) error {
	body := map[string]string{"type": string(typ), "email": email}
	req, err := a.client.newRequest(ctx, http.MethodPost, withRedirect("/auth/v1/resend", redirectTo), body)
	if err != nil {
		return err
	}
	_, err = a.client.do(req)
	return err
}

func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := a.client.newRequest(WithAccessToken(ctx, accessToken), http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.do(req)
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
