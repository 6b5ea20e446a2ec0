package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

func (c *Client) Functions() *FunctionsClient {
	return &FunctionsClient{client: c}
}

type FunctionsClient struct {
	client *Client
}

// Invoke calls a named backend function. Invocations are never retried.
func (f *FunctionsClient) Invoke(ctx context.Context, name string, body any) (*Envelope, error) {
	req, err := f.client.newRequest(ctx, http.MethodPost, "/functions/v1/"+name, body)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.do(req)
	if err != nil {
		return nil, err
	}
	return &Envelope{function: name, raw: resp.Body}, nil
}

// Envelope is a function answer of the loose {status, data, error} shape.
// Result and the typed accessors turn it into either a payload or an error.
type Envelope struct {
	function string
	raw      []byte
}

func NewEnvelope(function string, raw []byte) *Envelope {
	return &Envelope{function: function, raw: raw}
}

func (e *Envelope) Raw() []byte { return e.raw }

// Result returns the data payload, or the whole body when there is no data
// field. A present error or a false status is a *FunctionError.
func (e *Envelope) Result() (json.RawMessage, error) {
	if len(e.raw) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(e.raw) {
		return nil, fmt.Errorf("%w: %s returned invalid JSON", ErrMalformedResponse, e.function)
	}

	if errField := gjson.GetBytes(e.raw, "error"); errField.Exists() && errField.Type != gjson.Null && errField.Type != gjson.False {
		msg := errField.String()
		if errField.IsObject() {
			msg = errField.Get("message").String()
		}
		return nil, &FunctionError{Function: e.function, Message: msg}
	}

	if status := gjson.GetBytes(e.raw, "status"); status.Exists() && status.Type == gjson.False {
		msg := gjson.GetBytes(e.raw, "message").String()
		if msg == "" {
			msg = "status false"
		}
		return nil, &FunctionError{Function: e.function, Message: msg}
	}

	if data := gjson.GetBytes(e.raw, "data"); data.Exists() {
		return json.RawMessage(data.Raw), nil
	}
	return json.RawMessage(e.raw), nil
}

func (e *Envelope) requireStatus() error {
	if _, err := e.Result(); err != nil {
		return err
	}
	if !gjson.GetBytes(e.raw, "status").Bool() {
		return fmt.Errorf("%w: %s returned no success status", ErrMalformedResponse, e.function)
	}
	return nil
}

type PaymentInit struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference,omitempty"`
}

// PaymentInit requires a true status and an authorization URL. Flutterwave
// style answers carrying data.link are accepted too.
func (e *Envelope) PaymentInit() (*PaymentInit, error) {
	if err := e.requireStatus(); err != nil {
		return nil, err
	}

	data := gjson.GetBytes(e.raw, "data")
	out := &PaymentInit{
		AuthorizationURL: data.Get("authorization_url").String(),
		AccessCode:       data.Get("access_code").String(),
		Reference:        data.Get("reference").String(),
	}
	if out.AuthorizationURL == "" {
		out.AuthorizationURL = data.Get("link").String()
	}
	if out.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %s returned no authorization url", ErrMalformedResponse, e.function)
	}
	return out, nil
}

type Verification struct {
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
}

// Verification requires a true status; data.status carries the gateway's
// verdict.
func (e *Envelope) Verification() (*Verification, error) {
	if err := e.requireStatus(); err != nil {
		return nil, err
	}
	data := gjson.GetBytes(e.raw, "data")
	return &Verification{
		Status:    data.Get("status").String(),
		Reference: data.Get("reference").String(),
	}, nil
}
