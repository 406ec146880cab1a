package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// Navigator moves the user to another page, typically /login after the
// session was torn down.
type Navigator func(path string)

// Request describes one backend call.
type Request struct {
	Method string
	// Path is relative to the gateway base URL, e.g. /commerce/cart/.
	Path  string
	Query url.Values
	// Body is encoded as JSON. Ignored when Form is set.
	Body any
	Form *Form
	// Navigate overrides the navigator carried by the context.
	Navigate Navigator
}

// Form is a multipart/form-data body.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile is one file part of a Form.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// encode renders the body once so the request can be issued again after a
// refresh.
func (r Request) encode() (payload []byte, contentType string, err error) {
	if r.Form != nil {
		return r.Form.encode()
	}
	if r.Body == nil {
		return nil, "application/json", nil
	}
	payload, err = json.Marshal(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode %s %s body: %w", r.Method, r.Path, err)
	}
	return payload, "application/json", nil
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, value := range f.Fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.Field), escapeQuotes(file.Filename)))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", file.Field, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

type navigatorKey struct{}

type navigatorValue struct {
	nav Navigator
}

// WithNavigator returns a context whose requests redirect through nav when
// the session is torn down.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, navigatorValue{nav: nav})
}

// WithoutNavigator returns a context whose requests never navigate, even if
// a parent context carries a navigator.
func WithoutNavigator(ctx context.Context) context.Context {
	return context.WithValue(ctx, navigatorKey{}, navigatorValue{})
}

func navigatorFor(ctx context.Context, req Request) Navigator {
	if req.Navigate != nil {
		return req.Navigate
	}
	if v, ok := ctx.Value(navigatorKey{}).(navigatorValue); ok {
		return v.nav
	}
	return nil
}
