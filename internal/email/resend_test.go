package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResendSend(t *testing.T) {
	var gotAuth, gotContentType string
	var gotPayload resendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, err := NewResend(ResendConfig{APIKey: "re_test_key", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	err = sender.Send(context.Background(), Message{
		To:      "dana@example.com",
		Subject: "Order Update",
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer re_test_key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %q", gotContentType)
	}
	if gotPayload.From != defaultFromEmail {
		t.Errorf("from = %q", gotPayload.From)
	}
	if len(gotPayload.To) != 1 || gotPayload.To[0] != "dana@example.com" {
		t.Errorf("to = %v", gotPayload.To)
	}
	if gotPayload.Subject != "Order Update" || gotPayload.HTML != "<p>hi</p>" {
		t.Errorf("payload = %+v", gotPayload)
	}
}

func TestResendSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer server.Close()

	sender, err := NewResend(ResendConfig{APIKey: "re_test_key", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	err = sender.Send(context.Background(), Message{To: "bad", Subject: "s", HTML: "h"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error = %v, want status code included", err)
	}
}

func TestResendRequiresAPIKey(t *testing.T) {
	if _, err := NewResend(ResendConfig{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestResendRequiresRecipient(t *testing.T) {
	sender, err := NewResend(ResendConfig{APIKey: "re_test_key"})
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.Send(context.Background(), Message{Subject: "s"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}
