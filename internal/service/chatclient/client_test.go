package chatclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/service/chatclient"
)

func TestSendPostsJSONToChatPath(t *testing.T) {
	var got chat.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat" {
			t.Errorf("expected /chat, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode err: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Hello!"}`))
	}))
	defer srv.Close()

	client := chatclient.New(srv.Client())
	req := chat.Request{
		Message:             "Hi",
		ConversationHistory: []chat.Entry{{Role: chat.RoleUser, Content: "Hi"}},
	}

	resp, err := client.Send(context.Background(), srv.URL+"/", req)
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if resp.Response != "Hello!" {
		t.Fatalf("unexpected response %q", resp.Response)
	}
	if got.Message != "Hi" || len(got.ConversationHistory) != 1 {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestSendReturnsStatusErrorForNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := chatclient.New(srv.Client()).Send(context.Background(), srv.URL, chat.Request{Message: "Hi"})
	if !errors.Is(err, chatclient.ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}

	var statusErr *chatclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %v", err)
	}
}

func TestSendRejectsMalformedBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing response": `{"reply":"hi"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := chatclient.New(srv.Client()).Send(context.Background(), srv.URL, chat.Request{Message: "Hi"})
			if !errors.Is(err, chatclient.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestSendSurfacesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := chatclient.New(nil).Send(context.Background(), url, chat.Request{Message: "Hi"}); err == nil {
		t.Fatal("expected error for closed server")
	}
}
