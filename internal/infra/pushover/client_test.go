package pushover_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-tutor/internal/domain"
	"voice-tutor/internal/infra/pushover"
)

func TestClient_Alert(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		form = map[string]string{
			"token":   r.PostForm.Get("token"),
			"user":    r.PostForm.Get("user"),
			"title":   r.PostForm.Get("title"),
			"message": r.PostForm.Get("message"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := pushover.NewClient("app", "user").WithURL(server.URL)
	if err := client.Alert(context.Background(), domain.NetworkAlert()); err != nil {
		t.Fatalf("alert: %v", err)
	}

	if form["token"] != "app" || form["user"] != "user" {
		t.Errorf("credentials: got %v", form)
	}
	if form["message"] != domain.NetworkAlert().Message {
		t.Errorf("message: got %q", form["message"])
	}
}

func TestClient_DisabledWithoutCredentials(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := pushover.NewClient("", "").WithURL(server.URL)
	if err := client.Alert(context.Background(), domain.PermissionAlert()); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if called {
		t.Error("disabled client should not send")
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := pushover.NewClient("app", "user").WithURL(server.URL)
	if err := client.Alert(context.Background(), domain.NetworkAlert()); err == nil {
		t.Error("expected error")
	}
}
