package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "dana@example.com" || pass != "secret" {
				t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
			}
			if got := r.Header.Get("Accept"); got != "application/json" {
				t.Errorf("Accept = %q", got)
			}
			json.NewEncoder(w).Encode(Myself{DisplayName: "Dana"})
		},
	))
	defer srv.Close()

	client := NewClient(srv.URL, "dana@example.com", "secret")

	var me Myself
	if err := client.Get(context.Background(), "/rest/api/2/myself", &me); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if me.DisplayName != "Dana" {
		t.Errorf("DisplayName = %q, want Dana", me.DisplayName)
	}
}

func TestClientRetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts <= 2 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			json.NewEncoder(w).Encode(Myself{DisplayName: "Dana"})
		},
	))
	defer srv.Close()

	client := NewClient(srv.URL, "u", "t")

	var me Myself
	if err := client.Get(context.Background(), "/x", &me); err != nil {
		t.Fatalf("Get after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		},
	))
	defer srv.Close()

	client := NewClient(srv.URL, "u", "t")

	err := client.Get(context.Background(), "/x", nil)
	if err == nil || !strings.Contains(err.Error(), "max retries") {
		t.Errorf("err = %v, want max retries error", err)
	}
}

func TestClientDecodesJiraError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				ErrorMessages: []string{"Field 'priority' is required."},
			})
		},
	))
	defer srv.Close()

	client := NewClient(srv.URL, "u", "t")

	err := client.Post(context.Background(), "/x", map[string]string{}, nil)
	if err == nil || !strings.Contains(err.Error(), "priority") {
		t.Errorf("err = %v, want the Jira error message surfaced", err)
	}
}

func TestClientReports401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	))
	defer srv.Close()

	client := NewClient(srv.URL, "u", "bad-token")

	err := client.Get(context.Background(), "/x", nil)
	if err == nil || !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("err = %v, want authentication failure", err)
	}
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://jira.example.com/", "u", "t")
	if client.BaseURL() != "https://jira.example.com" {
		t.Errorf("BaseURL = %q", client.BaseURL())
	}
}
