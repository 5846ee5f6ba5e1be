package recognizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecognizeParsesPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/luis/prediction/v3.0/apps/app-1/slots/production/predict" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("subscription-key"); got != "key-1" {
			t.Errorf("subscription-key = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "change address of user 5 to Oslo" {
			t.Errorf("query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"prediction": {
				"topIntent": "ChangeAddress",
				"entities": {
					"number": [5],
					"geographyV2": [{"location": "Oslo"}]
				}
			}
		}`))
	}))
	defer srv.Close()

	client := New(Config{AppID: "app-1", APIKey: "key-1", Hostname: srv.URL})
	if !client.IsConfigured() {
		t.Fatal("client should be configured")
	}

	result, err := client.Recognize(context.Background(), "change address of user 5 to Oslo")
	if err != nil {
		t.Fatal(err)
	}
	if result.TopIntent != IntentChangeAddress {
		t.Fatalf("intent = %v", result.TopIntent)
	}
	if result.Entities.UserID == nil || *result.Entities.UserID != 5 {
		t.Fatalf("user id = %v", result.Entities.UserID)
	}
	if result.Entities.Geography == nil || *result.Entities.Geography != "Oslo" {
		t.Fatalf("geography = %v", result.Entities.Geography)
	}
	if result.Entities.Email != nil {
		t.Fatalf("email = %v", *result.Entities.Email)
	}
}

func TestRecognizeUnknownIntentMapsToNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction":{"topIntent":"BookFlight","entities":{}}}`))
	}))
	defer srv.Close()

	client := New(Config{AppID: "a", APIKey: "k", Hostname: srv.URL})
	result, err := client.Recognize(context.Background(), "book me a flight")
	if err != nil {
		t.Fatal(err)
	}
	if result.TopIntent != IntentNone {
		t.Fatalf("intent = %v, want None", result.TopIntent)
	}
}

func TestRecognizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(Config{AppID: "a", APIKey: "k", Hostname: srv.URL})
	if _, err := client.Recognize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := New(Config{AppID: "a"})
	if client.IsConfigured() {
		t.Fatal("partial config must not be considered configured")
	}
	if _, err := client.Recognize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}

func TestIntentStrings(t *testing.T) {
	cases := map[Intent]string{
		IntentNone:           "None",
		IntentChangeAddress:  "ChangeAddress",
		IntentChangeEmail:    "ChangeEmail",
		IntentGetUserDetails: "GetUserDetails",
		IntentGetAddress:     "GetAddress",
		IntentGetEmail:       "GetEmail",
	}
	for intent, name := range cases {
		if intent.String() != name {
			t.Errorf("%d.String() = %q, want %q", intent, intent.String(), name)
		}
		if parseIntent(name) != intent {
			t.Errorf("parseIntent(%q) = %v", name, parseIntent(name))
		}
	}
}
