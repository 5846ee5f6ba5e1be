package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/convobot/convobot/internal/backend"
	"github.com/convobot/convobot/internal/messages"
	"github.com/convobot/convobot/pkg/dialog"
)

// harness runs one task dialog under a parent that captures its result.
type harness struct {
	t      *testing.T
	runner *dialog.Runner

	got       *Slots
	completed bool
}

func newHarness(t *testing.T, baseURL string, taskID string, opts *Slots) *harness {
	t.Helper()

	catalog := dialog.NewCatalog("", messages.Defaults())
	builder := NewBuilder(backend.New(baseURL), catalog, nil)

	guard := dialog.NewGuard(
		catalog.Render(messages.KeyHelp, nil),
		catalog.Render(messages.KeyCancelled, nil),
	)
	h := &harness{t: t, runner: dialog.NewRunner(dialog.NewMemoryStore(0), guard, nil)}

	parent := dialog.NewWaterfall("parent",
		func(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
			return sc.Begin(taskID, opts)
		},
		func(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
			var s Slots
			ok, err := sc.DecodeResult(&s)
			if err != nil {
				return dialog.Signal{}, err
			}
			h.completed = ok
			if ok {
				h.got = &s
			}
			return sc.End(nil)
		},
	)

	if err := h.runner.Register(builder.All()...); err != nil {
		t.Fatal(err)
	}
	if err := h.runner.Register(parent); err != nil {
		t.Fatal(err)
	}
	if err := h.runner.SetRoot("parent"); err != nil {
		t.Fatal(err)
	}
	return h
}

func (h *harness) start() *dialog.Turn {
	h.t.Helper()
	turn, err := h.runner.Start(context.Background(), "web:task")
	if err != nil {
		h.t.Fatal(err)
	}
	return turn
}

func (h *harness) say(text string) *dialog.Turn {
	h.t.Helper()
	turn, err := h.runner.Resume(context.Background(), "web:task", text)
	if err != nil {
		h.t.Fatal(err)
	}
	return turn
}

func lastReply(t *testing.T, turn *dialog.Turn) dialog.Reply {
	t.Helper()
	replies := turn.Replies()
	if len(replies) == 0 {
		t.Fatal("turn produced no replies")
	}
	return replies[len(replies)-1]
}

func TestChangeAddressElicitsConfirmsAndUpdates(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPut || r.URL.Path != "/address/5" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("Address"); got != "Main St" {
			t.Errorf("Address = %q", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL, ChangeAddressID, nil)

	turn := h.start()
	if got := lastReply(t, turn).Text; got != "What is the User ID?" {
		t.Fatalf("first prompt = %q", got)
	}

	turn = h.say("5")
	if got := lastReply(t, turn).Text; got != "What is the new address?" {
		t.Fatalf("second prompt = %q", got)
	}

	turn = h.say("Main St")
	wantConfirm := "Please confirm, You want to change the address of user id 5 to: Main St. Is this correct?"
	if got := lastReply(t, turn).Text; got != wantConfirm {
		t.Fatalf("confirm prompt = %q", got)
	}

	h.say("yes")
	if calls != 1 {
		t.Fatalf("backend calls = %d, want 1", calls)
	}
	if !h.completed || h.got == nil || h.got.Message == nil {
		t.Fatalf("result = (%v, %+v)", h.completed, h.got)
	}
	want := "The address of given user Id 5 changed to Main St successfully."
	if *h.got.Message != want {
		t.Fatalf("message = %q, want %q", *h.got.Message, want)
	}
}

func TestPrefilledSlotsSkipElicitation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	userID := int64(5)
	address := "Oslo"
	h := newHarness(t, srv.URL, ChangeAddressID, &Slots{UserID: &userID, NewAddress: &address})

	// Both slots are known, so the very first turn is the confirmation.
	turn := h.start()
	replies := turn.Replies()
	if len(replies) != 1 {
		t.Fatalf("replies = %d, want only the confirmation", len(replies))
	}
	want := "Please confirm, You want to change the address of user id 5 to: Oslo. Is this correct?"
	if replies[0].Text != want {
		t.Fatalf("confirm prompt = %q", replies[0].Text)
	}
}

func TestDeclineSkipsBackendCall(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	userID := int64(5)
	email := "new@example.com"
	h := newHarness(t, srv.URL, ChangeEmailID, &Slots{UserID: &userID, NewEmail: &email})

	h.start()
	h.say("no")

	if calls != 0 {
		t.Fatalf("backend calls = %d, want none after decline", calls)
	}
	if h.completed {
		t.Fatal("declined task must end without a result")
	}
}

func TestFaultMessageRelayedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"No user found with the given user Id 42"}`))
	}))
	defer srv.Close()

	userID := int64(42)
	h := newHarness(t, srv.URL, GetEmailID, &Slots{UserID: &userID})

	h.start()
	h.say("yes")

	if !h.completed || h.got == nil || h.got.Message == nil {
		t.Fatalf("result = (%v, %+v)", h.completed, h.got)
	}
	if *h.got.Message != "No user found with the given user Id 42" {
		t.Fatalf("message = %q", *h.got.Message)
	}
}

func TestNetworkFailureEndsWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	userID := int64(5)
	h := newHarness(t, srv.URL, GetAddressID, &Slots{UserID: &userID})

	h.start()
	h.say("yes")

	if h.completed {
		t.Fatal("a call that never reached the service must end the task without a result")
	}
}

func TestGetAddressFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/address/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusFound)
		w.Write([]byte(`{"message":"12 Main St"}`))
	}))
	defer srv.Close()

	userID := int64(7)
	h := newHarness(t, srv.URL, GetAddressID, &Slots{UserID: &userID})

	turn := h.start()
	want := "Please confirm, You want to get the address details of user id 7. Is this correct?"
	if got := lastReply(t, turn).Text; got != want {
		t.Fatalf("confirm prompt = %q", got)
	}

	h.say("yes")
	if h.got == nil || h.got.Message == nil {
		t.Fatalf("result = %+v", h.got)
	}
	if *h.got.Message != "The address of given userId 7 is 12 Main St" {
		t.Fatalf("message = %q", *h.got.Message)
	}
}

func TestGetUserDetailsChoiceFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/details/email/ada@example.com" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusFound)
		w.Write([]byte(`{"userId":9,"userName":"Ada","address":"12 Main St","email":"ada@example.com","birthDate":"1990-01-02"}`))
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL, GetUserDetailsID, nil)

	turn := h.start()
	choice := lastReply(t, turn)
	if choice.Text != "Please select what do you know about user currently ?" {
		t.Fatalf("choice prompt = %q", choice.Text)
	}
	if len(choice.Choices) != 2 || choice.Choices[0] != messages.ChoiceUserID || choice.Choices[1] != messages.ChoiceEmail {
		t.Fatalf("choices = %v", choice.Choices)
	}

	turn = h.say("Email")
	if got := lastReply(t, turn).Text; got != "What is the Email of that User?" {
		t.Fatalf("email prompt = %q", got)
	}

	turn = h.say("ada@example.com")
	confirm := lastReply(t, turn).Text
	if !strings.Contains(confirm, "email ada@example.com") {
		t.Fatalf("confirm prompt = %q", confirm)
	}

	h.say("yes")
	if h.got == nil || h.got.Message == nil {
		t.Fatalf("result = %+v", h.got)
	}
	for _, want := range []string{"User ID : 9", "Name : Ada", "Address : 12 Main St", "Email : ada@example.com", "Date of Birth : 1990-01-02"} {
		if !strings.Contains(*h.got.Message, want) {
			t.Fatalf("message %q missing %q", *h.got.Message, want)
		}
	}
}

func TestGetUserDetailsByIDSkipsChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/details/userId/3" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusFound)
		w.Write([]byte(`{"userId":3,"userName":"Bo","address":"Elm Rd","email":"bo@example.com","birthDate":"1985-06-07"}`))
	}))
	defer srv.Close()

	userID := int64(3)
	h := newHarness(t, srv.URL, GetUserDetailsID, &Slots{UserID: &userID})

	turn := h.start()
	confirm := lastReply(t, turn).Text
	if !strings.Contains(confirm, "user ID 3") {
		t.Fatalf("confirm prompt = %q", confirm)
	}

	h.say("yes")
	if h.got == nil || h.got.Message == nil {
		t.Fatalf("result = %+v", h.got)
	}
	if !strings.Contains(*h.got.Message, "Name : Bo") {
		t.Fatalf("message = %q", *h.got.Message)
	}
}

func TestCancelMidTaskMakesNoBackendCall(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL, ChangeAddressID, nil)

	h.start()
	turn := h.say("cancel")

	if calls != 0 {
		t.Fatalf("backend calls = %d, want none", calls)
	}
	if h.completed {
		t.Fatal("cancelled task must end without a result")
	}
	if got := turn.Replies()[0].Text; got != "Cancelling..." {
		t.Fatalf("cancel reply = %q", got)
	}
}
