package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWishReviewedEmail_PostsToSendgrid(t *testing.T) {
	var gotAuth, gotPath string
	var body map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewEmailService(Config{
		APIKey:    "SG.test",
		FromName:  "MentorHub",
		FromEmail: "noreply@mentorhub.test",
		Host:      srv.URL,
	}, zerolog.Nop())

	err := svc.SendWishReviewedEmail(context.Background(), "ada@mentorhub.test", "Ada", "Robot kit", true, "enjoy")
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.test", gotAuth)
	assert.Equal(t, "/v3/mail/send", gotPath)
	personalizations := body["personalizations"].([]interface{})
	require.Len(t, personalizations, 1)
	assert.Equal(t, `Your wish "Robot kit" was approved`, personalizations[0].(map[string]interface{})["subject"])
}

func TestSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewEmailService(Config{APIKey: "bad", Host: srv.URL}, zerolog.Nop())
	err := svc.SendWelcomeEmail(context.Background(), "a@b.c", "A", "STUDENT")
	assert.Error(t, err)
}

func TestSend_NoAPIKeyIsNoop(t *testing.T) {
	svc := NewEmailService(Config{}, zerolog.Nop())
	assert.NoError(t, svc.SendWelcomeEmail(context.Background(), "a@b.c", "A", "STUDENT"))
}
