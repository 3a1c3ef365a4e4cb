package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/supavault/internal/identity/usecase"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
	"github.com/shandysiswandi/supavault/internal/pkg/router"
	"github.com/shandysiswandi/supavault/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUC struct {
	issued   usecase.IssueChallengeInput
	verified usecase.VerifyInput
	issueErr error
	verifyOK bool
}

func (s *stubUC) IssueChallenge(_ context.Context, in usecase.IssueChallengeInput) (*usecase.IssueChallengeOutput, error) {
	s.issued = in
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return &usecase.IssueChallengeOutput{ID: "01J0000000000000000000000A", Username: "Carol"}, nil
}

func (s *stubUC) Verify(_ context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error) {
	s.verified = in
	if !s.verifyOK {
		return nil, goerror.NewBusiness("Verification failed", goerror.CodeBadRequest)
	}
	return &usecase.VerifyOutput{UserID: 42, Token: "signed.jwt.token", ExpiresIn: 7 * 24 * time.Hour}, nil
}

func (s *stubUC) Me(ctx context.Context) (*usecase.MeOutput, error) {
	clm := jwt.GetAuth(ctx)
	return &usecase.MeOutput{ID: clm.UserID, Username: "Carol", Email: "carol@example.com"}, nil
}

func (s *stubUC) Logout(context.Context) error { return nil }

func (s *stubUC) SearchUsers(context.Context, usecase.SearchUsersInput) ([]usecase.SearchUsersItem, error) {
	return []usecase.SearchUsersItem{{ID: 7, Username: "Bob", Email: "b@example.com"}}, nil
}

func (s *stubUC) SeedUsers(context.Context) (*usecase.SeedUsersOutput, error) {
	return &usecase.SeedUsersOutput{Created: 5}, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T, uc *stubUC, opt Options) (http.Handler, jwt.JWT) {
	t.Helper()

	token, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		Issuer: "supavault-test",
		TTL:    7 * 24 * time.Hour,
		Clock:  fixedClock{now: time.Now().UTC()},
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		UUID:       uid.NewUUID(),
		JWT:        token,
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc, opt)

	return r, token
}

func do(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestVerify_SetsSessionCookie(t *testing.T) {
	// Arrange
	uc := &stubUC{verifyOK: true}
	h, _ := newTestServer(t, uc, Options{Cookie: CookieConfig{Secure: true}})

	// Act
	rec := do(t, h, http.MethodPost, "/api/v1/identity/otp/verify",
		`{"otp_code":"004912","username":"Carol","otp_id":"01J0000000000000000000000A","email":"carol@example.com"}`)

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	assert.Equal(t, usecase.VerifyInput{OtpID: "01J0000000000000000000000A", Username: "Carol", Email: "carol@example.com", OtpCode: "004912"}, uc.verified)

	setCookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=signed.jwt.token")
	assert.Contains(t, setCookie, "Path=/")
	assert.Contains(t, setCookie, "Max-Age=604800")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.Contains(t, setCookie, "Secure")
	assert.Contains(t, setCookie, "SameSite=Lax")

	var body struct {
		Data struct {
			Success bool `json:"success"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Success)
}

func TestVerify_FailureHasNoCookie(t *testing.T) {
	h, _ := newTestServer(t, &stubUC{}, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/identity/otp/verify",
		`{"otp_code":"000000","username":"Bob","otp_id":"x","email":"b@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
	assert.JSONEq(t, `{"message":"Verification failed"}`, rec.Body.String())
}

func TestVerify_InsecureCookieOutsideProduction(t *testing.T) {
	h, _ := newTestServer(t, &stubUC{verifyOK: true}, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/identity/otp/verify",
		`{"otp_code":"1","username":"a","otp_id":"b","email":"c"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Header().Get("Set-Cookie"), "Secure")
}

func TestIssueEndpoints_ForwardMode(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantMode string
		wantUser string
	}{
		{name: "otp request", path: "/api/v1/identity/otp/request", body: `{"mode":"signup","username":"Carol","email":"c@example.com"}`, wantMode: "signup", wantUser: "Carol"},
		{name: "signup", path: "/api/v1/identity/signup", body: `{"username":"Carol","email":"c@example.com"}`, wantMode: "signup", wantUser: "Carol"},
		{name: "login", path: "/api/v1/identity/login", body: `{"email":"c@example.com"}`, wantMode: "login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUC{}
			h, _ := newTestServer(t, uc, Options{})

			rec := do(t, h, http.MethodPost, tt.path, tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantMode, uc.issued.Mode)
			assert.Equal(t, tt.wantUser, uc.issued.Username)
			assert.Equal(t, "c@example.com", uc.issued.Email)
			assert.JSONEq(t,
				`{"message":"Verification code sent","data":{"id":"01J0000000000000000000000A","username":"Carol"}}`,
				rec.Body.String())
		})
	}
}

func TestIssue_DeliveryFailureIs502(t *testing.T) {
	uc := &stubUC{issueErr: goerror.NewUpstream(assert.AnError, "Failed to deliver verification code")}
	h, _ := newTestServer(t, uc, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/identity/login", `{"email":"c@example.com"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to deliver verification code"}`, rec.Body.String())
}

func TestIssue_MalformedBody(t *testing.T) {
	h, _ := newTestServer(t, &stubUC{}, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/identity/login", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe_RequiresSession(t *testing.T) {
	// Arrange
	h, token := newTestServer(t, &stubUC{}, Options{})
	signed, err := token.Generate(42)
	require.NoError(t, err)

	// Act
	anonymous := do(t, h, http.MethodGet, "/api/v1/identity/me", "")
	tampered := do(t, h, http.MethodGet, "/api/v1/identity/me", "", &http.Cookie{Name: "token", Value: signed + "x"})
	authed := do(t, h, http.MethodGet, "/api/v1/identity/me", "", &http.Cookie{Name: "token", Value: signed})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, anonymous.Body.String())
	assert.Equal(t, http.StatusUnauthorized, tampered.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, tampered.Body.String())
	require.Equal(t, http.StatusOK, authed.Code)
	assert.JSONEq(t,
		`{"message":"request has been successfully","data":{"id":"42","username":"Carol","email":"carol@example.com"}}`,
		authed.Body.String())
}

func TestLogout_ClearsCookie(t *testing.T) {
	h, _ := newTestServer(t, &stubUC{}, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/identity/logout", "")

	require.Equal(t, http.StatusOK, rec.Code)
	setCookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=;")
	assert.Contains(t, setCookie, "Max-Age=0")
	assert.Contains(t, setCookie, "HttpOnly")
}

func TestSearchUsers(t *testing.T) {
	h, token := newTestServer(t, &stubUC{}, Options{})
	signed, err := token.Generate(1)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/v1/identity/users?search=bo", "", &http.Cookie{Name: "token", Value: signed})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"message":"request has been successfully","data":[{"id":"7","username":"Bob","email":"b@example.com"}],"meta":{"count":1}}`,
		rec.Body.String())
}

func TestSeedUsers_OnlyWhenEnabled(t *testing.T) {
	disabled, _ := newTestServer(t, &stubUC{}, Options{})
	enabled, _ := newTestServer(t, &stubUC{}, Options{SeedEnabled: true})

	off := do(t, disabled, http.MethodPost, "/api/v1/identity/dev/seed-users", "")
	on := do(t, enabled, http.MethodPost, "/api/v1/identity/dev/seed-users", "")

	assert.Equal(t, http.StatusNotFound, off.Code)
	require.Equal(t, http.StatusOK, on.Code)
	assert.JSONEq(t, `{"message":"Demo users seeded","data":{"created":5}}`, on.Body.String())
}
