package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/ToolCatalog/internal/auth"
	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/event"
	"github.com/utafrali/ToolCatalog/internal/repository/memory"
	"github.com/utafrali/ToolCatalog/internal/service"
	"github.com/utafrali/ToolCatalog/pkg/health"
	"github.com/utafrali/ToolCatalog/pkg/middleware"
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	auth    *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg, "test")
	producer := event.NewProducer(event.NewLogPublisher(logger), logger)
	tokens := auth.NewTokenManager("router-test-secret-long-enough-for-hs256", 7*24*time.Hour)
	store := memory.NewStore()

	access := service.NewAccessControl(tokens, store.Users(), logger)
	aggregator := service.NewRatingAggregator(store.UnitOfWork(), nil, producer, metrics, logger)
	svc := Services{
		Auth:    service.NewAuthService(store.Users(), auth.NewPasswordHasher(bcrypt.MinCost), tokens, producer, metrics, logger),
		Access:  access,
		Tools:   service.NewToolService(store.Tools(), nil, logger),
		Reviews: service.NewReviewService(store.Reviews(), store.Tools(), store.UnitOfWork(), access, aggregator, producer, metrics, logger),
		Stats:   service.NewStatsService(store.Tools(), store.Reviews()),
	}

	h := NewRouter(svc, RouterConfig{
		Logger:          logger,
		Health:          health.NewHandler(),
		HTTPMetrics:     middleware.NewHTTPMetrics(reg, "test"),
		AuthRateLimiter: middleware.NewRateLimiter(1000, 1000, logger),
		CORS:            middleware.CORSConfig{AllowedOrigins: []string{"*"}},
		RequestTimeout:  5 * time.Second,
	})
	return &testServer{handler: h, store: store, auth: svc.Auth}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.auth.EnsureAdmin(context.Background(), "admin@example.com", "adminpass")
	require.NoError(t, err)
	return s.login(t, "admin@example.com", "adminpass")
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[SessionResponse](t, env.Data).Token
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "name": "Someone", "password": "secret1", "confirm_password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SessionResponse](t, env.Data).Token
}

func (s *testServer) createTool(t *testing.T, adminToken, name string) domain.Tool {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/tools", adminToken, map[string]any{
		"name": name, "use_case": "Speech to text", "category": "Audio", "pricing_model": "Free",
		"average_rating": 5, "review_count": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Tool](t, env.Data)
}

func TestScenario_RegisterLoginSubmitApproveList(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	tool := s.createTool(t, admin, "Whisper")

	s.register(t, "alice@example.com")
	alice := s.login(t, "alice@example.com", "secret1")

	rec, env := s.do(t, http.MethodPost, "/api/v1/reviews", alice, map[string]any{
		"tool_id": tool.ID, "rating": 5, "comment": "great",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode[domain.Review](t, env.Data)
	assert.Equal(t, domain.ReviewPending, review.Status)
	assert.Equal(t, "Whisper", review.ToolName)

	rec, env = s.do(t, http.MethodGet, "/api/v1/reviews?tool_id="+tool.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.Review](t, env.Data))

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/reviews/"+review.ID, alice, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodPatch, "/api/v1/reviews/"+review.ID, admin, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ReviewApproved, decode[domain.Review](t, env.Data).Status)

	rec, env = s.do(t, http.MethodGet, "/api/v1/reviews?tool_id="+tool.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]domain.Review](t, env.Data)
	require.Len(t, listed, 1)
	assert.Equal(t, review.ID, listed[0].ID)

	rec, env = s.do(t, http.MethodGet, "/api/v1/tools/"+tool.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Tool](t, env.Data)
	assert.Equal(t, 5.0, got.AverageRating)
	assert.Equal(t, 1, got.ReviewCount)
}

func TestCreateTool_IgnoresRatingFields(t *testing.T) {
	s := newTestServer(t)
	tool := s.createTool(t, s.adminToken(t), "Whisper")

	assert.Zero(t, tool.AverageRating)
	assert.Zero(t, tool.ReviewCount)
}

func TestSubmitReview_Errors(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	tool := s.createTool(t, admin, "Whisper")
	user := s.register(t, "bob@example.com")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/reviews", "", map[string]any{"tool_id": tool.ID, "rating": 3})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, rating := range []int{0, 6} {
		rec, env := s.do(t, http.MethodPost, "/api/v1/reviews", user, map[string]any{"tool_id": tool.ID, "rating": rating})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/reviews", user, map[string]any{
		"tool_id": "6f1c2f5e-0000-4000-8000-000000000000", "rating": 3,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/reviews", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.Review](t, env.Data))
}

func TestListReviews_NonAdminCannotRequestPending(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "carol@example.com")

	rec, _ := s.do(t, http.MethodGet, "/api/v1/reviews?status=pending", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/reviews?status=pending", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/reviews", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListReviews_MalformedToolID(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	for _, token := range []string{"", admin} {
		rec, env := s.do(t, http.MethodGet, "/api/v1/reviews?tool_id=not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	}
}

func TestModerate_InvalidStatus(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	tool := s.createTool(t, admin, "Whisper")
	user := s.register(t, "dave@example.com")

	_, env := s.do(t, http.MethodPost, "/api/v1/reviews", user, map[string]any{"tool_id": tool.ID, "rating": 4})
	review := decode[domain.Review](t, env.Data)

	rec, _ := s.do(t, http.MethodPatch, "/api/v1/reviews/"+review.ID, admin, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/reviews/6f1c2f5e-0000-4000-8000-000000000000", admin, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "x@example.com", "name": "X", "password": "secret1", "confirm_password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "x@example.com", "name": "X", "password": "12345", "confirm_password": "12345",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.register(t, "x@example.com")
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "x@example.com", "name": "X", "password": "secret1", "confirm_password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "erin@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "erin@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "frank@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, string(env.Data), "password")
	assert.Equal(t, "frank@example.com", decode[domain.User](t, env.Data).Email)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToolAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	user := s.register(t, "gina@example.com")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/tools", user, map[string]string{
		"name": "X", "use_case": "y", "category": "Audio", "pricing_model": "Free",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/tools", admin, map[string]string{
		"name": "X", "use_case": "y", "category": "Crypto", "pricing_model": "Free",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tool := s.createTool(t, admin, "Whisper")
	rec, env := s.do(t, http.MethodPut, "/api/v1/tools/"+tool.ID, admin, map[string]string{
		"name": "Whisper v3", "use_case": "Speech to text", "category": "Audio", "pricing_model": "Paid",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Paid", decode[domain.Tool](t, env.Data).PricingModel)

	rec, env = s.do(t, http.MethodGet, "/api/v1/tools?pricing=Paid", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Whisper v3")

	rec, _ = s.do(t, http.MethodGet, "/api/v1/tools?min_rating=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/tools/"+tool.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/tools/"+tool.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/tools/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnumerationsAndStats(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	user := s.register(t, "hank@example.com")
	s.createTool(t, admin, "Whisper")

	rec, env := s.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Categories(), decode[[]string](t, env.Data))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec, env = s.do(t, http.MethodGet, "/api/v1/pricing-models", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Free", "Paid", "Subscription"}, decode[[]string](t, env.Data))

	rec, _ = s.do(t, http.MethodGet, "/api/v1/stats", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[domain.Stats](t, env.Data).TotalTools)
}

func TestHealthLive(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
