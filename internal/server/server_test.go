package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stackfinder/stackfinder/internal/admin"
	"github.com/stackfinder/stackfinder/internal/auth"
	"github.com/stackfinder/stackfinder/internal/authgw"
	"github.com/stackfinder/stackfinder/internal/callback"
	"github.com/stackfinder/stackfinder/internal/config"
	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/redirect"
	"github.com/stackfinder/stackfinder/internal/seo"
	"github.com/stackfinder/stackfinder/internal/textutil"
)

const testSecret = "test-secret"

// fakeAuthProvider stands in for the hosted auth provider: it knows a set of
// live tokens and records sign-out calls.
type fakeAuthProvider struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]authgw.User
	signOuts []string
}

func newFakeAuthProvider(t *testing.T) *fakeAuthProvider {
	t.Helper()

	p := &fakeAuthProvider{users: map[string]authgw.User{}}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		switch r.URL.Path {
		case "/auth/v1/user":
			p.mu.Lock()
			user, ok := p.users[token]
			p.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(user)
		case "/auth/v1/logout":
			p.mu.Lock()
			p.signOuts = append(p.signOuts, token)
			p.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeAuthProvider) addSession(token, userID, email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[token] = authgw.User{ID: userID, Email: email, Role: "authenticated"}
}

func (p *fakeAuthProvider) signOutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signOuts)
}

func testServerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// newTestServer wires a Server against an in-memory database, an in-memory
// redirect store and the fake auth provider. The sitemap cache points at a
// dead address so /sitemap.xml exercises the direct-render path.
func newTestServer(t *testing.T, providerURL string) (*Server, *redirect.MemoryStore) {
	t.Helper()

	db := testServerDB(t)

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	provider, err := authgw.New(providerURL, "test-anon-key")
	require.NoError(t, err)

	zlog := zerolog.Nop()
	adminService := admin.NewService(db, verifier, provider, zlog)
	redirects := redirect.NewMemoryStore()

	routes, err := seo.LoadRegistry()
	require.NoError(t, err)

	validate := validator.New()
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9') ||
				char == '-') {
				return false
			}
		}
		return true
	})

	cfg := &config.Config{
		Site: config.SiteConfig{
			BaseURL:  "https://stackfinder.io",
			AdminURL: "https://admin.stackfinder.io",
		},
	}

	s := &Server{
		db:           db,
		config:       cfg,
		logger:       zlog,
		validator:    validate,
		provider:     provider,
		adminService: adminService,
		redirects:    redirects,
		sitemapCache: seo.NewCache("127.0.0.1:1"),
		metaBuilder:  seo.NewBuilder(cfg.Site.BaseURL),
		routes:       routes,
		adminFlow:    callback.NewAdminFlow(&serviceAuthorizer{svc: adminService}, provider, redirects, zlog),
		publicFlow:   callback.NewPublicFlow(&providerChecker{provider: provider}, zlog),
		imageHosts:   textutil.DefaultImageHosts(),
		version:      "test",
	}
	s.setupRouter()

	return s, redirects
}

func signedToken(t *testing.T, email string) string {
	t.Helper()
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	token, err := verifier.Sign(&auth.Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return token
}

func doRequest(s *Server, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func seedAdmin(t *testing.T, s *Server, email string) {
	t.Helper()
	require.NoError(t, s.db.Create(&models.AdminUser{Email: email, DisplayName: "Ops"}).Error)
}

func seedCatalog(t *testing.T, s *Server) (category models.Category, published models.Product) {
	t.Helper()

	category = models.Category{Slug: "databases", NameEN: "Databases", NameES: "Bases de datos"}
	require.NoError(t, s.db.Create(&category).Error)

	published = models.Product{
		Slug:          "acme-db",
		NameEN:        "Acme DB",
		NameES:        "Acme BD",
		DescriptionEN: "# Acme\n\nA **fast** database. See [docs](https://acme.io/docs).",
		DescriptionES: "# Acme\n\nUna base de datos **rápida**.",
		WebsiteURL:    "https://acme.io",
		ImageURL:      "https://cdn.stackfinder.io/acme.png",
		CategoryID:    category.ID,
		Published:     true,
	}
	require.NoError(t, s.db.Create(&published).Error)

	draft := models.Product{
		Slug:       "hidden-tool",
		NameEN:     "Hidden Tool",
		CategoryID: category.ID,
		Published:  false,
	}
	require.NoError(t, s.db.Create(&draft).Error)

	return category, published
}

func TestHealthCheck(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	w := doRequest(s, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stackfinder-api")
}

func TestAdminCallback_RedirectsToStoredTarget(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, redirects := newTestServer(t, provider.srv.URL)

	seedAdmin(t, s, "admin@stackfinder.io")
	token := signedToken(t, "admin@stackfinder.io")
	provider.addSession(token, "user-1", "admin@stackfinder.io")

	require.NoError(t, redirects.Put(context.Background(), "login-1", "/products/acme-db"))

	w := doRequest(s, http.MethodGet,
		"/api/admin/callback?access_token="+token+"&login_id=login-1", nil, nil)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://admin.stackfinder.io/products/acme-db", w.Header().Get("Location"))
	assert.Equal(t, 0, redirects.Len(), "redirect target must be consumed")
}

func TestAdminCallback_DefaultsToRoot(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	seedAdmin(t, s, "admin@stackfinder.io")
	token := signedToken(t, "admin@stackfinder.io")
	provider.addSession(token, "user-1", "admin@stackfinder.io")

	// No redirect target was ever stored for this login attempt
	w := doRequest(s, http.MethodGet,
		"/api/admin/callback?access_token="+token+"&login_id=login-unknown", nil, nil)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://admin.stackfinder.io/", w.Header().Get("Location"))
}

func TestAdminCallback_DeniedSignsOutAndCleansUp(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, redirects := newTestServer(t, provider.srv.URL)

	// Live provider session, but the email is not on the allow-list
	token := signedToken(t, "stranger@example.com")
	provider.addSession(token, "user-2", "stranger@example.com")

	require.NoError(t, redirects.Put(context.Background(), "login-2", "/settings"))

	w := doRequest(s, http.MethodGet,
		"/api/admin/callback?access_token="+token+"&login_id=login-2", nil, nil)

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp CallbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(callback.StateDenied), resp.State)
	assert.Equal(t, "no access", resp.Message)

	assert.Equal(t, 1, provider.signOutCount(), "denied session must be revoked")
	assert.Equal(t, 0, redirects.Len(), "redirect target must be removed on denial")
}

func TestAdminCallback_NoToken(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	w := doRequest(s, http.MethodGet, "/api/admin/callback?login_id=login-3", nil, nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp CallbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(callback.StateNoSession), resp.State)
	assert.Equal(t, callback.MsgNoSession, resp.Message)
}

func TestAdminCallback_ProviderUnreachable(t *testing.T) {
	provider := newFakeAuthProvider(t)
	providerURL := provider.srv.URL
	provider.srv.Close()

	s, _ := newTestServer(t, providerURL)
	seedAdmin(t, s, "admin@stackfinder.io")
	token := signedToken(t, "admin@stackfinder.io")

	w := doRequest(s, http.MethodGet,
		"/api/admin/callback?access_token="+token+"&login_id=login-4", nil, nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp CallbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(callback.StateNetworkError), resp.State)
}

func TestPublicCallback_RedirectsToLocaleRoot(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	w := doRequest(s, http.MethodGet, "/auth/callback?locale=es", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://stackfinder.io/es", w.Header().Get("Location"))

	// Accept-Language fallback when no locale param is given
	w = doRequest(s, http.MethodGet, "/auth/callback", nil,
		map[string]string{"Accept-Language": "es-MX,es;q=0.9"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://stackfinder.io/es", w.Header().Get("Location"))

	// Unknown locale falls back to the default
	w = doRequest(s, http.MethodGet, "/auth/callback?locale=fr", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://stackfinder.io/en", w.Header().Get("Location"))
}

func TestAdminMe(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	seedAdmin(t, s, "admin@stackfinder.io")
	adminToken := signedToken(t, "admin@stackfinder.io")
	provider.addSession(adminToken, "user-1", "admin@stackfinder.io")

	strangerToken := signedToken(t, "stranger@example.com")
	provider.addSession(strangerToken, "user-2", "stranger@example.com")

	t.Run("allow-listed admin", func(t *testing.T) {
		w := doRequest(s, http.MethodGet, "/api/admin/me", nil,
			map[string]string{"Authorization": "Bearer " + adminToken})

		require.Equal(t, http.StatusOK, w.Code)

		var resp MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, resp.Success)
		require.NotNil(t, resp.Data)
		assert.Equal(t, "admin@stackfinder.io", resp.Data.Email)
		assert.Equal(t, "Ops", resp.Data.DisplayName)
	})

	t.Run("not on allow-list", func(t *testing.T) {
		w := doRequest(s, http.MethodGet, "/api/admin/me", nil,
			map[string]string{"Authorization": "Bearer " + strangerToken})

		require.Equal(t, http.StatusUnauthorized, w.Code)

		var resp MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "no access", resp.Message)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		w := doRequest(s, http.MethodGet, "/api/admin/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListProducts(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)
	seedCatalog(t, s)

	w := doRequest(s, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []ProductView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1, "unpublished products must be hidden")

	view := views[0]
	assert.Equal(t, "Acme DB", view.Name)
	assert.Equal(t, "https://cdn.stackfinder.io/acme.png", view.ImageURL)
	require.NotNil(t, view.Category)
	assert.Equal(t, "Databases", view.Category.Name)

	// The summary is the markdown description reduced to plain text
	assert.NotContains(t, view.Summary, "#")
	assert.NotContains(t, view.Summary, "**")
	assert.NotContains(t, view.Summary, "](")
	assert.Contains(t, view.Summary, "fast")
	assert.Contains(t, view.Summary, "docs")
}

func TestListProducts_SpanishLocale(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)
	seedCatalog(t, s)

	w := doRequest(s, http.MethodGet, "/api/products?locale=es", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []ProductView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Acme BD", views[0].Name)
	assert.Contains(t, views[0].Summary, "rápida")
	assert.Equal(t, "Bases de datos", views[0].Category.Name)
}

func TestListProducts_RejectedImageWithheld(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)
	_, product := seedCatalog(t, s)

	require.NoError(t, s.db.Model(&product).Update("image_rejected", true).Error)

	w := doRequest(s, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []ProductView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Empty(t, views[0].ImageURL)
}

func TestGetProduct(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)
	seedCatalog(t, s)

	w := doRequest(s, http.MethodGet, "/api/products/acme-db", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail ProductDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Acme DB", detail.Name)
	assert.Contains(t, detail.Description, "**fast**", "detail keeps the raw markdown")
	assert.Equal(t, "https://stackfinder.io/en/products/acme-db", detail.Meta.Canonical)

	w = doRequest(s, http.MethodGet, "/api/products/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRobotsTxt(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	w := doRequest(s, http.MethodGet, "/robots.txt", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Disallow: /admin")
	assert.Contains(t, body, "Disallow: /api")
	assert.Contains(t, body, "Sitemap: https://stackfinder.io/sitemap.xml")
}

func TestSitemapXML_RendersOnCacheMiss(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)
	seedCatalog(t, s)

	w := doRequest(s, http.MethodGet, "/sitemap.xml", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<urlset")
	assert.Contains(t, body, "https://stackfinder.io/en/products")
	assert.Contains(t, body, "https://stackfinder.io/es/products")
}

func TestPageMeta(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	w := doRequest(s, http.MethodGet, "/api/meta?path=/products&locale=es", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var meta seo.PageMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "https://stackfinder.io/es/products", meta.Canonical)
	assert.Contains(t, meta.Alternates, "en")

	w = doRequest(s, http.MethodGet, "/api/meta?path=/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateLoginIntent(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, redirects := newTestServer(t, provider.srv.URL)

	body, _ := json.Marshal(LoginIntentRequest{RedirectTo: "/products/acme-db"})
	w := doRequest(s, http.MethodPost, "/api/admin/login-intent", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginIntentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.LoginID)
	assert.Equal(t, 1, redirects.Len())
}

func TestCreateProduct(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	seedAdmin(t, s, "admin@stackfinder.io")
	token := signedToken(t, "admin@stackfinder.io")
	provider.addSession(token, "user-1", "admin@stackfinder.io")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	category := models.Category{Slug: "tools", NameEN: "Tools", NameES: "Herramientas"}
	require.NoError(t, s.db.Create(&category).Error)

	t.Run("rejects bad slug", func(t *testing.T) {
		body, _ := json.Marshal(CreateProductRequest{
			Slug: "Not A Slug", NameEN: "X", CategoryID: category.ID,
		})
		w := doRequest(s, http.MethodPost, "/api/admin/products", body, authHeader)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects disallowed image host", func(t *testing.T) {
		body, _ := json.Marshal(CreateProductRequest{
			Slug: "evil-tool", NameEN: "X", CategoryID: category.ID,
			ImageURL: "https://evil.example.com/x.png",
		})
		w := doRequest(s, http.MethodPost, "/api/admin/products", body, authHeader)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "allow-list")
	})

	t.Run("creates product", func(t *testing.T) {
		body, _ := json.Marshal(CreateProductRequest{
			Slug: "good-tool", NameEN: "Good Tool", CategoryID: category.ID,
			ImageURL: "https://images.unsplash.com/x.png", Published: true,
		})
		w := doRequest(s, http.MethodPost, "/api/admin/products", body, authHeader)
		require.Equal(t, http.StatusCreated, w.Code)

		var created models.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "good-tool", created.Slug)
	})

	t.Run("requires auth", func(t *testing.T) {
		body, _ := json.Marshal(CreateProductRequest{
			Slug: "no-auth", NameEN: "X", CategoryID: category.ID,
		})
		w := doRequest(s, http.MethodPost, "/api/admin/products", body, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRevokeAdmin_CannotRevokeSelf(t *testing.T) {
	provider := newFakeAuthProvider(t)
	s, _ := newTestServer(t, provider.srv.URL)

	seedAdmin(t, s, "admin@stackfinder.io")
	token := signedToken(t, "admin@stackfinder.io")
	provider.addSession(token, "user-1", "admin@stackfinder.io")

	w := doRequest(s, http.MethodDelete, "/api/admin/admins/admin@stackfinder.io", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot revoke yourself")
}
