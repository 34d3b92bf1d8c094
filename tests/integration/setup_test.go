package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fintrack/internal/attachments"
	"fintrack/internal/handlers"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB      *gorm.DB
	Router  *gin.Engine
	Uploads *attachments.Store
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated
// in-memory SQLite and an upload directory scoped to the test.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	store, err := attachments.NewStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("failed to create attachment store: %v", err)
	}

	// Services
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db, store)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, store, auditService)

	// Router, wired the same way the server binary wires it
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	router.Static("/uploads", store.Dir())

	api := router.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/transactions/:userId", transactionHandler.GetUserTransactions)
	protected.GET("/stats/:userId", transactionHandler.GetStats)
	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	return &testApp{DB: db, Router: router, Uploads: store}
}

// request makes a JSON request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// multipartRequest posts the given form fields, plus an optional PDF
// receipt, the way the browser client submits new transactions.
func (app *testApp) multipartRequest(t *testing.T, path string, fields map[string]string, receipt []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	return app.multipartRequestWithFile(t, path, fields, "receipt.pdf", "application/pdf", receipt, token)
}

// multipartRequestWithFile is multipartRequest with control over the
// uploaded part's name and content type, for exercising rejections.
func (app *testApp) multipartRequestWithFile(t *testing.T, path string, fields map[string]string, filename, contentType string, receipt []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}
	if receipt != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="receipt"; filename=%q`, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create receipt part: %v", err)
		}
		if _, err := part.Write(receipt); err != nil {
			t.Fatalf("failed to write receipt: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// parseJSONList parses the response body into a list of maps.
func parseJSONList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var result []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// assertErrorCode checks the structured error envelope for a code.
func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %s", rec.Body.String())
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}

// registerUser registers a new user and returns the new user ID.
func (app *testApp) registerUser(t *testing.T, name, email, password string) uint {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":%q}`, name, email, password)
	rec := app.request("POST", "/api/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	id, ok := result["userId"].(float64)
	if !ok || id == 0 {
		t.Fatalf("expected a userId in register response, got: %s", rec.Body.String())
	}
	return uint(id)
}

// loginUser logs in and returns the session token.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	token, ok := result["token"].(string)
	if !ok || token == "" {
		t.Fatalf("expected a token in login response, got: %s", rec.Body.String())
	}
	return token
}

// signupAndLogin registers a fresh user and returns its ID and a token.
func (app *testApp) signupAndLogin(t *testing.T, name, email string) (uint, string) {
	t.Helper()
	userID := app.registerUser(t, name, email, "password123")
	token := app.loginUser(t, email, "password123")
	return userID, token
}

// transactionForm builds a valid create form for the given user,
// letting tests override individual fields.
func transactionForm(userID uint, overrides map[string]string) map[string]string {
	fields := map[string]string{
		"userId":      fmt.Sprintf("%d", userID),
		"type":        "receita",
		"description": "Salário",
		"category":    "Trabalho",
		"amount":      "1000.00",
		"date":        "2024-01-01",
	}
	for key, value := range overrides {
		fields[key] = value
	}
	return fields
}
