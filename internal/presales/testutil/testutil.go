package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/lymau/lead-app/internal/config"
	"github.com/lymau/lead-app/internal/database"
	"github.com/lymau/lead-app/internal/middleware"
	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository/memstore"
	"gorm.io/gorm"
)

const (
	JWTSecret = "presales-test-secret"
	JWTIssuer = "presales-app"
)

// Fixture users.
const (
	UserAlice = "alice" // NET_TEAM, PAM Budi
	UserDina  = "dina"  // DC_TEAM, flexible PAM
	UserBoss  = "boss"  // TOP_MGMT
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the directory holding go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens a migrated sqlite database in a per-test temp dir. Set
// TEST_LOG_LEVEL=debug in .env to see SQL.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	cfg := config.DatabaseConfig{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "presales.db"),
	}
	db, err := database.Open(cfg, os.Getenv("TEST_LOG_LEVEL"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

// Master data shared by the gorm and in-memory fixtures.
var (
	Pillars = []entity.MasterPillar{
		{PillarName: "Network", SolutionName: "WLAN", ServiceName: "Design", PillarID: "NW", SolutionID: "1", ServiceID: "D1"},
		{PillarName: "Network", SolutionName: "WLAN", ServiceName: "Install", PillarID: "NW", SolutionID: "1", ServiceID: "I1"},
		{PillarName: "Data Center", SolutionName: "Compute", ServiceName: "Design", PillarID: "DC", SolutionID: "2", ServiceID: "D1"},
		{PillarName: "Maintenance Services", SolutionName: "Support", ServiceName: "Annual", PillarID: "MS", SolutionID: "3", ServiceID: "A1"},
	}
	Brands = []entity.Brand{
		{BrandName: "Cisco", BrandID: "CSC", Channel: "Distributor"},
		{BrandName: "Cisco", BrandID: "CSC", Channel: "Direct"},
		{BrandName: "Juniper", BrandID: "JNP"},
		{BrandName: "Fortinet", BrandID: "FTN", Channel: "Distributor"},
	}
	PresalesStaff = []entity.Presales{
		{PresalesName: UserAlice, Email: "alice@example.com", AccessGroup: "NET_TEAM"},
		{PresalesName: UserDina, Email: "dina@example.com", AccessGroup: "DC_TEAM"},
		{PresalesName: UserBoss, Email: "boss@example.com", AccessGroup: "TOP_MGMT"},
	}
	PAMs = []entity.MappingPAM{
		{InputterName: UserAlice, PAMName: "Budi"},
		{InputterName: UserDina, PAMName: "FLEKSIBEL"},
	}
)

// SeedMaster writes the master fixtures into db.
func SeedMaster(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, rows := range []interface{}{&Pillars, &Brands, &PresalesStaff, &PAMs} {
		if err := db.Create(copyRows(rows)).Error; err != nil {
			t.Fatalf("Failed to seed master data: %v", err)
		}
	}
}

// copyRows keeps gorm from writing generated ids back into the shared fixtures.
func copyRows(rows interface{}) interface{} {
	switch v := rows.(type) {
	case *[]entity.MasterPillar:
		return append([]entity.MasterPillar(nil), *v...)
	case *[]entity.Brand:
		return append([]entity.Brand(nil), *v...)
	case *[]entity.Presales:
		return append([]entity.Presales(nil), *v...)
	case *[]entity.MappingPAM:
		return append([]entity.MappingPAM(nil), *v...)
	}
	panic(fmt.Sprintf("unexpected fixture type %T", rows))
}

// NewMemStore returns an in-memory store holding the master fixtures.
func NewMemStore() *memstore.Store {
	s := memstore.New()
	for _, p := range Pillars {
		s.PutPillar(p)
	}
	for _, b := range Brands {
		s.PutBrand(b)
	}
	for _, p := range PresalesStaff {
		s.PutPresales(p)
	}
	for _, m := range PAMs {
		s.PutPAM(m.InputterName, m.PAMName)
	}
	return s
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group behind JWT auth
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret, JWTIssuer))
}

// GenerateTestToken signs a token acting as presales user name
func GenerateTestToken(name string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   name,
		"uid":   "uid-" + name,
		"name":  name,
		"email": name + "@example.com",
		"roles": []string{"presales"},
		"iss":   JWTIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON envelope into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}
