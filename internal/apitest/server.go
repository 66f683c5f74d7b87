// Package apitest runs an in-process fake of the Keuze Compass REST API for
// tests. It speaks the same contract as the real backend: bare JSON records,
// {message|error} envelopes on failure and HS256 bearer tokens.
package apitest

import (
	"fmt"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"keuzecompass/internal/domain/admin"
	"keuzecompass/internal/domain/vkm"
	"keuzecompass/internal/middleware"
	"keuzecompass/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seeded accounts.
const (
	AdminID       = "1"
	AdminUsername = "admin"
	AdminPassword = "admin12345"

	StudentID       = "2"
	StudentUsername = "user1"
	StudentPassword = "pw123456"
)

var secret = []byte("apitest-secret")

type userRecord struct {
	admin.AdminUser
	passwordHash []byte
}

// Server is a running fake API.
type Server struct {
	*httptest.Server

	Generator *jwt.Generator

	logger          *zap.Logger
	legacyFavorites bool
	calls           atomic.Int64

	mu        sync.Mutex
	nextID    int
	users     map[string]*userRecord
	modules   map[string]*vkm.Module
	favorites map[string]map[string]bool
}

type Option func(*Server)

// WithLegacyFavorites makes GET /auth/users/:id answer with favoriteVkmIds
// instead of embedded favoriteVKMs.
func WithLegacyFavorites() Option {
	return func(s *Server) {
		s.legacyFavorites = true
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer starts a seeded fake API that is closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		Generator: jwt.NewHMACGenerator(secret, time.Hour),
		logger:    zap.NewNop(),
		nextID:    100,
		users:     make(map[string]*userRecord),
		modules:   make(map[string]*vkm.Module),
		favorites: make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed(t)

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// Calls is the number of requests the server received.
func (s *Server) Calls() int64 {
	return s.calls.Load()
}

// Token mints a valid token for a seeded user.
func (s *Server) Token(t testing.TB, username string) string {
	t.Helper()
	s.mu.Lock()
	u := s.userByName(username)
	s.mu.Unlock()
	if u == nil {
		t.Fatalf("apitest: unknown user %q", username)
	}
	tok, err := s.Generator.Generate(identity(u))
	if err != nil {
		t.Fatalf("apitest: sign token: %v", err)
	}
	return tok
}

// ExpiredToken mints a token for a seeded user that expired an hour ago.
func (s *Server) ExpiredToken(t testing.TB, username string) string {
	t.Helper()
	s.mu.Lock()
	u := s.userByName(username)
	s.mu.Unlock()
	if u == nil {
		t.Fatalf("apitest: unknown user %q", username)
	}
	tok, err := s.Generator.GenerateWithExpiry(identity(u), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("apitest: sign token: %v", err)
	}
	return tok
}

// Favorite marks a module as favorite for a user directly.
func (s *Server) Favorite(userID, moduleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggleLocked(userID, moduleID)
}

// Module returns a copy of a stored module.
func (s *Server) Module(id string) (vkm.Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[id]
	if !ok {
		return vkm.Module{}, false
	}
	return *m, true
}

func identity(u *userRecord) jwt.User {
	return jwt.User{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.count(), middleware.RecoveryMiddleware(s.logger), middleware.RequestLogger(s.logger))

	verifier, err := jwt.NewVerifier(secret)
	if err != nil {
		panic(err)
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	auth := r.Group("/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/register", s.register)

		users := auth.Group("/users", authMiddleware.AdminOnly()...)
		users.GET("", s.listUsers)
		users.GET("/:id", s.getUser)
		users.PUT("/:id", s.updateUser)
		users.DELETE("/:id", s.deleteUser)
	}

	modules := r.Group("/vkm", authMiddleware.Auth())
	{
		modules.GET("", s.listModules)
		modules.GET("/favorites", s.listFavorites)
		modules.GET("/recommendations/me", s.recommendations)
		modules.GET("/:id", s.getModule)
		modules.POST("/:id/favorite", s.toggleFavorite)

		modules.POST("", authMiddleware.RequireRole("admin"), s.createModule)
		modules.PUT("/:id", authMiddleware.RequireRole("admin"), s.updateModule)
		modules.DELETE("/:id", authMiddleware.RequireRole("admin"), s.deleteModule)
	}

	return r
}

func (s *Server) count() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.calls.Add(1)
		c.Next()
	}
}

func (s *Server) seed(t testing.TB) {
	t.Helper()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	for _, u := range []struct{ id, name, email, password, role string }{
		{AdminID, AdminUsername, "admin@avans.nl", AdminPassword, "admin"},
		{StudentID, StudentUsername, "user1@student.avans.nl", StudentPassword, "student"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("apitest: hash password: %v", err)
		}
		s.users[u.id] = &userRecord{
			AdminUser:    admin.AdminUser{ID: u.id, Username: u.name, Email: u.email, Role: u.role, CreatedAt: now, UpdatedAt: now},
			passwordHash: hash,
		}
	}

	for i, m := range []vkm.Module{
		{Name: "Data Science", ShortDescription: "Werken met data", Description: "Python, pandas en statistiek.", StudyCredit: vkm.StudyCredit30, Location: vkm.LocationBreda, Level: vkm.LevelNLQF5, IsActive: true},
		{Name: "Ondernemerschap", ShortDescription: "Start je eigen bedrijf", Description: "Businessmodellen en pitchen.", StudyCredit: vkm.StudyCredit15, Location: vkm.LocationTilburg, Level: vkm.LevelNLQF5, IsActive: true},
		{Name: "Security in de praktijk", ShortDescription: "Ethisch hacken", Description: "Pentesten van webapplicaties.", StudyCredit: vkm.StudyCredit30, Location: vkm.LocationDenBosch, Level: vkm.LevelNLQF6, IsActive: true},
		{Name: "Archief: Flash animatie", ShortDescription: "Niet meer aangeboden", Description: "Oude module.", StudyCredit: vkm.StudyCredit15, Location: vkm.LocationBreda, Level: vkm.LevelNLQF5, IsActive: false},
	} {
		m.ID = strconv.Itoa(i + 1)
		m.ContactID = AdminID
		m.LearningOutcomes = "De student kan de stof toepassen."
		m.CreatedAt, m.UpdatedAt = now, now
		mod := m
		s.modules[m.ID] = &mod
	}
}

func (s *Server) newID() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func (s *Server) userByName(username string) *userRecord {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *Server) toggleLocked(userID, moduleID string) bool {
	favs := s.favorites[userID]
	if favs == nil {
		favs = make(map[string]bool)
		s.favorites[userID] = favs
	}
	if favs[moduleID] {
		delete(favs, moduleID)
		return false
	}
	favs[moduleID] = true
	return true
}

// sortedModules returns copies ordered by numeric ID, flagged for userID.
func (s *Server) sortedModules(userID string, keep func(*vkm.Module) bool) []vkm.Module {
	out := make([]vkm.Module, 0, len(s.modules))
	for _, m := range s.modules {
		if keep != nil && !keep(m) {
			continue
		}
		cp := *m
		cp.IsFavorited = s.favorites[userID][m.ID]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}

func notFound(kind, id string) string {
	return fmt.Sprintf("%s %s niet gevonden", kind, id)
}
