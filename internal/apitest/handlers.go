package apitest

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"keuzecompass/internal/domain/admin"
	"keuzecompass/internal/domain/vkm"
	"keuzecompass/internal/middleware"
	"keuzecompass/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// ========== Auth ==========

func (s *Server) login(c *gin.Context) {
	var req loginBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Gebruikersnaam en wachtwoord zijn verplicht", err)
		return
	}

	s.mu.Lock()
	u := s.userByName(req.Username)
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		response.Unauthorized(c, "Ongeldige gebruikersnaam of wachtwoord")
		return
	}

	token, err := s.Generator.Generate(identity(u))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "token signing failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"access_token": token})
}

func (s *Server) register(c *gin.Context) {
	var req registerBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Ongeldige registratiegegevens", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "password hashing failed", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByName(req.Username) != nil {
		response.Conflict(c, "Gebruikersnaam is al in gebruik")
		return
	}

	now := time.Now().UTC()
	u := &userRecord{
		AdminUser:    admin.AdminUser{ID: s.newID(), Username: req.Username, Email: req.Email, Role: "student", CreatedAt: now, UpdatedAt: now},
		passwordHash: hash,
	}
	s.users[u.ID] = u
	response.JSON(c, http.StatusCreated, u.AdminUser)
}

// ========== Users ==========

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]admin.AdminUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.AdminUser)
	}
	sort.Slice(users, func(i, j int) bool {
		a, _ := strconv.Atoi(users[i].ID)
		b, _ := strconv.Atoi(users[j].ID)
		return a < b
	})
	response.JSON(c, http.StatusOK, users)
}

func (s *Server) getUser(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		response.NotFound(c, notFound("Gebruiker", id))
		return
	}

	out := admin.UserWithFavorites{AdminUser: u.AdminUser}
	for _, m := range s.sortedModules(id, func(m *vkm.Module) bool { return s.favorites[id][m.ID] }) {
		if s.legacyFavorites {
			out.FavoriteVKMIDs = append(out.FavoriteVKMIDs, m.ID)
			continue
		}
		out.FavoriteVKMs = append(out.FavoriteVKMs, admin.FavoriteVKM{ID: m.ID, Name: m.Name, ShortDescription: m.ShortDescription})
	}
	if s.legacyFavorites {
		// Dangling IDs show up in the old contract too.
		for mid := range s.favorites[id] {
			if _, ok := s.modules[mid]; !ok {
				out.FavoriteVKMIDs = append(out.FavoriteVKMIDs, mid)
			}
		}
	}
	response.JSON(c, http.StatusOK, out)
}

func (s *Server) updateUser(c *gin.Context) {
	id := c.Param("id")
	var req admin.UpdateUserData
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Ongeldige gebruikersgegevens", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		response.NotFound(c, notFound("Gebruiker", id))
		return
	}
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	u.UpdatedAt = time.Now().UTC()
	response.JSON(c, http.StatusOK, u.AdminUser)
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == middleware.MustGetUserID(c) {
		response.ValidationError(c, "Je kunt je eigen account niet verwijderen", errors.New("self delete"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		response.NotFound(c, notFound("Gebruiker", id))
		return
	}
	delete(s.users, id)
	delete(s.favorites, id)
	response.NoContent(c)
}

// ========== Modules ==========

func (s *Server) listModules(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	location := c.Query("location")
	level := c.Query("level")
	credit := c.Query("studyCredit")
	active := c.Query("isActive")
	if active != "" {
		if _, err := strconv.ParseBool(active); err != nil {
			response.ValidationError(c, "isActive moet true of false zijn", err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	modules := s.sortedModules(userID, func(m *vkm.Module) bool {
		if location != "" && string(m.Location) != location {
			return false
		}
		if level != "" && string(m.Level) != level {
			return false
		}
		if credit != "" && m.StudyCredit.String() != credit {
			return false
		}
		if active != "" && strconv.FormatBool(m.IsActive) != strings.ToLower(active) {
			return false
		}
		return true
	})
	response.JSON(c, http.StatusOK, modules)
}

func (s *Server) getModule(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[id]
	if !ok {
		response.NotFound(c, notFound("Module", id))
		return
	}
	cp := *m
	cp.IsFavorited = s.favorites[userID][id]
	response.JSON(c, http.StatusOK, cp)
}

func (s *Server) listFavorites(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	response.JSON(c, http.StatusOK, s.sortedModules(userID, func(m *vkm.Module) bool {
		return s.favorites[userID][m.ID]
	}))
}

func (s *Server) recommendations(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	limit := 8
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.ValidationError(c, "limit moet een positief getal zijn", err)
			return
		}
		limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.sortedModules(userID, func(m *vkm.Module) bool {
		return !s.favorites[userID][m.ID]
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	response.JSON(c, http.StatusOK, recs)
}

func (s *Server) toggleFavorite(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[id]; !ok {
		response.NotFound(c, notFound("Module", id))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"isFavorited": s.toggleLocked(userID, id)})
}

func (s *Server) createModule(c *gin.Context) {
	var req vkm.CreateVKMData
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Ongeldige modulegegevens", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, "Ongeldige modulegegevens", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	m := &vkm.Module{
		ID:               s.newID(),
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Content:          req.Content,
		StudyCredit:      req.StudyCredit,
		Location:         req.Location,
		ContactID:        req.ContactID,
		Level:            req.Level,
		LearningOutcomes: req.LearningOutcomes,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.modules[m.ID] = m
	response.JSON(c, http.StatusCreated, m)
}

func (s *Server) updateModule(c *gin.Context) {
	id := c.Param("id")
	var req vkm.UpdateVKMData
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Ongeldige modulegegevens", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[id]
	if !ok {
		response.NotFound(c, notFound("Module", id))
		return
	}
	applyUpdate(m, req)
	m.UpdatedAt = time.Now().UTC()
	response.JSON(c, http.StatusOK, m)
}

func (s *Server) deleteModule(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[id]; !ok {
		response.NotFound(c, notFound("Module", id))
		return
	}
	delete(s.modules, id)
	response.NoContent(c)
}

func applyUpdate(m *vkm.Module, req vkm.UpdateVKMData) {
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.ShortDescription != nil {
		m.ShortDescription = *req.ShortDescription
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Content != nil {
		m.Content = *req.Content
	}
	if req.StudyCredit != nil {
		m.StudyCredit = *req.StudyCredit
	}
	if req.Location != nil {
		m.Location = *req.Location
	}
	if req.ContactID != nil {
		m.ContactID = *req.ContactID
	}
	if req.Level != nil {
		m.Level = *req.Level
	}
	if req.LearningOutcomes != nil {
		m.LearningOutcomes = *req.LearningOutcomes
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
}
