package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid registration data", errors.New(validationMessage(err)))
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.input())
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			writeError(c, http.StatusConflict, "User already exists!", err)
			return
		}
		writeError(c, http.StatusInternalServerError, "Registration failed!", err)
		return
	}

	s.logger.Info(c.Request.Context(), "user registered", "id", user.ID)
	c.JSON(http.StatusOK, registerResponse{Message: "User registered successfully!", User: user.Public()})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid login data", errors.New(validationMessage(err)))
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, loginResponse{Token: res.Token, User: res.User})
	case errors.Is(err, common.ErrorNotFound):
		writeError(c, http.StatusConflict, "User doesn't exist!", err)
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(c, http.StatusBadRequest, "Invalid Credentials!", err)
	default:
		writeError(c, http.StatusInternalServerError, "Login failed!", err)
	}
}

func (s *HTTPServer) me(c *gin.Context) {
	user, err := s.users.GetUser(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(c, http.StatusUnauthorized, "Unknown user", err)
			return
		}
		writeError(c, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
