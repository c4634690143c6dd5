package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/services"
	"github.com/idesign4u1/ShoppingListApp/utils"
)

type AuthHandler struct {
	Users *services.UserService
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		utils.LogAuthAction("signup", req.Email, false)
		respondError(c, err)
		return
	}

	response, err := h.issueTokens(c, user)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogAuthAction("signup", user.Email, true)
	c.JSON(http.StatusCreated, response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req)
	if err != nil {
		utils.LogAuthAction("login", req.Email, false)
		if models.CodeOf(err) == models.CodeValidationFailed {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "2FA code required", "requires_2fa": true})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	response, err := h.issueTokens(c, user)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogAuthAction("login", user.Email, true)
	c.JSON(http.StatusOK, response)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "user": user.Public()})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Users.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	session, err := h.Users.CreateSession(c.Request.Context(), user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: session.RefreshToken,
		User:         user.Public(),
	}, nil
}
