package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type RegisterInput struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type ChangeUsernameInput struct {
	OldUsername string `json:"old_username" binding:"required"`
	NewUsername string `json:"new_username" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Register creates an account and logs the new identity in right away.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apology(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Password != input.Confirmation {
		apology(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.apologyFor(c, err)
		return
	}

	tokens, err := h.issueTokens(c, user.ID)
	if err != nil {
		h.apologyFor(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Registered!",
		"access_token":  tokens.access,
		"refresh_token": tokens.refresh,
	})
}

// Login verifies credentials and issues the session tokens.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apology(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Accounts.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.apologyFor(c, err)
		return
	}

	tokens, err := h.issueTokens(c, user.ID)
	if err != nil {
		h.apologyFor(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.access,
		"refresh_token": tokens.refresh,
	})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apology(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Accounts.ChangePassword(c.Request.Context(), userID(c), input.CurrentPassword, input.NewPassword); err != nil {
		h.apologyFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password successfully updated!"})
}

func (h *Handler) ChangeUsername(c *gin.Context) {
	var input ChangeUsernameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apology(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Accounts.ChangeUsername(c.Request.Context(), input.OldUsername, input.NewUsername, input.Password); err != nil {
		h.apologyFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Username successfully updated!"})
}

type tokenPair struct {
	access  string
	refresh string
}

// issueTokens signs a 24h access token and a 7d refresh token, storing the
// refresh token in redis keyed by its string.
func (h *Handler) issueTokens(c *gin.Context, id uint) (tokenPair, error) {
	claims := jwt.MapClaims{
		"user_id": id,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.JWTSecret))
	if err != nil {
		return tokenPair{}, err
	}

	refreshClaims := jwt.MapClaims{
		"user_id": id,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(h.JWTSecret))
	if err != nil {
		return tokenPair{}, err
	}

	if err := h.Rdb.Set(c.Request.Context(), refresh, id, 7*24*time.Hour).Err(); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{access: access, refresh: refresh}, nil
}
