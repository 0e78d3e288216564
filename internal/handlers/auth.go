package handlers

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"

	"prediction-market/internal/auth"
	"prediction-market/internal/domainerr"
	"prediction-market/internal/respond"
	"prediction-market/internal/services"
)

// AuthHandler handles wallet-based authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// WalletLogin authenticates a user by their Solana wallet address and signature.
// Requires signature of the message "Sign this message to authenticate with PUMPSLY".
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	if len(req.WalletAddress) < 32 || len(req.WalletAddress) > 44 {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid wallet address"))
		return
	}

	message := []byte("Sign this message to authenticate with PUMPSLY")

	pubKey, err := base58.Decode(req.WalletAddress)
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid public key format"))
		return
	}

	sig, err := base58.Decode(req.Signature)
	if err != nil {
		sig, err = hex.DecodeString(req.Signature)
		if err != nil {
			respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid signature format"))
			return
		}
	}

	if !ed25519.Verify(pubKey, message, sig) {
		respond.Err(c, domainerr.New(domainerr.Unauthorized, "invalid signature"))
		return
	}

	user, err := h.authService.ProcessWalletLogin(req.WalletAddress)
	if err != nil {
		respond.Err(c, wrapInternal(err))
		return
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		respond.Err(c, wrapInternal(err))
		return
	}

	respond.OK(c, gin.H{"token": token, "user": user})
}

// Logout handles user logout (stateless JWT — client-side only).
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	respond.OK(c, gin.H{"message": "logged out"})
}

// GetMe returns the currently authenticated user's profile.
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		respond.Err(c, domainerr.New(domainerr.Unauthorized, "unauthorized"))
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.NotFound, "user not found"))
		return
	}

	respond.OK(c, gin.H{"user": user})
}

// wrapInternal lifts a plain error into the taxonomy as an internal failure;
// handlers here call persistence helpers that don't return *domainerr.Error.
func wrapInternal(err error) error {
	return domainerr.Wrap(domainerr.TransactionFailed, err)
}
