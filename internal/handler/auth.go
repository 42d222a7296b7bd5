package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/utils"
)

// TokenIssuer signs identity claims.  utils.TokenService implements it.
type TokenIssuer interface {
	Issue(claim utils.IdentityClaim) (utils.AccessToken, error)
}

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	Tokens TokenIssuer
}

func NewAuthHandler(tokens TokenIssuer) *AuthHandler {
	if tokens == nil {
		panic("nil token issuer passed to NewAuthHandler")
	}
	return &AuthHandler{Tokens: tokens}
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// IssueToken handles POST /jwt.  The body is an arbitrary JSON object that
// must contain an "email"; every field is signed into the token.
func (h *AuthHandler) IssueToken(c echo.Context) error {
	body := map[string]any{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email, _ := body["email"].(string)
	tok, err := h.Tokens.Issue(utils.IdentityClaim{Email: email, Extra: body})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp})
}
