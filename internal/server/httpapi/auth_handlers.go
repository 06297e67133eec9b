package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"max=200"`
	Phone    string `json:"phone_number" validate:"max=32"`
}

func (r *registerRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyResetCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[registerRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.svc.Users.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(user))
}

// Login accepts a JSON body or an OAuth2 password-grant form
// (username, password).
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			a.writeError(w, r, common.InvalidArgument("malformed form body"))
			return
		}
		req = loginRequest{Email: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
		if err := validate.Struct(req); err != nil {
			a.writeError(w, r, validationError(err))
			return
		}
	} else {
		var err error
		if req, err = DecodeValidBody[loginRequest](w, r); err != nil {
			a.writeError(w, r, err)
			return
		}
	}

	pair, err := a.svc.Auth.Login(r.Context(), a.clientIP(r), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokens(pair))
}

func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[refreshRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	pair, err := a.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokens(pair))
}

// ForgotPassword answers the same way whether or not the account exists.
func (a *API) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[forgotPasswordRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.svc.Auth.ForgotPassword(r.Context(), a.clientIP(r), req.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeDetail(w, http.StatusAccepted, "if the account exists, a reset code has been sent")
}

func (a *API) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[verifyResetCodeRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	token, err := a.svc.Auth.VerifyResetCode(r.Context(), a.clientIP(r), req.Email, req.Code)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reset_token": token})
}

func (a *API) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[resetPasswordRequest](w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.svc.Auth.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
