package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"parley/logger"
	"parley/middleware"
	"parley/module/user/model"
	"parley/module/user/service"
	"parley/tools/api"
	"parley/tools/errs"
	"parley/tools/security"
	"parley/tools/upload"
)

const cookieMaxAge = 7 * 24 * time.Hour

// Handler serves the auth/account endpoints.
type Handler struct {
	Users   *service.Repo
	Uploads *upload.Uploader
	JWT     security.Options
}

func NewHandler(users *service.Repo, uploads *upload.Uploader, jwt security.Options) *Handler {
	return &Handler{Users: users, Uploads: uploads, JWT: jwt}
}

// Register mounts the auth routes. auth guards the routes that need a
// verified identity.
func (h *Handler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/sign-up", h.SignUp)
	rg.POST("/sign-in", h.SignIn)
	rg.POST("/log-out", h.LogOut)
	rg.PUT("/update-profile", auth, h.UpdateProfile)
	rg.GET("/check", auth, h.Check)
}

type signUpReq struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type signInReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// isMobile: mobile clients authenticate with a bearer header and get the
// token in the body; browser clients get an httpOnly cookie instead.
func isMobile(c *gin.Context) bool {
	return strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func (h *Handler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt", token, int(cookieMaxAge.Seconds()), "/", "", false, true)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, errs.ErrArgs.WithDetail(bindDetail(err)))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		logger.Errorf("[auth] hash password: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}

	u := newUser(req.FullName, req.Email, hash)
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			api.Fail(c, errs.ErrDuplicate.WithDetail("email already in use"))
			return
		}
		logger.Errorf("[auth] create user: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}

	token, _, err := security.Generate(h.JWT, u.ID.Hex())
	if err != nil {
		logger.Errorf("[auth] generate token: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}

	body := gin.H{
		"user": gin.H{
			"_id":      u.ID.Hex(),
			"fullName": u.FullName,
			"email":    u.Email,
		},
	}
	if isMobile(c) {
		body["token"] = token
	} else {
		h.setTokenCookie(c, token)
	}
	api.OK(c, http.StatusCreated, body, "User registered successfully")
}

func (h *Handler) SignIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, errs.ErrArgs.WithDetail(bindDetail(err)))
		return
	}

	u, err := h.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil || !security.ComparePassword(req.Password, u.Password) {
		// Same answer for unknown email and wrong password.
		api.Fail(c, errs.ErrInvalidCredential)
		return
	}

	token, _, err := security.Generate(h.JWT, u.ID.Hex())
	if err != nil {
		logger.Errorf("[auth] generate token: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}

	body := gin.H{
		"_id":      u.ID.Hex(),
		"fullName": u.FullName,
		"email":    u.Email,
		"avatar":   u.Avatar,
	}
	if isMobile(c) {
		body["token"] = token
	} else {
		h.setTokenCookie(c, token)
	}
	api.OK(c, http.StatusOK, body, "Logged in Successfully")
}

func (h *Handler) LogOut(c *gin.Context) {
	if !isMobile(c) {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie("jwt", "", -1, "/", "", false, true)
	}
	api.OK(c, http.StatusOK, nil, "User Logged Out Successfully")
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		api.Fail(c, errs.ErrArgs.WithDetail("no avatar file uploaded"))
		return
	}
	url, err := h.Uploads.SaveImage(fh)
	if err != nil {
		logger.Warnf("[auth] avatar upload: %v", err)
		api.Fail(c, errs.ErrUploadFailed)
		return
	}

	u, err := h.Users.UpdateAvatar(c.Request.Context(), middleware.UserID(c), url)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			api.Fail(c, errs.ErrNotFound)
			return
		}
		logger.Errorf("[auth] update avatar: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusOK, gin.H{"user": u}, "Profile updated successfully")
}

func (h *Handler) Check(c *gin.Context) {
	u, err := h.Users.FindByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		api.Fail(c, errs.ErrUnauthorized)
		return
	}
	api.OK(c, http.StatusOK, u, "Current user retrieved")
}

func newUser(fullName, email, passwordHash string) *model.User {
	return &model.User{
		FullName: fullName,
		Email:    email,
		Password: passwordHash,
	}
}

// bindDetail flattens validator errors into a single readable line.
func bindDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
