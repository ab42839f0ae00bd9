package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medmap-admin/internal/auth"
	"medmap-admin/internal/model"
	"medmap-admin/pkg/logger"
	"medmap-admin/prometheus"
)

// Login authenticates an email/password pair, optionally scoped to a
// tenant slug. Every credential failure — unknown email, wrong password,
// tenant mismatch — produces the same opaque 401.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		TenantSlug string `json:"tenantSlug,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requisição inválida."})
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email e senha são obrigatórios."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	principal, err := h.Verifier.Verify(req.Email, req.Password, req.TenantSlug)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Info("Login rejected", zap.String("email", req.Email))
			prometheus.RecordAuthError("invalid_credentials")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Credenciais inválidas."})
		case errors.Is(err, auth.ErrTenantInconsistent):
			// Data anomaly, not a credentials failure. Logged loudly.
			log.Error("Login hit unresolvable tenant reference", zap.String("email", req.Email))
			prometheus.RecordAuthError("tenant_inconsistent")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Conta sem operadora válida associada."})
		default:
			log.Error("Login failed on store error", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
		}
	}

	token, err := h.Sessions.Issue(principal)
	if err != nil {
		log.Error("Failed to issue session token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}

	log.Info("User logged in",
		zap.String("email", principal.User.Email),
		zap.String("role", string(principal.User.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"id":           principal.User.ID,
		"email":        principal.User.Email,
		"name":         principal.User.Name,
		"role":         principal.User.Role,
		"tenantId":     principal.User.TenantID,
		"tenantConfig": principal.Tenant,
		"token":        token,
	})
}

// Register creates a tenant-scoped user through the self-registration
// flow. New users get the ANALYST role.
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		TenantID string `json:"tenantId"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requisição inválida."})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.TenantID == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Todos os campos (nome, email, senha, ID do Tenant) são obrigatórios.",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var count int64
	if err := h.DB.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		log.Error("Failed to check email uniqueness", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}
	if count > 0 {
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"message": "Este email já está em uso."})
	}

	tenantConfig, err := h.Tenants.ConfigByID(req.TenantID)
	if err != nil {
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Tenant inválido ou não encontrado."})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.RoleAnalyst,
		TenantID: &req.TenantID,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			prometheus.RecordAuthError("email_already_exists")
			return c.JSON(http.StatusConflict, echo.Map{"message": "Este email já está em uso."})
		}
		log.Error("Failed to create user", zap.Error(err))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor ao registrar."})
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.String("tenant_id", req.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":           user.ID,
		"email":        user.Email,
		"name":         user.Name,
		"role":         user.Role,
		"tenantId":     user.TenantID,
		"tenantConfig": tenantConfig,
	})
}

// RegisterRoot bootstraps a ROOT user. The endpoint is guarded by a
// pre-shared gate password from the environment and is disabled when that
// password is not configured.
func (h *Handler) RegisterRoot(c echo.Context) error {
	log := logger.FromContext(c)

	gate := h.Config.Auth.RootGatePassword
	if gate == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Não encontrado."})
	}

	var req struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		GatePassword string `json:"gatePassword"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse ROOT registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requisição inválida."})
	}
	if subtle.ConstantTimeCompare([]byte(req.GatePassword), []byte(gate)) != 1 {
		log.Warn("ROOT registration rejected by gate password")
		prometheus.RecordAuthError("root_gate_rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Acesso não autorizado para criar ROOT."})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Nome, email e senha são obrigatórios."})
	}

	var count int64
	if err := h.DB.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		log.Error("Failed to check email uniqueness", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"message": "Este email já está em uso."})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.RoleRoot,
		TenantID: nil,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Este email já está em uso."})
		}
		log.Error("Failed to create ROOT user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor ao registrar ROOT."})
	}

	log.Info("ROOT user created", zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":      user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"role":    user.Role,
		"message": "Usuário ROOT criado com sucesso!",
	})
}
