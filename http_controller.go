package identity

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type IdentityControllerRoutes struct {
	Register           string
	Login              string
	Logout             string
	Refresh            string
	VerifyEmail        string
	ResendVerification string
	CurrentUser        string
}

type IdentityController struct {
	Debug   bool
	Logger  Logger
	Repo    RepositoryManager
	Auth    *Auther
	Tokens  *TokenService
	Mailer  Mailer
	BaseURL string
	Routes  *IdentityControllerRoutes
}

type IdentityControllerOption func(*IdentityController) *IdentityController

func WithControllerLogger(logger Logger) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuth(auth *Auther) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Auth = auth
		return c
	}
}

func WithControllerMailer(mailer Mailer) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerBaseURL(baseURL string) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.BaseURL = baseURL
		return c
	}
}

func WithControllerDebug(debug bool) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Debug = debug
		return c
	}
}

func NewIdentityController(opts ...IdentityControllerOption) *IdentityController {
	c := &IdentityController{
		Logger: defLogger{},
		Routes: &IdentityControllerRoutes{
			Register:           "/register",
			Login:              "/login",
			Logout:             "/logout",
			Refresh:            "/refresh",
			VerifyEmail:        "/verify-email/:token",
			ResendVerification: "/resend-verification",
			CurrentUser:        "/current-user",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in identity controller...")
	}

	if c.Auth == nil {
		panic("Missing Authenticator in identity controller...")
	}

	if c.Tokens == nil {
		c.Tokens = c.Auth.TokenService()
	}

	if c.Mailer == nil {
		c.Mailer = NewLogMailer(c.Logger)
	}

	return c
}

// RegisterIdentityRoutes mounts the identity endpoints. Logout and
// current-user sit behind the provided guard; everything else is public.
func RegisterIdentityRoutes(app fiber.Router, guard fiber.Handler, opts ...IdentityControllerOption) *IdentityController {
	controller := NewIdentityController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmailGet)
	app.Post(controller.Routes.ResendVerification, controller.ResendVerificationPost)

	app.Post(controller.Routes.Logout, guard, controller.LogoutPost)
	app.Get(controller.Routes.CurrentUser, guard, controller.CurrentUserGet)

	return controller
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	Role            string `json:"role" form:"role"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Username, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.Role, validation.By(validateRole)),
	)
}

func (a *IdentityController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(apiResponse{
			Success: false,
			Message: "validation failed",
			Data:    FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= IDENTITY REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("================================")
	}

	var created *PublicUser
	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
		OnResponse: func(u *PublicUser) {
			created = u
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Tokens, a.Mailer, a.BaseURL).WithLogger(a.Logger)
	if err := registerUser.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(apiResponse{
		Success: true,
		Message: "user registered, verification email sent",
		Data:    created,
	})
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *IdentityController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apiResponse{
			Success: false,
			Message: "validation failed",
			Data:    FormatValidationErrorToMap(err),
		})
	}

	user, pair, err := a.Auth.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error: ", "error", err)
		return a.renderError(ctx, err)
	}

	cfg := a.Tokens.Config()
	SetAuthCookies(ctx, pair, cfg.AccessTTL, cfg.RefreshTTL)

	return ctx.JSON(apiResponse{
		Success: true,
		Message: "login successful",
		Data: fiber.Map{
			"user":          user.Public(),
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		},
	})
}

func (a *IdentityController) LogoutPost(ctx *fiber.Ctx) error {
	user, err := SessionUser(ctx, "user")
	if err != nil {
		return a.renderError(ctx, err)
	}

	if err := a.Auth.Logout(ctx.UserContext(), user.ID); err != nil {
		a.Logger.Error("logout error: ", "error", err)
		return a.renderError(ctx, err)
	}

	ClearAuthCookies(ctx)

	return ctx.JSON(apiResponse{
		Success: true,
		Message: "logged out",
	})
}

func (a *IdentityController) RefreshPost(ctx *fiber.Ctx) error {
	raw := ctx.Cookies(RefreshTokenCookie)
	if raw == "" {
		return a.renderError(ctx, ErrTokenMissing)
	}

	access, err := a.Auth.Refresh(ctx.UserContext(), raw)
	if err != nil {
		a.Logger.Warn("refresh rejected", "error", err)
		return a.renderError(ctx, err)
	}

	cfg := a.Tokens.Config()
	setSessionCookie(ctx, AccessTokenCookie, access, cfg.AccessTTL)

	return ctx.JSON(apiResponse{
		Success: true,
		Data: fiber.Map{
			"access_token": access,
		},
	})
}

func (a *IdentityController) VerifyEmailGet(ctx *fiber.Ctx) error {
	token := ctx.Params("token")

	var verified *PublicUser
	req := VerifyEmailMessage{
		Token: token,
		OnResponse: func(u *PublicUser) {
			verified = u
		},
	}

	verifyEmail := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)
	if err := verifyEmail.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("verify email error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(apiResponse{
		Success: true,
		Message: "email verified",
		Data:    verified,
	})
}

// ResendPayload is the resend-verification body
type ResendPayload struct {
	Email string `json:"email" form:"email"`
}

// Validate will run validation rules
func (r ResendPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *IdentityController) ResendVerificationPost(ctx *fiber.Ctx) error {
	payload := new(ResendPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("resend parse payload: ", "error", err)
		return a.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apiResponse{
			Success: false,
			Message: "validation failed",
			Data:    FormatValidationErrorToMap(err),
		})
	}

	req := ResendVerificationMessage{Email: payload.Email}

	resend := NewResendVerificationHandler(a.Repo, a.Tokens, a.Mailer, a.BaseURL).WithLogger(a.Logger)
	if err := resend.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("resend verification error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(apiResponse{
		Success: true,
		Message: "verification email sent",
	})
}

func (a *IdentityController) CurrentUserGet(ctx *fiber.Ctx) error {
	user, err := SessionUser(ctx, "user")
	if err != nil {
		return a.renderError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= IDENTITY CURRENT USER ======")
		fmt.Println(print.MaybePrettyJSON(user))
		fmt.Println("====================================")
	}

	return ctx.JSON(apiResponse{
		Success: true,
		Data:    user,
	})
}

func (a *IdentityController) badRequest(ctx *fiber.Ctx, msg string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(apiResponse{
		Success: false,
		Message: msg,
	})
}

func (a *IdentityController) renderError(ctx *fiber.Ctx, err error) error {
	status := StatusFromError(err)

	msg := err.Error()
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		msg = richErr.Message
	}

	return ctx.Status(status).JSON(apiResponse{
		Success: false,
		Message: msg,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

func validateRole(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !IsValidRole(s) {
		return fmt.Errorf("must be one of %v", AvailableRoles())
	}
	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
