package dto

// ── 账户模块 DTO ──

// SignUpRequest 注册请求
type SignUpRequest struct {
	Name     string `json:"name"     binding:"required"`
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginUser 登录响应中的用户信息
type LoginUser struct {
	Email string `json:"email"`
	ID    uint   `json:"id"`
	Role  string `json:"role"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
	Token   string    `json:"token"`
}
