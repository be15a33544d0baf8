package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSPolicy 单个服务面的跨域策略
type CORSPolicy struct {
	// AllowOrigins 白名单；"*" 放行任意来源，此时不下发 Allow-Credentials
	AllowOrigins []string
	// AllowMethods 预检允许的方法，OPTIONS 自动附加
	AllowMethods []string
	// ExposeHeaders 允许前端读取的响应头
	ExposeHeaders []string
	MaxAge        time.Duration
}

var corsAllowHeaders = strings.Join([]string{"Content-Type", "Authorization", requestIDHeader}, ", ")

// CORS 按策略处理跨域请求
// 预检请求（带 Access-Control-Request-Method 的 OPTIONS）在这里终止：
// 来源在白名单内返回 204，否则返回 403
func CORS(p CORSPolicy) gin.HandlerFunc {
	anyOrigin := false
	allowed := make(map[string]struct{}, len(p.AllowOrigins))
	for _, o := range p.AllowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			anyOrigin = true
			continue
		}
		if o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}

	methods := append([]string(nil), p.AllowMethods...)
	if !containsFold(methods, http.MethodOptions) {
		methods = append(methods, http.MethodOptions)
	}
	allowMethods := strings.Join(methods, ", ")
	exposeHeaders := strings.Join(p.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(int(p.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		if origin == "" {
			if preflight {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		_, listed := allowed[strings.ToLower(origin)]
		switch {
		case listed:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case anyOrigin:
			h.Set("Access-Control-Allow-Origin", "*")
		default:
			if preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		if exposeHeaders != "" {
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}
		if preflight {
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			if p.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
