package secure

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// Handler 安全响应头；sslRedirect 开启时把 http 请求重定向到 host:port
func Handler(host string, port int, sslRedirect bool) gin.HandlerFunc {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
		SSLRedirect:        sslRedirect,
	}
	if sslRedirect {
		opts.SSLHost = host + ":" + strconv.Itoa(port)
	}
	secureMiddleware := secure.New(opts)

	return func(c *gin.Context) {
		// Process 出错时已经写入响应（重定向），这里只需停止后续处理
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
