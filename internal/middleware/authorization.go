package middleware

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/substrate-sink/api"
	config "github.com/thirdweb-dev/substrate-sink/configs"
)

var ErrUnauthorized = fmt.Errorf("invalid username or password")

// Authorization checks basic auth credentials against the api config. It lets every
// request through when no credentials are configured.
func Authorization(c *gin.Context) {
	expectedUser, expectedPass := config.Cfg.API.Username, config.Cfg.API.Password
	if expectedUser == "" && expectedPass == "" {
		c.Next()
		return
	}

	username, password, ok := c.Request.BasicAuth()
	if !ok || !validateCredentials(username, password, expectedUser, expectedPass) {
		log.Debug().Str("ip", c.ClientIP()).Msg(ErrUnauthorized.Error())
		api.UnauthorizedErrorHandler(c, ErrUnauthorized)
		return
	}
	c.Next()
}

func validateCredentials(username, password, expectedUser, expectedPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(expectedUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(expectedPass)) == 1
	return userOK && passOK
}
