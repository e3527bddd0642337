package api

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lynx/internal/conf"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// 登录密钥有效期，到期后换新密钥
const loginKeyTTL = time.Hour

type UserAPI struct {
	conf *conf.Bootstrap
	keys *loginKeys
}

func NewUserAPI(conf *conf.Bootstrap) UserAPI {
	return UserAPI{
		conf: conf,
		keys: newLoginKeys(loginKeyTTL),
	}
}

func RegisterUser(r gin.IRouter, api UserAPI, mid ...gin.HandlerFunc) {
	r.POST("/login", web.WrapH(api.login))
	r.GET("/login/key", web.WrapH(api.getPublicKey))

	group := r.Group("/users", mid...)
	group.PUT("", web.WrapH(api.updateCredentials))
}

type loginInput struct {
	Data string `json:"data" binding:"required"` // RSA-OAEP 加密的凭据 JSON，base64 编码
}

type loginOutput struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// login 解密前端用公钥加密的凭据并签发 JWT
func (api UserAPI) login(_ *gin.Context, in *loginInput) (*loginOutput, error) {
	body, err := api.keys.Decrypt(in.Data)
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &credentials); err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}

	username, password := api.conf.Server.Username, api.conf.Server.Password
	if username == "" && password == "" {
		username, password = "admin", "admin"
	}
	if credentials.Username != username || credentials.Password != password {
		return nil, reason.ErrNameOrPasswd
	}

	data := web.NewClaimsData().SetUsername(credentials.Username)
	token, err := web.NewToken(data, api.conf.Server.HTTP.JwtSecret, web.WithExpiresAt(time.Now().Add(3*24*time.Hour)))
	if err != nil {
		return nil, reason.ErrServer.SetMsg("生成token失败: " + err.Error())
	}

	return &loginOutput{
		Token: token,
		User:  credentials.Username,
	}, nil
}

type updateCredentialsInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// updateCredentials 修改登录凭据并写回配置文件
func (api UserAPI) updateCredentials(_ *gin.Context, in *updateCredentialsInput) (gin.H, error) {
	api.conf.Server.Username = in.Username
	api.conf.Server.Password = in.Password

	if err := conf.WriteConfig(api.conf, api.conf.ConfigPath); err != nil {
		return nil, reason.ErrServer.SetMsg("保存配置失败: " + err.Error())
	}
	return gin.H{"msg": "凭据更新成功"}, nil
}

// getPublicKey 下发当前登录公钥（PEM 再 base64）
func (api UserAPI) getPublicKey(_ *gin.Context, _ *struct{}) (gin.H, error) {
	pemBytes, err := api.keys.PublicKeyPEM()
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}
	return gin.H{"key": base64.StdEncoding.EncodeToString(pemBytes)}, nil
}
