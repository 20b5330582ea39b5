package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 環境變數前綴，例如 IDADMIN_DB_HOST 會覆蓋 db.host
const EnvPrefix = "IDADMIN"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Log    LogConfig    `mapstructure:"log"`
	CORS   CORSConfig   `mapstructure:"cors"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
	Path     string `mapstructure:"path"` // 僅 sqlite 使用
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var defaults = map[string]interface{}{
	"server.address":          ":8080",
	"server.mode":             "release",
	"server.read_timeout":     "20s",
	"server.write_timeout":    "20s",
	"server.shutdown_timeout": "10s",
	"db.driver":               "postgres",
	"db.host":                 "localhost",
	"db.user":                 "postgres",
	"db.password":             "",
	"db.name":                 "identity_admin",
	"db.port":                 5432,
	"db.sslmode":              "disable",
	"db.timezone":             "Asia/Taipei",
	"db.path":                 "identity_admin.db",
	"auth.jwt_secret":         "",
	"auth.token_ttl":          "240h",
	"auth.admin_username":     "admin",
	"auth.admin_password":     "",
	"log.level":               "info",
	"log.development":         false,
	"cors.allowed_origins":    []string{"http://localhost:3000", "http://localhost:5173"},
}

// Load 讀取 config.yaml 並套用環境變數覆蓋。
// 未指定搜尋路徑時使用 ./pkg/config 與目前目錄。
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if len(paths) == 0 {
		paths = []string{"./pkg/config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required")
	}

	// cors 中間件在沒有任何來源或來源格式錯誤時會在啟動時 panic
	if len(c.CORS.AllowedOrigins) == 0 {
		return errors.New("config: cors.allowed_origins must not be empty")
	}
	// 允許攜帶憑證，因此只接受完整列出的來源，不支援萬用字元
	for _, origin := range c.CORS.AllowedOrigins {
		if strings.Contains(origin, "*") {
			return fmt.Errorf("config: cors origin %q must not contain wildcards", origin)
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("config: cors origin %q must start with http:// or https://", origin)
		}
	}
	return nil
}
