package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	FirebaseConfig struct {
		ProjectID       string
		CredentialsFile string
		WebAPIKey       string // Identity Toolkit key used for password sign-in
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		WorkDir  string

		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string

		DefaultPageSize int
		MaxPageSize     int

		SendgridApiKey string
		RollbarToken   string

		Server   ServerConfig
		Firebase FirebaseConfig
	}
)

// NewConfig loads the app configuration from defaults, an optional
// `config/.env.<env>` file and environment variables (in increasing precedence).
func NewConfig(workDir string) (*Config, error) {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "EduTrack")
	conf.SetDefault("secretKey", "o0^r2m$93s&1x)#*c2(#yg4h^$cegm2emy+57=dz&uoxh2(h")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("shutdownTimeout", 20*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("defaultPageSize", 20)
	conf.SetDefault("maxPageSize", 100)
	conf.SetDefault("firebaseProjectID", "")
	conf.SetDefault("firebaseCredentialsFile", "")
	conf.SetDefault("firebaseWebAPIKey", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("build", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            conf.GetString("build"),
		WorkDir:          workDir,
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		DefaultPageSize:  conf.GetInt("defaultPageSize"),
		MaxPageSize:      conf.GetInt("maxPageSize"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			ShutdownTimeout:           conf.GetDuration("shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       conf.GetString("firebaseProjectID"),
			CredentialsFile: conf.GetString("firebaseCredentialsFile"),
			WebAPIKey:       conf.GetString("firebaseWebAPIKey"),
		},
	}, nil
}

func (c *Config) ServerAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}
