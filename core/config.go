package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		Host               string
		SessionMaxAge      int // seconds
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
		MaxUploadSize      string // echo body limit, e.g. "20M"
		DisableReqLogs     bool
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		AppName  string

		SecretKey string
		DataDir   string // root of every JSON/CSV file

		Server ServerConfig

		defaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Elimu")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("dataDir", "data")
	conf.SetDefault("address", ":8080")
	conf.SetDefault("host", "localhost")
	conf.SetDefault("sessionMaxAge", 7*24*3600)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("shutdownTimeout", 5*time.Second)
	conf.SetDefault("maxUploadSize", "20M")
	conf.SetDefault("disableReqLogs", false)
	conf.SetDefault("defaultFromEmail", "Elimu <noreply@localhost>")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:       env,
		Build:     conf.GetString("build"),
		Debug:     conf.GetBool("debug"),
		TestMode:  conf.GetBool("testMode"),
		AppName:   conf.GetString("appName"),
		SecretKey: conf.GetString("secretKey"),
		DataDir:   conf.GetString("dataDir"),
		Server: ServerConfig{
			Address:            conf.GetString("address"),
			Host:               conf.GetString("host"),
			SessionMaxAge:      conf.GetInt("sessionMaxAge"),
			JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
			ShutdownTimeout:    conf.GetDuration("shutdownTimeout"),
			MaxUploadSize:      conf.GetString("maxUploadSize"),
			DisableReqLogs:     conf.GetBool("disableReqLogs"),
		},
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
	}
}

// NewTestConfig returns a Config suitable for tests, rooted at dataDir.
func NewTestConfig(dataDir string) *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Elimu",
		SecretKey: "test-secret",
		DataDir:   dataDir,
		Server: ServerConfig{
			SessionMaxAge:      3600,
			JWTExpirationDelta: time.Hour,
			ShutdownTimeout:    time.Second,
			MaxUploadSize:      "1M",
			DisableReqLogs:     true,
		},
		defaultFromEmail: "Elimu <noreply@test.test>",
	}
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// configDir is where `.env.<env>` files live; CONFIG_DIR overrides the default `./config`.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}
