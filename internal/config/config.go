package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "config")

// Provedores LLM suportados
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Valores padrão
const (
	DefaultPort           = 8000
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultRequestTimeout = 60 * time.Second
	DefaultSessionTTL     = 30 * time.Minute
	DefaultAppName        = "go-agent-gateway"
	DefaultLogLevel       = "info"
)

// Config contém toda a configuração do gateway
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	MCP    MCPConfig    `yaml:"mcp"`
	Twilio TwilioConfig `yaml:"twilio"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig contém a configuração do servidor HTTP
type ServerConfig struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gt=0"`
	AppName        string        `yaml:"app_name" validate:"required"`
}

// LLMConfig contém a configuração do provedor LLM
type LLMConfig struct {
	Provider      string `yaml:"provider" validate:"oneof=openai gemini"`
	Model         string `yaml:"model"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url" validate:"omitempty,url"`
	MaxRetries    int    `yaml:"max_retries" validate:"min=0"`
	GoogleAPIKey  string `yaml:"google_api_key"`
}

// MCPConfig contém a configuração opcional de um servidor MCP externo
type MCPConfig struct {
	Endpoint   string `yaml:"endpoint" validate:"omitempty,url"`
	AuthHeader string `yaml:"auth_header"`
	AuthToken  string `yaml:"auth_token"`
}

// TwilioConfig contém as credenciais para envio real de SMS
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number" validate:"omitempty,startswith=+,e164"`
}

// LogConfig contém a configuração de log
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warning error"`
}

// Enabled indica se as credenciais do Twilio estão completas
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// Addr retorna o endereço de escuta do servidor
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

// Default retorna a configuração padrão
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           DefaultPort,
			RequestTimeout: DefaultRequestTimeout,
			SessionTTL:     DefaultSessionTTL,
			AppName:        DefaultAppName,
		},
		LLM: LLMConfig{
			Provider:   ProviderOpenAI,
			MaxRetries: 2,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load carrega a configuração: .env, arquivo YAML opcional e variáveis de ambiente,
// nesta ordem de precedência crescente.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.KV(xlog.DEBUG, "reason", "dotenv_not_loaded", "err", err.Error())
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.LLM.Provider == ProviderOpenAI && cfg.LLM.OpenAIAPIKey == "" {
		logger.KV(xlog.WARNING, "reason", "missing_api_key", "env", "OPENAI_API_KEY")
	}
	if cfg.LLM.Provider == ProviderGemini && cfg.LLM.GoogleAPIKey == "" {
		logger.KV(xlog.WARNING, "reason", "missing_api_key", "env", "GOOGLE_API_KEY")
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %q", path)
	}
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %q", path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid PORT %q", v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid REQUEST_TIMEOUT %q", v)
		}
		c.Server.RequestTimeout = d
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid SESSION_TTL %q", v)
		}
		c.Server.SessionTTL = d
	}
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid OPENAI_MAX_RETRIES %q", v)
		}
		c.LLM.MaxRetries = n
	}

	setString(&c.Server.AppName, "APP_NAME")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.LLM.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.LLM.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&c.MCP.Endpoint, "MCP_ENDPOINT")
	setString(&c.MCP.AuthHeader, "MCP_AUTH_HEADER")
	setString(&c.MCP.AuthToken, "MCP_AUTH_TOKEN")
	setString(&c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Twilio.FromNumber, "TWILIO_FROM_NUMBER")
	setString(&c.Log.Level, "LOG_LEVEL")
	return nil
}

func (c *Config) applyDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderGemini:
			c.LLM.Model = DefaultGeminiModel
		default:
			c.LLM.Model = DefaultOpenAIModel
		}
	}
	if c.MCP.Endpoint != "" && c.MCP.AuthHeader == "" {
		c.MCP.AuthHeader = "Authorization"
	}
}

// Validate verifica a configuração carregada
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	return nil
}

// LogLevel converte o nível textual em nível do xlog
func (l LogConfig) LogLevel() xlog.LogLevel {
	switch l.Level {
	case "debug":
		return xlog.DEBUG
	case "warning":
		return xlog.WARNING
	case "error":
		return xlog.ERROR
	default:
		return xlog.INFO
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
