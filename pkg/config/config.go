package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del terminal (lectura vía Viper desde env y
// opcionalmente archivo .env / config.env).
type Config struct {
	App        AppConfig
	Backend    BackendConfig
	Scan       ScanConfig
	Draft      DraftConfig
	Ventanilla VentanillaConfig
	Storage    StorageConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	DeviceID string // identificador del equipo de mano, viaja en los envíos
	LogLevel string
}

// BackendConfig conexión con el backend WMS.
type BackendConfig struct {
	BaseURL    string
	DatabaseID string // base de datos/tenant seleccionada
	Token      string // bearer de sesión (vacío en desarrollo contra mockwms)
	Timeout    time.Duration
}

// ScanConfig parámetros del lector.
type ScanConfig struct {
	ManualDebounce time.Duration // inactividad antes de auto-enviar en modo manual
}

// DraftConfig parámetros del autoguardado de borradores.
type DraftConfig struct {
	Debounce time.Duration
}

// VentanillaConfig parámetros del sondeo de ventanilla.
type VentanillaConfig struct {
	Interval time.Duration
	PageSize int
}

// StorageConfig almacenamiento local del dispositivo.
type StorageConfig struct {
	DataDir string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// archivo). Las env vars tienen prioridad. Nombres esperados: APP_ENV,
// BACKEND_URL, BACKEND_DATABASE_ID, VENTANILLA_INTERVAL_SECONDS, DATA_DIR, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "wms-terminal"),
			DeviceID: getString(v, "DEVICE_ID", ""),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			BaseURL:    getString(v, "BACKEND_URL", "http://localhost:8080"),
			DatabaseID: getString(v, "BACKEND_DATABASE_ID", ""),
			Token:      getString(v, "BACKEND_TOKEN", ""),
			Timeout:    time.Duration(getInt(v, "BACKEND_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Scan: ScanConfig{
			ManualDebounce: time.Duration(getInt(v, "SCAN_MANUAL_DEBOUNCE_MS", 1000)) * time.Millisecond,
		},
		Draft: DraftConfig{
			Debounce: time.Duration(getInt(v, "DRAFT_DEBOUNCE_MS", 800)) * time.Millisecond,
		},
		Ventanilla: VentanillaConfig{
			Interval: time.Duration(getInt(v, "VENTANILLA_INTERVAL_SECONDS", 5)) * time.Second,
			PageSize: getInt(v, "VENTANILLA_PAGE_SIZE", 20),
		},
		Storage: StorageConfig{
			DataDir: getString(v, "DATA_DIR", "./data"),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
