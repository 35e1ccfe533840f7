package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/khaledhikmat/ps-go/service/lgr"
)

const (
	DataStoreMongo = "mongo"
	DataStoreFiles = "files"
)

type envService struct {
}

// NewEnv returns a config service backed by environment variables. Every getter
// reads the environment on call and falls back to a default.
func NewEnv() IService {
	return &envService{}
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return getEnvInt("MODE_MAX_SHUTDOWN_TIME", 5)
}

func (svc *envService) GetInputFolder() string {
	return getEnv("SETTINGS_FOLDER", "./settings")
}

func (svc *envService) GetLogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

func (svc *envService) GetLogFile() string {
	return getEnv("LOG_FILE", "")
}

func (svc *envService) GetPricingPort() string {
	return getEnv("PORT", "5001")
}

func (svc *envService) GetVisionPort() string {
	return getEnv("PORT", "5002")
}

func (svc *envService) GetDataStore() string {
	if store := getEnv("DATA_STORE", ""); store != "" {
		return store
	}
	if svc.GetMongoURL() != "" {
		return DataStoreMongo
	}
	return DataStoreFiles
}

func (svc *envService) GetMongoURL() string {
	// The parking backend names it in lower case
	return getEnv("MONGO_URL", getEnv("mongo_url", ""))
}

func (svc *envService) GetMongoDatabase() string {
	return getEnv("MONGO_DB", "test")
}

func (svc *envService) GetModelsCollection() string {
	return getEnv("MODELS_COLLECTION", "ml_models")
}

func (svc *envService) GetBookingsCollection() string {
	return getEnv("BOOKINGS_COLLECTION", "pricingdatasets")
}

func (svc *envService) GetModelName() string {
	return getEnv("MODEL_NAME", "pricing_v1")
}

func (svc *envService) GetSyntheticDatasetFile() string {
	return getEnv("SYNTHETIC_DATASET", fmt.Sprintf("%s/parking_synthetic_data.csv", svc.GetInputFolder()))
}

func (svc *envService) GetForestTrees() int {
	return getEnvInt("FOREST_TREES", 100)
}

func (svc *envService) GetForestSeed() int64 {
	return int64(getEnvInt("FOREST_SEED", 42))
}

// GetRetrainInterval is in hours. Zero disables scheduled retraining.
func (svc *envService) GetRetrainInterval() int {
	return getEnvInt("RETRAIN_INTERVAL_HOURS", 0)
}

func (svc *envService) GetSlotsFile() string {
	return getEnv("SLOTS_FILE", fmt.Sprintf("%s/slots.yaml", svc.GetInputFolder()))
}

func (svc *envService) GetDetectorParameters() DetectorParameters {
	return DetectorParameters{
		ProtoPath:           getEnv("DETECTOR_PROTOTXT", "./mobilenet/MobileNetSSD_deploy.prototxt"),
		ModelPath:           getEnv("DETECTOR_MODEL", "./mobilenet/MobileNetSSD_deploy.caffemodel"),
		LabelsPath:          getEnv("DETECTOR_LABELS", ""),
		InputSize:           300,
		ScaleFactor:         0.007843,
		Mean:                127.5,
		ConfidenceThreshold: getEnvFloat("DETECTOR_CONFIDENCE", 0.4),
	}
}

func (svc *envService) GetBackendURL() string {
	return getEnv("BACKEND_URL", "http://localhost:3000/api/slotoperations/updateSlotStatus")
}

// GetNotifierTimeout is in seconds.
func (svc *envService) GetNotifierTimeout() int {
	return 5
}

func (svc *envService) GetSlotsRedisURL() string {
	return getEnv("SLOTS_REDIS_URL", "")
}

func (svc *envService) GetSlotsRedisChannel() string {
	return getEnv("SLOTS_REDIS_CHANNEL", "parking:slots")
}

func (svc *envService) GetSlotsMQTTURL() string {
	return getEnv("SLOTS_MQTT_URL", "")
}

func (svc *envService) GetSlotsMQTTTopic() string {
	return getEnv("SLOTS_MQTT_TOPIC", "parking/slots")
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		lgr.Logger.Warn("invalid int env var, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Int("default", fallback),
		)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		lgr.Logger.Warn("invalid float env var, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Float64("default", fallback),
		)
		return fallback
	}
	return f
}
