package config

type DetectorParameters struct {
	ProtoPath           string
	ModelPath           string
	LabelsPath          string
	InputSize           int
	ScaleFactor         float64
	Mean                float64
	ConfidenceThreshold float64
}

type IService interface {
	GetModeMaxShutdownTime() int
	GetInputFolder() string
	GetLogLevel() string
	GetLogFile() string
	GetPricingPort() string
	GetVisionPort() string

	GetDataStore() string
	GetMongoURL() string
	GetMongoDatabase() string
	GetModelsCollection() string
	GetBookingsCollection() string
	GetModelName() string
	GetSyntheticDatasetFile() string
	GetForestTrees() int
	GetForestSeed() int64
	GetRetrainInterval() int

	GetSlotsFile() string
	GetDetectorParameters() DetectorParameters
	GetBackendURL() string
	GetNotifierTimeout() int
	GetSlotsRedisURL() string
	GetSlotsRedisChannel() string
	GetSlotsMQTTURL() string
	GetSlotsMQTTTopic() string
}
