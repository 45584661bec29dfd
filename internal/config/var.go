package config

var (
	HistoryStoragePath string
)

var (
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
)

var (
	JobQueueURL   string
	EventQueueURL string

	AWSRegion       string
	AccessKeyID     string
	SecretAccessKey string
)

var (
	// HTTPAddr enables the HTTP API when set.
	HTTPAddr string
)
