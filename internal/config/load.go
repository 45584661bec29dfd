package config

import (
	"os"
)

const defaultAWSRegion = "ap-northeast-2"

func LoadFromEnv() {
	HistoryStoragePath = os.Getenv("HISTORY_STORAGE_PATH")

	InfluxURL = os.Getenv("INFLUX_URL")
	InfluxToken = os.Getenv("INFLUX_TOKEN")
	InfluxOrg = os.Getenv("INFLUX_ORG")
	InfluxBucket = os.Getenv("INFLUX_BUCKET")

	JobQueueURL = os.Getenv("JOB_QUEUE_URL")
	EventQueueURL = os.Getenv("EVENT_QUEUE_URL")

	AWSRegion = getenvDefault("AWS_REGION", defaultAWSRegion)
	AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	HTTPAddr = os.Getenv("HTTP_ADDR")
}

func getenvDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
