package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	GitHub   *githubConfig
	AI       *aiConfig
	Airtable *airtableConfig
	Review   *ReviewPolicy
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"vision"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"VISION_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"VISION_METRICS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"VISION_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"VISION_MIGRATIONS_FOLDER" default:""`
}

type githubConfig struct {
	APIURL           string        `envconfig:"VISION_GITHUB_API_URL" default:"https://api.github.com"`
	Token            string        `envconfig:"VISION_GITHUB_TOKEN" default:""`
	Timeout          time.Duration `envconfig:"VISION_GITHUB_TIMEOUT" default:"15s"`
	CommitLimit      int           `envconfig:"VISION_GITHUB_COMMIT_LIMIT" default:"50"`
	StatsConcurrency int           `envconfig:"VISION_GITHUB_STATS_CONCURRENCY" default:"4"`
}

type aiConfig struct {
	URL        string        `envconfig:"VISION_AI_URL" default:"https://api.shuttleai.app/v1/chat/completions"`
	Key        string        `envconfig:"VISION_AI_KEY" default:""`
	Model      string        `envconfig:"VISION_AI_MODEL" default:"anthropic/claude-sonnet-4-20250514"`
	Timeout    time.Duration `envconfig:"VISION_AI_TIMEOUT" default:"90s"`
	MaxRetries int           `envconfig:"VISION_AI_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"VISION_AI_RETRY_DELAY" default:"30s"`
}

type airtableConfig struct {
	APIURL        string        `envconfig:"VISION_AIRTABLE_API_URL" default:"https://api.airtable.com/v0"`
	Token         string        `envconfig:"VISION_AIRTABLE_PAT" default:""`
	Timeout       time.Duration `envconfig:"VISION_AIRTABLE_TIMEOUT" default:"15s"`
	RegistryBase  string        `envconfig:"VISION_AIRTABLE_REGISTRY_BASE" default:"app3A5kJwYqxMLOgh"`
	RegistryTable string        `envconfig:"VISION_AIRTABLE_REGISTRY_TABLE" default:"Approved Projects"`
}

// ReviewPolicy carries the decision thresholds. The defaults are the
// compatibility values; deployments may tune them via environment.
type ReviewPolicy struct {
	HourMismatchThreshold   float64       `envconfig:"VISION_REVIEW_HOUR_MISMATCH_THRESHOLD" default:"5"`
	QualityRejectBelow      int           `envconfig:"VISION_REVIEW_QUALITY_REJECT_BELOW" default:"4"`
	OriginalityRejectBelow  int           `envconfig:"VISION_REVIEW_ORIGINALITY_REJECT_BELOW" default:"3"`
	QualityFlagMax          int           `envconfig:"VISION_REVIEW_QUALITY_FLAG_MAX" default:"6"`
	OriginalityFlagMax      int           `envconfig:"VISION_REVIEW_ORIGINALITY_FLAG_MAX" default:"5"`
	QualityApproveMin       int           `envconfig:"VISION_REVIEW_QUALITY_APPROVE_MIN" default:"7"`
	OriginalityApproveMin   int           `envconfig:"VISION_REVIEW_ORIGINALITY_APPROVE_MIN" default:"6"`
	CommitQualityFlagBelow  int           `envconfig:"VISION_REVIEW_COMMIT_QUALITY_FLAG_BELOW" default:"5"`
	CommitQualityApproveMin int           `envconfig:"VISION_REVIEW_COMMIT_QUALITY_APPROVE_MIN" default:"6"`
	ConfidenceFloor         int           `envconfig:"VISION_REVIEW_CONFIDENCE_FLOOR" default:"4"`
	ContentTimeout          time.Duration `envconfig:"VISION_REVIEW_CONTENT_TIMEOUT" default:"15s"`
	ContentMaxChars         int           `envconfig:"VISION_REVIEW_CONTENT_MAX_CHARS" default:"8000"`
	MaxBulkRecords          int           `envconfig:"VISION_REVIEW_MAX_BULK_RECORDS" default:"100"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
