package config

// Config is the root configuration model parsed from briefing.yaml plus
// environment overlays. Secrets never appear in the YAML file.
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Feeds     FeedsConfig     `yaml:"feeds" validate:"required"`
	Beehiiv   BeehiivConfig   `yaml:"beehiiv" validate:"required"`
	Notify    NotifyConfig    `yaml:"notify"`
	Contracts ContractsConfig `yaml:"contracts"`
}

// Settings holds pipeline-wide execution knobs.
type Settings struct {
	DataDir    string `yaml:"data_dir" validate:"required"`
	LogDir     string `yaml:"log_dir" validate:"required"`
	PreviewDir string `yaml:"preview_dir" validate:"required"`
	// Worker pool size for dependency-free stages within a level.
	Parallel int `yaml:"parallel" validate:"gte=0,lte=16"`
	// Per-stage timeouts in seconds, by stage class.
	DataTimeout         int  `yaml:"data_timeout" validate:"gte=0"`
	DistributionTimeout int  `yaml:"distribution_timeout" validate:"gte=0"`
	PostProcessTimeout  int  `yaml:"post_process_timeout" validate:"gte=0"`
	Verbose             bool `yaml:"verbose"`
}

// FeedSource names one RSS feed.
type FeedSource struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
}

// FeedsConfig wires the market data collaborators.
type FeedsConfig struct {
	ChartBaseURL string       `yaml:"chart_base_url" validate:"required,url"`
	News         []FeedSource `yaml:"news" validate:"min=1,dive"`
	AfricaNews   []FeedSource `yaml:"africa_news" validate:"dive"`
	MaxHeadlines int          `yaml:"max_headlines" validate:"gte=1,lte=20"`
}

// BeehiivConfig wires the publishing platform.
type BeehiivConfig struct {
	APIBaseURL    string `yaml:"api_base_url" validate:"required,url"`
	AppBaseURL    string `yaml:"app_base_url" validate:"required,url"`
	PublicationID string `yaml:"publication_id" validate:"required"`
	// APITierSupported records whether the account plan allows post creation
	// through the keyed API. When false the browser transport is used.
	APITierSupported bool `yaml:"api_tier_supported"`
	// SessionFile is the persisted browser-session artifact, reused across
	// runs until invalidated.
	SessionFile string `yaml:"session_file" validate:"required"`

	// Secrets, environment only.
	APIKey   string `yaml:"-"`
	Email    string `yaml:"-"`
	Password string `yaml:"-"`
}

// NotifyConfig wires operator email notifications.
type NotifyConfig struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port" validate:"gte=0,lte=65535"`
	Operator string `yaml:"operator" validate:"omitempty,email"`

	// Password comes from NOTIFY_PASSWORD; empty disables sending.
	Password string `yaml:"-"`
}

// ContractsConfig wires the mining-contracts dataset repository synced by
// the contract transparency stage.
type ContractsConfig struct {
	RepoURL string `yaml:"repo_url" validate:"omitempty,url"`
	Branch  string `yaml:"branch"`
	Dir     string `yaml:"dir"`
}
