package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/hill399/linkedBtc/internal/core/application"
	"github.com/hill399/linkedBtc/internal/core/ports"
	alertsmanager "github.com/hill399/linkedBtc/internal/infrastructure/alertsmanager"
	inmemorycustody "github.com/hill399/linkedBtc/internal/infrastructure/custody/inmemory"
	"github.com/hill399/linkedBtc/internal/infrastructure/db"
	inmemorylivestore "github.com/hill399/linkedBtc/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/hill399/linkedBtc/internal/infrastructure/live-store/redis"
	"github.com/hill399/linkedBtc/internal/infrastructure/oracle"
	blockscheduler "github.com/hill399/linkedBtc/internal/infrastructure/scheduler/block"
	timescheduler "github.com/hill399/linkedBtc/internal/infrastructure/scheduler/gocron"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	supportedEventDbs = supportedType{
		"badger":   {},
		"postgres": {},
	}
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
		"block":  {},
	}
	supportedLiveStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
	supportedNetworks = supportedType{
		"mainnet":  {},
		"testnet3": {},
		"signet":   {},
		"regtest":  {},
	}
)

type Config struct {
	Datadir         string
	Port            uint32
	NoTLS           bool
	NoMacaroons     bool
	LogLevel        int
	TLSExtraIPs     []string
	TLSExtraDomains []string
	EnableMetrics   bool

	Network             string
	DbType              string
	EventDbType         string
	DbDir               string
	DbUrl               string
	EventDbUrl          string
	EventDbDir          string
	LiveStoreType       string
	RedisUrl            string
	RedisTxNumOfRetries int
	SchedulerType       string
	EsploraURL          string
	HeartbeatInterval   int64

	MinWithdraw     uint64
	ChallengeFloor  uint64
	ChallengeRange  uint64
	RequestTTL      int64
	ProviderTimeout int64 // seconds

	CustodyEnabled  bool
	CustodyTreasury string
	CustodySupply   uint64

	OtelCollectorEndpoint string
	OtelPushInterval      int64
	AlertManagerURL       string

	repo           ports.RepoManager
	svc            application.Service
	adminSvc       application.AdminService
	scheduler      ports.SchedulerService
	liveStore      ports.LiveStore
	providerClient ports.ProviderClient
	custody        ports.TokenCustody
	alerts         ports.Alerts
	redisClient    *redis.Client
}

func (c *Config) String() string {
	clone := *c
	clone.DbUrl = maskUrl(clone.DbUrl)
	clone.EventDbUrl = maskUrl(clone.EventDbUrl)
	clone.RedisUrl = maskUrl(clone.RedisUrl)
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir             = btcutil.AppDataDir("linkedbtcd", false)
	DefaultPort                = 7070
	defaultNetwork             = "regtest"
	defaultDbType              = "sqlite"
	defaultEventDbType         = "badger"
	defaultSchedulerType       = "gocron"
	defaultLiveStoreType       = "inmemory"
	defaultRedisTxNumOfRetries = 10
	defaultEsploraURL          = "https://blockstream.info/api"
	defaultLogLevel            = 4
	defaultNoMacaroons         = false
	defaultNoTLS               = true
	defaultMinWithdraw         = 1000
	defaultChallengeFloor      = application.MinChallengeFloor
	defaultChallengeRange      = 9000
	defaultRequestTTL          = 3600 // seconds
	defaultProviderTimeout     = 10   // seconds
	defaultCustodySupply       = 21_000_000 * 100_000_000
	defaultOtelPushInterval    = 10 // seconds
	defaultHeartbeatInterval   = 60 // seconds
	defaultEnableMetrics       = false
)

// env returns a list of strings prefixed with `LBTC_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("LBTC_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	Port = &cli.UintFlag{
		Usage: "Port to listen on",
		Name:  "port", EnvVars: env("PORT"),
		Value: uint(DefaultPort),
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	Network = &cli.StringFlag{
		Usage: "Bitcoin network external addresses and txids belong to",
		Name:  "network", EnvVars: env("NETWORK"),
		Value: defaultNetwork,
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (postgres, sqlite, badger)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if LBTC_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (postgres, badger)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	EventDbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if LBTC_EVENT_DB_TYPE is set to postgres",
		Name:  "pg-event-db-url", EnvVars: env("PG_EVENT_DB_URL"),
	}

	LiveStoreType = &cli.StringFlag{
		Usage: "Pending request store type (redis, inmemory)",
		Name:  "live-store-type", EnvVars: env("LIVE_STORE_TYPE"),
		Value: defaultLiveStoreType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis db connection url if LBTC_LIVE_STORE_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisTxNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of retries for Redis write operations in case of conflicts",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisTxNumOfRetries,
	}

	SchedulerType = &cli.StringFlag{
		Usage: "Scheduler type (gocron, block)",
		Name:  "scheduler-type", EnvVars: env("SCHEDULER_TYPE"),
		Value: defaultSchedulerType,
	}

	EsploraURL = &cli.StringFlag{
		Usage: "Esplora API URL, used by the block scheduler and alerts",
		Name:  "esplora-url", EnvVars: env("ESPLORA_URL"),
		Value: defaultEsploraURL,
	}

	MinWithdraw = &cli.Uint64Flag{
		Usage: "Minimum withdrawal amount in satoshis",
		Name:  "min-withdraw", EnvVars: env("MIN_WITHDRAW"),
		Value: uint64(defaultMinWithdraw),
	}

	ChallengeFloor = &cli.Uint64Flag{
		Usage: "Lowest challenge amount in satoshis",
		Name:  "challenge-floor", EnvVars: env("CHALLENGE_FLOOR"),
		Value: uint64(defaultChallengeFloor),
	}

	ChallengeRange = &cli.Uint64Flag{
		Usage: "Width of the random challenge range above the floor",
		Name:  "challenge-range", EnvVars: env("CHALLENGE_RANGE"),
		Value: uint64(defaultChallengeRange),
	}

	RequestTTL = &cli.Int64Flag{
		Usage: "Pending request expiry in seconds (in blocks with the block scheduler), 0 disables it",
		Name:  "request-ttl", EnvVars: env("REQUEST_TTL"),
		Value: int64(defaultRequestTTL),
	}

	// TODO: Make this a cli.DurationFlag.
	ProviderTimeout = &cli.Int64Flag{
		Usage: "Timeout in seconds of a single dispatch to a provider",
		Name:  "provider-timeout", EnvVars: env("PROVIDER_TIMEOUT"),
		Value: int64(defaultProviderTimeout),
	}

	CustodyEnabled = &cli.BoolFlag{
		Usage: "Move wrapped tokens in and out of custody on credit and debit",
		Name:  "custody-enabled", EnvVars: env("CUSTODY_ENABLED"),
	}

	CustodyTreasury = &cli.StringFlag{
		Usage:       "Custody treasury holder",
		Name:        "custody-treasury", EnvVars: env("CUSTODY_TREASURY"),
		DefaultText: inmemorycustody.DefaultTreasury,
	}

	CustodySupply = &cli.Uint64Flag{
		Usage: "Wrapped token supply minted to the treasury",
		Name:  "custody-supply", EnvVars: env("CUSTODY_SUPPLY"),
		Value: uint64(defaultCustodySupply),
	}

	NoMacaroons = &cli.BoolFlag{
		Usage: "Disable Macaroons authentication",
		Name:  "no-macaroons", EnvVars: env("NO_MACAROONS"),
		Value: defaultNoMacaroons,
	}

	NoTLS = &cli.BoolFlag{
		Usage: "Disable TLS",
		Name:  "no-tls", EnvVars: env("NO_TLS"),
		Value: defaultNoTLS,
	}

	TLSExtraIP = &cli.StringSliceFlag{
		Usage: "Extra IP addresses for TLS (comma-separated)",
		Name:  "tls-extra-ip", EnvVars: env("TLS_EXTRA_IP"),
	}

	TLSExtraDomain = &cli.StringSliceFlag{
		Usage: "Extra domains for TLS (comma-separated)",
		Name:  "tls-extra-domain", EnvVars: env("TLS_EXTRA_DOMAIN"),
	}

	HeartbeatInterval = &cli.IntFlag{
		Usage: "Event stream heartbeat interval in seconds",
		Name:  "heartbeat-interval", EnvVars: env("HEARTBEAT_INTERVAL"),
		Value: defaultHeartbeatInterval,
	}

	OtelCollectorEndpoint = &cli.StringFlag{
		Usage: "OpenTelemetry collector endpoint",
		Name:  "otel-collector-endpoint", EnvVars: env("OTEL_COLLECTOR_ENDPOINT"),
	}

	OtelPushInterval = &cli.IntFlag{
		Usage: "OpenTelemetry push interval in seconds",
		Name:  "otel-push-interval", EnvVars: env("OTEL_PUSH_INTERVAL"),
		Value: defaultOtelPushInterval,
	}

	AlertManagerURL = &cli.StringFlag{
		Usage: "Alertmanager URL to publish settlement alerts to",
		Name:  "alert-manager-url", EnvVars: env("ALERT_MANAGER_URL"),
	}

	EnableMetrics = &cli.BoolFlag{
		Usage: "Expose prometheus metrics at /metrics",
		Name:  "enable-metrics", EnvVars: env("ENABLE_METRICS"),
		Value: defaultEnableMetrics,
	}
)

var Flags = []cli.Flag{
	Datadir,
	Port,
	LogLevel,
	Network,
	DbType,
	DbUrl,
	EventDbType,
	EventDbUrl,
	LiveStoreType,
	RedisUrl,
	RedisTxNumOfRetries,
	SchedulerType,
	EsploraURL,
	MinWithdraw,
	ChallengeFloor,
	ChallengeRange,
	RequestTTL,
	ProviderTimeout,
	CustodyEnabled,
	CustodyTreasury,
	CustodySupply,
	NoMacaroons,
	NoTLS,
	TLSExtraIP,
	TLSExtraDomain,
	HeartbeatInterval,
	OtelCollectorEndpoint,
	OtelPushInterval,
	AlertManagerURL,
	EnableMetrics,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var eventDbUrl string
	if c.String(EventDbType.Name) == "postgres" {
		eventDbUrl = c.String(EventDbUrl.Name)
		if eventDbUrl == "" {
			return nil, fmt.Errorf("event db type set to 'postgres' but event db url is missing")
		}
	}

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl string
	if c.String(LiveStoreType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("live store type set to 'redis' but redis url is missing")
		}
	}

	return &Config{
		Datadir:               c.String(Datadir.Name),
		Port:                  uint32(c.Uint(Port.Name)),
		NoTLS:                 c.Bool(NoTLS.Name),
		NoMacaroons:           c.Bool(NoMacaroons.Name),
		LogLevel:              c.Int(LogLevel.Name),
		TLSExtraIPs:           c.StringSlice(TLSExtraIP.Name),
		TLSExtraDomains:       c.StringSlice(TLSExtraDomain.Name),
		EnableMetrics:         c.Bool(EnableMetrics.Name),
		Network:               c.String(Network.Name),
		DbType:                c.String(DbType.Name),
		EventDbType:           c.String(EventDbType.Name),
		DbDir:                 dbPath,
		DbUrl:                 dbUrl,
		EventDbUrl:            eventDbUrl,
		EventDbDir:            dbPath,
		LiveStoreType:         c.String(LiveStoreType.Name),
		RedisUrl:              redisUrl,
		RedisTxNumOfRetries:   c.Int(RedisTxNumOfRetries.Name),
		SchedulerType:         c.String(SchedulerType.Name),
		EsploraURL:            c.String(EsploraURL.Name),
		HeartbeatInterval:     int64(c.Int(HeartbeatInterval.Name)),
		MinWithdraw:           c.Uint64(MinWithdraw.Name),
		ChallengeFloor:        c.Uint64(ChallengeFloor.Name),
		ChallengeRange:        c.Uint64(ChallengeRange.Name),
		RequestTTL:            c.Int64(RequestTTL.Name),
		ProviderTimeout:       c.Int64(ProviderTimeout.Name),
		CustodyEnabled:        c.Bool(CustodyEnabled.Name),
		CustodyTreasury:       c.String(CustodyTreasury.Name),
		CustodySupply:         c.Uint64(CustodySupply.Name),
		OtelCollectorEndpoint: c.String(OtelCollectorEndpoint.Name),
		OtelPushInterval:      int64(c.Int(OtelPushInterval.Name)),
		AlertManagerURL:       c.String(AlertManagerURL.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.svc != nil {
		return nil
	}

	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s", supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf(
			"scheduler type not supported, please select one of: %s", supportedSchedulers,
		)
	}
	if !supportedLiveStores.supports(c.LiveStoreType) {
		return fmt.Errorf(
			"live store type not supported, please select one of: %s", supportedLiveStores,
		)
	}
	if !supportedNetworks.supports(c.Network) {
		return fmt.Errorf("network not supported, please select one of: %s", supportedNetworks)
	}
	if c.ChallengeFloor < application.MinChallengeFloor {
		return fmt.Errorf("challenge floor must be at least %d", application.MinChallengeFloor)
	}
	if c.ChallengeRange == 0 {
		return fmt.Errorf("challenge range must be greater than 0")
	}
	if c.MinWithdraw == 0 {
		return fmt.Errorf("min withdraw must be greater than 0")
	}
	if c.RequestTTL < 0 {
		return fmt.Errorf("request ttl must not be negative")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be greater than 0")
	}
	if c.CustodyEnabled && c.CustodySupply == 0 {
		return fmt.Errorf("custody supply must be greater than 0 when custody is enabled")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.liveStoreService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.providerClientService(); err != nil {
		return err
	}
	if err := c.custodyService(); err != nil {
		return err
	}
	if err := c.alertsService(); err != nil {
		return err
	}
	if err := c.appService(); err != nil {
		return err
	}
	if err := c.adminService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) AdminService() (application.AdminService, error) {
	if c.adminSvc == nil {
		if err := c.adminService(); err != nil {
			return nil, err
		}
	}
	return c.adminSvc, nil
}

// HealthChecks returns the probes of the external services the bridge
// depends on.
func (c *Config) HealthChecks() []func(context.Context) error {
	checks := make([]func(context.Context) error, 0)
	if c.redisClient != nil {
		rdb := c.redisClient
		checks = append(checks, func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis unreachable: %w", err)
			}
			return nil
		})
	}
	return checks
}

func (c *Config) repoManager() error {
	var svc ports.RepoManager
	var err error
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	case "postgres":
		eventStoreConfig = []interface{}{c.EventDbUrl, true}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, true}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err = db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) liveStoreService() error {
	var liveStoreSvc ports.LiveStore
	var err error
	switch c.LiveStoreType {
	case "inmemory":
		liveStoreSvc = inmemorylivestore.NewLiveStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		c.redisClient = rdb
		liveStoreSvc = redislivestore.NewLiveStore(rdb, c.RedisTxNumOfRetries)
	default:
		err = fmt.Errorf("unknown liveStore type")
	}

	if err != nil {
		return err
	}

	c.liveStore = liveStoreSvc
	return nil
}

func (c *Config) schedulerService() error {
	var svc ports.SchedulerService
	var err error
	switch c.SchedulerType {
	case "gocron":
		svc = timescheduler.NewScheduler()
	case "block":
		svc, err = blockscheduler.NewScheduler(c.EsploraURL)
	default:
		err = fmt.Errorf("unknown scheduler type")
	}
	if err != nil {
		return err
	}

	c.scheduler = svc
	return nil
}

func (c *Config) providerClientService() error {
	c.providerClient = oracle.NewClient(time.Duration(c.ProviderTimeout) * time.Second)
	return nil
}

func (c *Config) custodyService() error {
	if !c.CustodyEnabled {
		return nil
	}

	svc, err := inmemorycustody.NewTokenCustody(c.CustodyTreasury, c.CustodySupply)
	if err != nil {
		return err
	}
	c.custody = svc
	return nil
}

func (c *Config) alertsService() error {
	if c.AlertManagerURL == "" {
		return nil
	}

	c.alerts = alertsmanager.NewService(c.AlertManagerURL, c.EsploraURL)
	return nil
}

func (c *Config) appService() error {
	if c.repo == nil || c.liveStore == nil || c.scheduler == nil {
		return fmt.Errorf("config not validated")
	}

	svc, err := application.NewService(
		c.repo, c.liveStore, c.scheduler, c.providerClient, c.custody, c.alerts,
		c.Network, c.MinWithdraw, c.ChallengeFloor, c.ChallengeRange,
		c.RequestTTL, time.Duration(c.ProviderTimeout)*time.Second,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

func (c *Config) adminService() error {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return err
		}
	}

	c.adminSvc = application.NewAdminService(c.svc, c.repo, c.liveStore, c.scheduler)
	return nil
}

// maskUrl hides the password of a connection url.
func maskUrl(rawUrl string) string {
	if rawUrl == "" {
		return ""
	}
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "••••••"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxxx")
	}
	return u.String()
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
